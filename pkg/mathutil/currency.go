// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/emi-calculator/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Only presentation code should call it; computed values stay at full precision.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// IsFinitePositive reports whether val is a well-formed number strictly greater than zero.
func IsFinitePositive(val float64) bool {
	return IsFinite(val) && val > 0
}
