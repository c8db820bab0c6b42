// Package testutil provides common utility functions for testing.
package testutil

import (
	"errors"
	"testing"

	"github.com/iwvelando/emi-calculator/pkg/loans"
)

// MustCompute runs loans.ComputeResult and fails the test on error.
func MustCompute(tb testing.TB, inputs loans.LoanInputs) loans.PaymentResult {
	tb.Helper()
	result, err := loans.ComputeResult(inputs)
	if err != nil {
		tb.Fatalf("ComputeResult(%+v) error = %v", inputs, err)
	}
	return result
}

// HasField reports whether name appears in the fields of a validation error.
func HasField(err error, name string) bool {
	var validationErr *loans.ValidationError
	if !errors.As(err, &validationErr) {
		return false
	}
	for _, field := range validationErr.Fields {
		if field == name {
			return true
		}
	}
	return false
}
