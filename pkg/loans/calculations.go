// Package loans computes the fixed monthly installment of a fully amortizing
// loan together with the totals derived from it.
//
// All values are returned at full floating-point precision. Rounding for
// display belongs to the caller (see pkg/output).
package loans

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/mathutil"
)

// ErrInvalidInput is matched by every *ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid loan input")

// LoanInputs holds the three values a calculation is made from.
//
// TenureMonths is expressed in months to match the monthly rate derived from
// AnnualRatePercent. A tenure given in years produces wrong figures and
// cannot be detected here.
type LoanInputs struct {
	Principal         float64 `json:"principal" yaml:"principal" mapstructure:"principal"`
	AnnualRatePercent float64 `json:"annualRatePercent" yaml:"annualRatePercent" mapstructure:"annualRatePercent"`
	TenureMonths      float64 `json:"tenureMonths" yaml:"tenureMonths" mapstructure:"tenureMonths"`
}

// PaymentResult holds the installment and the totals derived from it.
type PaymentResult struct {
	Installment   float64 `json:"installment"`
	TotalPayable  float64 `json:"totalPayable"`
	TotalInterest float64 `json:"totalInterest"`
}

// ValidationError is returned instead of a PaymentResult when inputs are
// not usable. Fields lists the offending inputs in declaration order.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrInvalidInput) hold for validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Validate checks that every input is a finite number strictly greater than
// zero. NaN, as produced by ParseInputs for unparseable text, is rejected.
func Validate(inputs LoanInputs) (LoanInputs, error) {
	var fields []string
	if !mathutil.IsFinitePositive(inputs.Principal) {
		fields = append(fields, constants.FieldPrincipal)
	}
	if !mathutil.IsFinitePositive(inputs.AnnualRatePercent) {
		fields = append(fields, constants.FieldAnnualRatePercent)
	}
	if !mathutil.IsFinitePositive(inputs.TenureMonths) {
		fields = append(fields, constants.FieldTenureMonths)
	}

	if len(fields) > 0 {
		return inputs, &ValidationError{
			Message: constants.InvalidInputMessage,
			Fields:  fields,
		}
	}
	return inputs, nil
}

// MonthlyRate converts an annual percentage rate into a monthly decimal rate.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / constants.MonthsPerYear / constants.PercentageMultiplier
}

// ComputeInstallment calculates the monthly payment using the standard
// amortization formula. inputs must already have passed Validate.
//
// (1+r)^n - 1 is evaluated as expm1(n*log1p(r)) so the denominator does not
// collapse to zero when 1+r rounds to 1; the installment then tends to P/n.
func ComputeInstallment(inputs LoanInputs) float64 {
	r := MonthlyRate(inputs.AnnualRatePercent)
	growth := math.Expm1(inputs.TenureMonths * math.Log1p(r))
	return inputs.Principal * r * (growth + 1) / growth
}

// ComputeResult validates inputs and, when they are usable, computes the
// installment, total payable and total interest. Either the full result or
// a *ValidationError is returned, never both. Inputs whose figures overflow
// float64 are reported against all three fields.
func ComputeResult(inputs LoanInputs) (PaymentResult, error) {
	valid, err := Validate(inputs)
	if err != nil {
		return PaymentResult{}, err
	}

	installment := ComputeInstallment(valid)
	totalPayable := installment * valid.TenureMonths
	result := PaymentResult{
		Installment:   installment,
		TotalPayable:  totalPayable,
		TotalInterest: totalPayable - valid.Principal,
	}

	// Extreme but positive inputs can still overflow float64.
	if !mathutil.IsFinite(result.Installment) || !mathutil.IsFinite(result.TotalPayable) ||
		!mathutil.IsFinite(result.TotalInterest) {
		return PaymentResult{}, &ValidationError{
			Message: constants.InvalidInputMessage,
			Fields: []string{
				constants.FieldPrincipal,
				constants.FieldAnnualRatePercent,
				constants.FieldTenureMonths,
			},
		}
	}
	return result, nil
}

// Calculate is ComputeResult for callers holding three loose numbers.
func Calculate(principal, annualRatePercent, tenureMonths float64) (PaymentResult, error) {
	return ComputeResult(LoanInputs{
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TenureMonths:      tenureMonths,
	})
}

// ParseInputs converts raw text values into LoanInputs. Empty or malformed
// values become NaN so that Validate rejects them rather than treating them
// as zero.
func ParseInputs(principal, annualRatePercent, tenureMonths string) LoanInputs {
	return LoanInputs{
		Principal:         ParseAmount(principal),
		AnnualRatePercent: ParseAmount(annualRatePercent),
		TenureMonths:      ParseAmount(tenureMonths),
	}
}

// ParseAmount parses a single value, returning NaN when it is not a number.
func ParseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
