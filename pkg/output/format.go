// Package output provides utilities for formatting and displaying calculation results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary is the rounded, display-ready view of a calculation.
type Summary struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annualRatePercent"`
	TenureMonths      float64 `json:"tenureMonths"`
	Installment       float64 `json:"installment"`
	TotalPayable      float64 `json:"totalPayable"`
	TotalInterest     float64 `json:"totalInterest"`
}

// Summarize rounds every figure to cents. Each field is rounded on its own
// from the full-precision result; rounded values are never fed back into
// other computations.
func Summarize(inputs loans.LoanInputs, result loans.PaymentResult) Summary {
	return Summary{
		Principal:         mathutil.Round(inputs.Principal),
		AnnualRatePercent: inputs.AnnualRatePercent,
		TenureMonths:      inputs.TenureMonths,
		Installment:       mathutil.Round(result.Installment),
		TotalPayable:      mathutil.Round(result.TotalPayable),
		TotalInterest:     mathutil.Round(result.TotalInterest),
	}
}

// Render writes a successful calculation in the requested format.
func Render(w io.Writer, outputFormat string, inputs loans.LoanInputs, result loans.PaymentResult) error {
	summary := Summarize(inputs, result)
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, summary)
	case constants.OutputFormatCSV:
		return CsvFormat(w, summary)
	case constants.OutputFormatJSON:
		return JSONFormat(w, summary)
	}
	return fmt.Errorf("unsupported output format %q", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
// Money is printed with English digit grouping.
func PrettyFormat(w io.Writer, s Summary) error {
	p := message.NewPrinter(language.English)
	money := func(v float64) string {
		return p.Sprintf("$%.2f", v)
	}
	lines := []struct {
		label string
		value string
	}{
		{"Loan amount", money(s.Principal)},
		{"Interest rate", p.Sprintf("%v%% per year", s.AnnualRatePercent)},
		{"Tenure", p.Sprintf("%v months", s.TenureMonths)},
		{"Monthly EMI", money(s.Installment)},
		{"Total interest", money(s.TotalInterest)},
		{"Total payable", money(s.TotalPayable)},
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%-15s| %s\n", line.label, line.value); err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat outputs in comma-separated value format with a header row.
func CsvFormat(w io.Writer, s Summary) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"principal", "annual rate percent", "tenure months", "installment", "total payable", "total interest"},
		{
			formatFloat(s.Principal, 2),
			formatFloat(s.AnnualRatePercent, -1),
			formatFloat(s.TenureMonths, -1),
			formatFloat(s.Installment, 2),
			formatFloat(s.TotalPayable, 2),
			formatFloat(s.TotalInterest, 2),
		},
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv output: %w", err)
	}
	return nil
}

// JSONFormat outputs the summary as a single JSON object.
func JSONFormat(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// RenderError writes a calculation failure in the requested format. Only
// validation failures carry field names.
func RenderError(w io.Writer, outputFormat string, err error) error {
	var fields []string
	var validationErr *loans.ValidationError
	if errors.As(err, &validationErr) {
		fields = validationErr.Fields
	}

	switch outputFormat {
	case constants.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Error  string   `json:"error"`
			Fields []string `json:"fields,omitempty"`
		}{Error: err.Error(), Fields: fields})
	case constants.OutputFormatCSV:
		cw := csv.NewWriter(w)
		if writeErr := cw.WriteAll([][]string{{"error", "fields"}, {err.Error(), strings.Join(fields, " ")}}); writeErr != nil {
			return fmt.Errorf("failed to write csv output: %w", writeErr)
		}
		return nil
	default:
		_, writeErr := fmt.Fprintf(w, "Warning: %s\n", err.Error())
		return writeErr
	}
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
