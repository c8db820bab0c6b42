// Package constants provides shared constants for the emi-calculator application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// InvalidInputMessage is shown whenever any loan input is missing, malformed or not positive.
const InvalidInputMessage = "Please enter valid positive values for Loan Amount, Interest Rate, and Tenure."

// Input field names used in validation errors and API payloads
const (
	FieldPrincipal         = "principal"
	FieldAnnualRatePercent = "annualRatePercent"
	FieldTenureMonths      = "tenureMonths"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment variable overrides (EMI_LOAN_PRINCIPAL)
	EnvPrefix = "EMI"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultShutdownTimeoutSeconds bounds graceful shutdown of the HTTP server
	DefaultShutdownTimeoutSeconds = 10
)
