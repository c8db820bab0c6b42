package main

import (
	"fmt"

	"github.com/iwvelando/emi-calculator/internal/config"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/output"
	"github.com/iwvelando/emi-calculator/pkg/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type calculateOptions struct {
	configPath   string
	outputFormat string
}

func newCalculateCmd() *cobra.Command {
	opts := &calculateOptions{}

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the EMI for a single loan",
		Example: `  emi-calculator calculate --principal 100000 --rate 10 --tenure 12
  emi-calculator calculate --config config.yaml --output-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalculate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&opts.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	// Loan values are taken as text so malformed input is reported as invalid, not rejected by flag parsing.
	flags.StringP("principal", "p", "", "loan amount")
	flags.StringP("rate", "r", "", "annual interest rate in percent")
	flags.StringP("tenure", "t", "", "loan tenure in months")

	return cmd
}

func runCalculate(cmd *cobra.Command, opts *calculateOptions) error {
	conf, err := config.LoadConfiguration(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", opts.configPath, err)
	}

	logLevel, _ := cmd.Flags().GetString("log-level")
	logger, err := config.NewLogger(conf.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if opts.outputFormat != "" {
		outputFormat = opts.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Error(err.Error(), zap.String("op", "main.calculate"))
		return errReported
	}

	// Flags that were set override the loan section of the config.
	inputs := conf.Loan
	overrides := map[string]*float64{
		"principal": &inputs.Principal,
		"rate":      &inputs.AnnualRatePercent,
		"tenure":    &inputs.TenureMonths,
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if target, ok := overrides[f.Name]; ok {
			*target = loans.ParseAmount(f.Value.String())
		}
	})

	result, err := loans.ComputeResult(inputs)
	if err != nil {
		logger.Debug("loan inputs rejected",
			zap.String("op", "main.calculate"),
			zap.Error(err),
		)
		if renderErr := output.RenderError(cmd.ErrOrStderr(), outputFormat, err); renderErr != nil {
			return fmt.Errorf("failed to write output: %w", renderErr)
		}
		return errReported
	}

	logger.Debug("installment computed",
		zap.String("op", "main.calculate"),
		zap.Float64("installment", result.Installment),
		zap.Float64("total_payable", result.TotalPayable),
		zap.Float64("total_interest", result.TotalInterest),
	)

	if err := output.Render(cmd.OutOrStdout(), outputFormat, inputs, result); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
