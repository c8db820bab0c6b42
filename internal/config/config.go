// Package config defines the configuration data structures and the functions
// for loading them from file and environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for emi-calculator.
type Configuration struct {
	Logging LoggingConfig    `yaml:"logging,omitempty"`
	Output  OutputConfig     `yaml:"output,omitempty"`
	Loan    loans.LoanInputs `yaml:"loan,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// configKeys are registered with viper so that environment variables can
// override them even when the file leaves them out.
var configKeys = map[string]interface{}{
	"logging.level":          "",
	"logging.format":         "",
	"logging.outputfile":     "",
	"output.format":          "",
	"loan.principal":         0.0,
	"loan.annualratepercent": 0.0,
	"loan.tenuremonths":      0.0,
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range configKeys {
		v.SetDefault(key, value)
	}
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file yields the defaults, still subject to
// EMI_* environment overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file, %w", err)
			}
		} else {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %w", err)
			}
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}
