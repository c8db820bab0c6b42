package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/iwvelando/emi-calculator/internal/config"
	"github.com/iwvelando/emi-calculator/internal/server"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		address    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator web page and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load server configuration at %s: %w", configPath, err)
			}
			if address != "" {
				cfg.Address = address
			}

			logLevel, _ := cmd.Flags().GetString("log-level")
			logger, err := config.NewLogger(cfg.Logging, logLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := server.Run(ctx, cfg, logger, getVersion()); err != nil {
				logger.Error("server exited with error",
					zap.String("op", "main.serve"),
					zap.Error(err),
				)
				return errReported
			}
			logger.Info("server exited", zap.String("op", "main.serve"))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&address, "address", "", "listen address override")
	return cmd
}
