package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/task-manager/internal/infrastructure/config"
	"github.com/99minutos/task-manager/pkg/logger"
)

const serviceName = "task-api"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "taskapi",
		Short:        "Task manager HTTP API",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newIndexesCmd())
	return root
}

// bootstrap loads the configuration and initialises the shared logger.
func bootstrap(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, zerolog.Logger{}, err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Env:     cfg.Env,
	})
	return cfg, log, nil
}
