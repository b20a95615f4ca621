package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"dietcoach/config"
	"dietcoach/logging"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dietcoach",
	Short: "Diet and fitness coaching backend",
	Long: `REST backend for diet coaches: clients, measurements, diet plans,
appointments and an activity feed, with optional Telegram notifications.

Running without a subcommand starts the server.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

// setup loads the configuration and installs the global logger.
func setup(*cobra.Command, []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	logger, err = logging.New(cfg.LogLevel, cfg.GinMode != gin.ReleaseMode)
	if err != nil {
		return err
	}
	logging.Install(logger)
	if !cfg.EnvFileLoaded {
		logger.Info("no .env file found, relying on environment variables")
	}
	gin.SetMode(cfg.GinMode)
	return nil
}

func main() {
	rootCmd.AddCommand(serveCmd, indexesCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
