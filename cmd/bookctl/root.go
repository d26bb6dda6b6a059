package main

import (
	"context"

	"go-bookstore-ws/internal/bootstrap"
	"go-bookstore-ws/internal/config"
	"go-bookstore-ws/internal/logger"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

// deps is opened by PersistentPreRunE and closed after the command.
var deps *bootstrap.App

var rootCmd = &cobra.Command{
	Use:   "bookctl",
	Short: "Operator tools for the bookstore back office",
	Long: `bookctl runs maintenance tasks against the same database and event bus
as the API server: stock audits, ledger reversals, password resets and
mutasi exports.

Configuration is read from .env and the environment, like the server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logger.Init(cfg.LogLevel, "text")
		deps, err = bootstrap.New(context.Background(), cfg, log, bootstrap.Options{})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if deps != nil {
			deps.Close()
		}
	},
}
