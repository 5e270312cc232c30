// Package main is the entry point for the Tonearm database migration tool.
// It applies the embedded goose migrations to the configured backend.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/prn-tf/tonearm/internal/config"
	"github.com/prn-tf/tonearm/internal/database"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tonearm-migrate",
		Short:         "Tonearm database migration tool",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	for _, c := range []struct {
		use, command, short string
	}{
		{"up", "up", "Run all pending migrations"},
		{"down", "down", "Roll back the last migration"},
		{"status", "status", "Show migration status"},
		{"db-version", "version", "Print the current schema version"},
	} {
		command := c.command
		root.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd.Context(), configPath, command)
			},
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Tonearm Migration Tool\nVersion: %s\nBuild Time: %s\nGit Commit: %s\n",
				Version, BuildTime, GitCommit)
		},
	})

	return root
}

func migrate(ctx context.Context, configPath, command string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := database.Open(ctx, cfg.Database, log.Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx, command); err != nil {
		return err
	}
	log.Info().Str("driver", store.Driver()).Str("command", command).Msg("migration finished")
	return nil
}
