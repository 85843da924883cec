package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/astowny/monteur-ia/internal/config"
	"github.com/astowny/monteur-ia/internal/persistence"
	"github.com/astowny/monteur-ia/internal/service"
	"github.com/astowny/monteur-ia/pkg/log"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "monteur",
		Short:        "Local AI service that turns long videos into short clips",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the job sweeper",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Print runtime checks as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCheck(cmd.Context(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "analyze <request.json>",
			Short: "Run silence, moment and hook analysis on a local request file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAnalyze(args[0], cmd.OutOrStdout())
			},
		},
	)
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log.InitLogger(log.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// buildApp opens the store and wires the service. The caller closes the
// returned store.
func buildApp(cfg *config.Config) (*service.App, *persistence.SQLiteStore, error) {
	store, err := persistence.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	app, err := service.NewApp(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return app, store, nil
}

func runCheck(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, store, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}
	return writeIndented(out, app.RuntimeChecks())
}

func writeIndented(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
