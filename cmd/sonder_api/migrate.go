package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sonder-app/sonder-api/internal/config"
	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or list schema migrations",
	Long:      "Run the embedded goose migrations against DATABASE_URL. With no argument, pending migrations are applied.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	log := newLogger(cfg.Log)
	ctx := cmd.Context()

	switch action {
	case "up":
		return migrateUp(ctx, cfg.Database.URL, log)
	case "down":
		m, err := db.NewMigrator(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()

		version, err := m.Down(ctx)
		if err != nil {
			return err
		}
		log.Info("migration rolled back", "version", version)
		return nil
	default:
		m, err := db.NewMigrator(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()

		status, err := m.Status(ctx)
		if err != nil {
			return err
		}
		return printMigrationStatus(cmd.OutOrStdout(), status)
	}
}

func migrateUp(ctx context.Context, databaseURL string, log logging.Logger) error {
	m, err := db.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		log.Info("database schema is up to date")
		return nil
	}
	log.Info("migrations applied", "versions", applied)
	return nil
}

func printMigrationStatus(out io.Writer, status []db.MigrationInfo) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tSOURCE")
	for _, s := range status {
		state, appliedAt := "pending", "-"
		if s.Applied {
			state = "applied"
			appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Version, state, appliedAt, s.Source)
	}
	return tw.Flush()
}
