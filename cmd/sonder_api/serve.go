package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sonder-app/sonder-api/internal/config"
	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/scheduler"
	"github.com/sonder-app/sonder-api/internal/server"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start the HTTP API and, when enabled, the daily prompt scheduler. Both stop on SIGINT or SIGTERM.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveMigrate {
		if err := migrateUp(ctx, cfg.Database.URL, log); err != nil {
			return err
		}
	}

	database, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	if client != nil {
		defer func() { _ = client.Close() }()
	} else {
		log.Warn("text generation disabled, generated prompts use the default question")
	}

	generator, err := newGenerator(cfg, client, log)
	if err != nil {
		return fmt.Errorf("failed to create prompt generator: %w", err)
	}

	srv, err := server.New(cfg, server.Deps{Store: database, Generator: generator, Logger: log})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx, cfg.Server.ShutdownTimeout)
	})

	if cfg.Scheduler.Enabled {
		daily, err := scheduler.New(cfg.Scheduler, database, generator, log)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		g.Go(func() error {
			return daily.Run(gctx)
		})
	}

	return g.Wait()
}
