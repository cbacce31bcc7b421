// Package scheduler runs the daily prompt job.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/sonder-app/sonder-api/internal/config"
	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/logging"
	"github.com/sonder-app/sonder-api/internal/metrics"
	"github.com/sonder-app/sonder-api/internal/promptgen"
)

// DefaultRunTimeout bounds one run of the job.
const DefaultRunTimeout = 2 * time.Minute

// Store is the persistence the job writes to.
type Store interface {
	RotateActivePrompt(ctx context.Context, in db.PromptInput) (*db.Prompt, error)
	NotifyAllUsers(ctx context.Context, kind string, content *string, promptID *uuid.UUID) (int64, error)
}

// Generator produces the day's question.
type Generator interface {
	Generate(ctx context.Context) promptgen.Generated
}

// Daily replaces the active prompt on a cron schedule and notifies every user.
type Daily struct {
	store    Store
	gen      Generator
	schedule cron.Schedule
	location *time.Location
	timeout  time.Duration
	log      logging.Logger
}

// New parses the schedule in cfg. It does not start anything.
func New(cfg config.SchedulerConfig, store Store, gen Generator, logger logging.Logger) (*Daily, error) {
	if store == nil || gen == nil {
		return nil, fmt.Errorf("store and generator are required")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	schedule, err := cron.ParseStandard(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Spec, err)
	}
	loc := time.UTC
	if cfg.Timezone != "" {
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}

	return &Daily{
		store:    store,
		gen:      gen,
		schedule: schedule,
		location: loc,
		timeout:  DefaultRunTimeout,
		log:      logger.With("component", "scheduler"),
	}, nil
}

// Next returns the first run after t.
func (d *Daily) Next(t time.Time) time.Time {
	return d.schedule.Next(t.In(d.location))
}

// Run blocks until ctx is cancelled, running the job on schedule. An
// in-flight run is allowed to finish before Run returns.
func (d *Daily) Run(ctx context.Context) error {
	adapter := cronLogger{log: d.log}
	c := cron.New(
		cron.WithLocation(d.location),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)
	c.Schedule(d.schedule, cron.FuncJob(func() {
		if _, err := d.RunOnce(ctx); err != nil {
			d.log.Error("daily prompt job failed", "error", err)
		}
	}))

	c.Start()
	d.log.Info("scheduler started", "next", d.Next(time.Now()))

	<-ctx.Done()
	<-c.Stop().Done()
	d.log.Info("scheduler stopped")
	return nil
}

// RunOnce generates a prompt, makes it the active one and notifies every user.
func (d *Daily) RunOnce(ctx context.Context) (*db.Prompt, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	generated := d.gen.Generate(ctx)
	outcome := string(generated.Outcome)

	prompt, err := d.store.RotateActivePrompt(ctx, db.PromptInput{
		Content: generated.Text,
		Source:  db.PromptSourceGenerated,
		Outcome: &outcome,
	})
	if err != nil {
		metrics.RecordSchedulerRun(false)
		return nil, fmt.Errorf("failed to rotate active prompt: %w", err)
	}

	content := prompt.Content
	notified, err := d.store.NotifyAllUsers(ctx, db.NotificationDailyPrompt, &content, &prompt.ID)
	if err != nil {
		metrics.RecordSchedulerRun(false)
		return prompt, fmt.Errorf("failed to notify users: %w", err)
	}

	metrics.RecordSchedulerRun(true)
	d.log.Info("daily prompt published",
		"prompt_id", prompt.ID,
		"outcome", outcome,
		"topic", generated.Topic,
		"notified", notified,
	)
	return prompt, nil
}

// cronLogger routes cron's own messages through the application logger.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
