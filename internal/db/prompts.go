package db

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var promptColumns = []string{"id", "content", "scheduled_for", "is_active", "source", "outcome", "created_at"}

// CreatePrompt inserts a prompt. Returns ErrConflict when in.IsActive is set
// and another prompt is already active.
func (db *DB) CreatePrompt(ctx context.Context, in PromptInput) (*Prompt, error) {
	return insertPrompt(ctx, db.pool, in, "create prompt")
}

func insertPrompt(ctx context.Context, q querier, in PromptInput, op string) (*Prompt, error) {
	source := in.Source
	if source == "" {
		source = PromptSourceManual
	}

	query, args, err := psql.Insert("prompts").
		Columns("content", "scheduled_for", "is_active", "source", "outcome").
		Values(in.Content, in.ScheduledFor, in.IsActive, source, in.Outcome).
		Suffix(returning(promptColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	var prompt Prompt
	if err := pgxscan.Get(ctx, q, &prompt, query, args...); err != nil {
		return nil, mapError(err, op)
	}
	return &prompt, nil
}

// GetPrompt retrieves a prompt by ID.
func (db *DB) GetPrompt(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	query, args, err := psql.Select(promptColumns...).
		From("prompts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var prompt Prompt
	if err := pgxscan.Get(ctx, db.pool, &prompt, query, args...); err != nil {
		return nil, mapError(err, "get prompt")
	}
	return &prompt, nil
}

// ListPrompts returns prompts newest first.
func (db *DB) ListPrompts(ctx context.Context, opts ListOptions) ([]Prompt, error) {
	opts = opts.normalized()
	query, args, err := psql.Select(promptColumns...).
		From("prompts").
		OrderBy("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	prompts := []Prompt{}
	if err := pgxscan.Select(ctx, db.pool, &prompts, query, args...); err != nil {
		return nil, mapError(err, "list prompts")
	}
	return prompts, nil
}

// GetActivePrompt returns the active prompt, or ErrNotFound when none is.
func (db *DB) GetActivePrompt(ctx context.Context) (*Prompt, error) {
	query, args, err := psql.Select(promptColumns...).
		From("prompts").
		Where(squirrel.Eq{"is_active": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var prompt Prompt
	if err := pgxscan.Get(ctx, db.pool, &prompt, query, args...); err != nil {
		return nil, mapError(err, "get active prompt")
	}
	return &prompt, nil
}

// ActivatePrompt marks a prompt active. Returns ErrConflict when a different
// prompt is already active; activating the active prompt is a no-op.
func (db *DB) ActivatePrompt(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	return db.setPromptActive(ctx, id, true, "activate prompt")
}

// DeactivatePrompt clears a prompt's active flag.
func (db *DB) DeactivatePrompt(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	return db.setPromptActive(ctx, id, false, "deactivate prompt")
}

func (db *DB) setPromptActive(ctx context.Context, id uuid.UUID, active bool, op string) (*Prompt, error) {
	query, args, err := psql.Update("prompts").
		Set("is_active", active).
		Where(squirrel.Eq{"id": id}).
		Suffix(returning(promptColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}

	var prompt Prompt
	if err := pgxscan.Get(ctx, db.pool, &prompt, query, args...); err != nil {
		return nil, mapError(err, op)
	}
	return &prompt, nil
}

// DeletePrompt removes a prompt and its responses.
func (db *DB) DeletePrompt(ctx context.Context, id uuid.UUID) error {
	return db.deleteByID(ctx, "prompts", id, "delete prompt")
}

// rotateLockKey names the advisory lock that serializes rotations.
const rotateLockKey int64 = 0x736f6e646572

// RotateActivePrompt deactivates every prompt and inserts in as the new
// active prompt in one transaction. Concurrent rotations wait on a
// transaction-scoped advisory lock.
func (db *DB) RotateActivePrompt(ctx context.Context, in PromptInput) (*Prompt, error) {
	in.IsActive = true

	var prompt *Prompt
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", rotateLockKey); err != nil {
			return mapError(err, "rotate prompt")
		}

		query, args, err := psql.Update("prompts").
			Set("is_active", false).
			Where(squirrel.Eq{"is_active": true}).
			ToSql()
		if err != nil {
			return fmt.Errorf("building update query: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return mapError(err, "rotate prompt")
		}

		prompt, err = insertPrompt(ctx, tx, in, "rotate prompt")
		return err
	})
	if err != nil {
		return nil, err
	}
	return prompt, nil
}
