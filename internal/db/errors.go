package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row, or a row it references, does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when another prompt is already active.
	ErrConflict = errors.New("conflict")
	// ErrInvalid is returned on a check constraint violation.
	ErrInvalid = errors.New("invalid value")
)

// activePromptConstraint is the partial unique index allowing one active prompt.
const activePromptConstraint = "prompts_single_active"

// mapError converts pgx/pgconn errors to package errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped, they pass through.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if pgErr.ConstraintName == activePromptConstraint {
				return fmt.Errorf("%s: another prompt is active: %w", op, ErrConflict)
			}
			return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s: %w", op, ErrInvalid)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
