package db

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
)

var responseColumns = []string{
	"id", "user_id", "prompt_id", "content", "image", "anonymous", "likes", "created_at", "updated_at",
}

// CreateResponse inserts a response. Returns ErrAlreadyExists when the user
// already answered the prompt and ErrNotFound when the user or prompt is
// missing.
func (db *DB) CreateResponse(ctx context.Context, in ResponseInput) (*Response, error) {
	query, args, err := psql.Insert("responses").
		Columns("user_id", "prompt_id", "content", "image", "anonymous").
		Values(in.UserID, in.PromptID, in.Content, in.Image, in.Anonymous).
		Suffix(returning(responseColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	var response Response
	if err := pgxscan.Get(ctx, db.pool, &response, query, args...); err != nil {
		return nil, mapError(err, "create response")
	}
	return &response, nil
}

// GetResponse retrieves a response by ID.
func (db *DB) GetResponse(ctx context.Context, id uuid.UUID) (*Response, error) {
	query, args, err := psql.Select(responseColumns...).
		From("responses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var response Response
	if err := pgxscan.Get(ctx, db.pool, &response, query, args...); err != nil {
		return nil, mapError(err, "get response")
	}
	return &response, nil
}

// ListResponsesByUser returns a user's responses newest first.
func (db *DB) ListResponsesByUser(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Response, error) {
	return db.listResponses(ctx, squirrel.Eq{"user_id": userID}, opts, "list responses by user")
}

// ListResponsesByPrompt returns the responses to a prompt newest first.
func (db *DB) ListResponsesByPrompt(ctx context.Context, promptID uuid.UUID, opts ListOptions) ([]Response, error) {
	return db.listResponses(ctx, squirrel.Eq{"prompt_id": promptID}, opts, "list responses by prompt")
}

func (db *DB) listResponses(ctx context.Context, where squirrel.Eq, opts ListOptions, op string) ([]Response, error) {
	opts = opts.normalized()
	query, args, err := psql.Select(responseColumns...).
		From("responses").
		Where(where).
		OrderBy("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	responses := []Response{}
	if err := pgxscan.Select(ctx, db.pool, &responses, query, args...); err != nil {
		return nil, mapError(err, op)
	}
	return responses, nil
}

// UpdateResponse applies the non-nil fields of update to the user's response
// for a prompt.
func (db *DB) UpdateResponse(ctx context.Context, userID, promptID uuid.UUID, update ResponseUpdate) (*Response, error) {
	if update.Empty() {
		return nil, fmt.Errorf("update response: no fields to update: %w", ErrInvalid)
	}

	qb := psql.Update("responses").Set("updated_at", squirrel.Expr("now()"))
	if update.Content != nil {
		qb = qb.Set("content", *update.Content)
	}
	if update.Image != nil {
		qb = qb.Set("image", *update.Image)
	}
	if update.Anonymous != nil {
		qb = qb.Set("anonymous", *update.Anonymous)
	}
	query, args, err := qb.
		Where(squirrel.Eq{"user_id": userID, "prompt_id": promptID}).
		Suffix(returning(responseColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}

	var response Response
	if err := pgxscan.Get(ctx, db.pool, &response, query, args...); err != nil {
		return nil, mapError(err, "update response")
	}
	return &response, nil
}

// DeleteResponse removes a response and its comments.
func (db *DB) DeleteResponse(ctx context.Context, id uuid.UUID) error {
	return db.deleteByID(ctx, "responses", id, "delete response")
}
