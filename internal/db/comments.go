package db

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var commentColumns = []string{"id", "user_id", "response_id", "content", "created_at"}

// notifyResponseOwnerSQL notifies the owner of a response about a comment,
// unless the owner wrote the comment.
const notifyResponseOwnerSQL = `INSERT INTO notifications (user_id, type, content, response_id, comment_id) SELECT user_id, $1, $2, id, $3 FROM responses WHERE id = $4 AND user_id <> $5`

// CreateComment inserts a comment and notifies the response owner in the same
// transaction. Returns ErrNotFound when the response does not exist.
func (db *DB) CreateComment(ctx context.Context, userID, responseID uuid.UUID, content string) (*Comment, error) {
	query, args, err := psql.Insert("comments").
		Columns("user_id", "response_id", "content").
		Values(userID, responseID, content).
		Suffix(returning(commentColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	var comment Comment
	err = db.withTx(ctx, func(tx pgx.Tx) error {
		if err := pgxscan.Get(ctx, tx, &comment, query, args...); err != nil {
			return mapError(err, "create comment")
		}
		if _, err := tx.Exec(ctx, notifyResponseOwnerSQL,
			NotificationComment, content, comment.ID, responseID, userID); err != nil {
			return mapError(err, "notify response owner")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListCommentsByResponse returns the comments on a response oldest first.
func (db *DB) ListCommentsByResponse(ctx context.Context, responseID uuid.UUID, opts ListOptions) ([]Comment, error) {
	return db.listComments(ctx, squirrel.Eq{"response_id": responseID}, "created_at ASC", opts, "list comments by response")
}

// ListCommentsByUser returns a user's comments newest first.
func (db *DB) ListCommentsByUser(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Comment, error) {
	return db.listComments(ctx, squirrel.Eq{"user_id": userID}, "created_at DESC", opts, "list comments by user")
}

func (db *DB) listComments(ctx context.Context, where squirrel.Eq, order string, opts ListOptions, op string) ([]Comment, error) {
	opts = opts.normalized()
	query, args, err := psql.Select(commentColumns...).
		From("comments").
		Where(where).
		OrderBy(order).
		Limit(opts.Limit).
		Offset(opts.Offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	comments := []Comment{}
	if err := pgxscan.Select(ctx, db.pool, &comments, query, args...); err != nil {
		return nil, mapError(err, op)
	}
	return comments, nil
}
