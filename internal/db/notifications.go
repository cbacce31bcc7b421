package db

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
)

var notificationColumns = []string{
	"id", "user_id", "type", "content", "is_read", "prompt_id", "response_id", "comment_id", "created_at",
}

// fanOutSQL inserts one notification per user.
const fanOutSQL = `INSERT INTO notifications (user_id, type, content, prompt_id) SELECT id, $1, $2, $3 FROM users`

// CreateNotification inserts a single notification.
func (db *DB) CreateNotification(ctx context.Context, in NotificationInput) (*Notification, error) {
	query, args, err := psql.Insert("notifications").
		Columns("user_id", "type", "content", "prompt_id", "response_id", "comment_id").
		Values(in.UserID, in.Type, in.Content, in.PromptID, in.ResponseID, in.CommentID).
		Suffix(returning(notificationColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	var n Notification
	if err := pgxscan.Get(ctx, db.pool, &n, query, args...); err != nil {
		return nil, mapError(err, "create notification")
	}
	return &n, nil
}

// NotifyAllUsers inserts a notification of kind for every user and returns
// how many were written.
func (db *DB) NotifyAllUsers(ctx context.Context, kind string, content *string, promptID *uuid.UUID) (int64, error) {
	tag, err := db.pool.Exec(ctx, fanOutSQL, kind, content, promptID)
	if err != nil {
		return 0, mapError(err, "notify all users")
	}
	return tag.RowsAffected(), nil
}

// ListNotifications returns a user's notifications newest first.
func (db *DB) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, opts ListOptions) ([]Notification, error) {
	opts = opts.normalized()
	where := squirrel.Eq{"user_id": userID}
	if unreadOnly {
		where["is_read"] = false
	}

	query, args, err := psql.Select(notificationColumns...).
		From("notifications").
		Where(where).
		OrderBy("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	notifications := []Notification{}
	if err := pgxscan.Select(ctx, db.pool, &notifications, query, args...); err != nil {
		return nil, mapError(err, "list notifications")
	}
	return notifications, nil
}

// MarkNotificationRead marks one of the user's notifications read.
// Returns ErrNotFound when it does not exist or belongs to someone else.
func (db *DB) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) (*Notification, error) {
	query, args, err := psql.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		Suffix(returning(notificationColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}

	var n Notification
	if err := pgxscan.Get(ctx, db.pool, &n, query, args...); err != nil {
		return nil, mapError(err, "mark notification read")
	}
	return &n, nil
}

// MarkAllNotificationsRead marks every unread notification of the user read
// and returns how many changed.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	query, args, err := psql.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"user_id": userID, "is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building update query: %w", err)
	}

	tag, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "mark all notifications read")
	}
	return tag.RowsAffected(), nil
}
