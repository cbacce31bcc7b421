package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
)

var userColumns = []string{"id", "username", "email", "password_hash", "created_at", "updated_at"}

// returning renders a RETURNING clause for cols.
func returning(cols []string) string {
	return "RETURNING " + strings.Join(cols, ", ")
}

// CreateUser inserts a new user and returns the stored row.
// Returns ErrAlreadyExists when the username or email is taken.
func (db *DB) CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error) {
	query, args, err := psql.Insert("users").
		Columns("username", "email", "password_hash").
		Values(username, email, passwordHash).
		Suffix(returning(userColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	var user User
	if err := pgxscan.Get(ctx, db.pool, &user, query, args...); err != nil {
		return nil, mapError(err, "create user")
	}
	return &user, nil
}

// GetUser retrieves a user by ID.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var user User
	if err := pgxscan.Get(ctx, db.pool, &user, query, args...); err != nil {
		return nil, mapError(err, "get user")
	}
	return &user, nil
}

// GetUserByLogin retrieves a user whose username or email matches login,
// ignoring case.
func (db *DB) GetUserByLogin(ctx context.Context, login string) (*User, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(squirrel.Or{
			squirrel.Expr("lower(username) = lower(?)", login),
			squirrel.Expr("lower(email) = lower(?)", login),
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var user User
	if err := pgxscan.Get(ctx, db.pool, &user, query, args...); err != nil {
		return nil, mapError(err, "get user by login")
	}
	return &user, nil
}

// ListUsers returns users ordered by creation time, oldest first.
func (db *DB) ListUsers(ctx context.Context, opts ListOptions) ([]User, error) {
	opts = opts.normalized()
	query, args, err := psql.Select(userColumns...).
		From("users").
		OrderBy("created_at ASC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	users := []User{}
	if err := pgxscan.Select(ctx, db.pool, &users, query, args...); err != nil {
		return nil, mapError(err, "list users")
	}
	return users, nil
}

// UpdateUser applies the non-nil fields of update and returns the stored row.
func (db *DB) UpdateUser(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error) {
	if update.Username == nil && update.Email == nil {
		return db.GetUser(ctx, id)
	}

	qb := psql.Update("users").Set("updated_at", squirrel.Expr("now()"))
	if update.Username != nil {
		qb = qb.Set("username", *update.Username)
	}
	if update.Email != nil {
		qb = qb.Set("email", *update.Email)
	}
	query, args, err := qb.Where(squirrel.Eq{"id": id}).
		Suffix(returning(userColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}

	var user User
	if err := pgxscan.Get(ctx, db.pool, &user, query, args...); err != nil {
		return nil, mapError(err, "update user")
	}
	return &user, nil
}

// UpdatePassword replaces a user's password hash.
func (db *DB) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query, args, err := psql.Update("users").
		Set("password_hash", passwordHash).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	tag, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, "update password")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update password: %w", ErrNotFound)
	}
	return nil
}

// DeleteUser removes a user and, by cascade, everything they wrote.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return db.deleteByID(ctx, "users", id, "delete user")
}

// deleteByID removes one row from table, returning ErrNotFound when absent.
func (db *DB) deleteByID(ctx context.Context, table string, id uuid.UUID, op string) error {
	query, args, err := psql.Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete query: %w", err)
	}

	tag, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, op)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
