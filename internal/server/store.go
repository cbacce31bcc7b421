package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/promptgen"
)

// Store is the persistence the API needs. *db.DB implements it.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, username, email, passwordHash string) (*db.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByLogin(ctx context.Context, login string) (*db.User, error)
	ListUsers(ctx context.Context, opts db.ListOptions) ([]db.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, update db.UserUpdate) (*db.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	CreatePrompt(ctx context.Context, in db.PromptInput) (*db.Prompt, error)
	GetPrompt(ctx context.Context, id uuid.UUID) (*db.Prompt, error)
	ListPrompts(ctx context.Context, opts db.ListOptions) ([]db.Prompt, error)
	GetActivePrompt(ctx context.Context) (*db.Prompt, error)
	ActivatePrompt(ctx context.Context, id uuid.UUID) (*db.Prompt, error)
	DeactivatePrompt(ctx context.Context, id uuid.UUID) (*db.Prompt, error)
	DeletePrompt(ctx context.Context, id uuid.UUID) error
	RotateActivePrompt(ctx context.Context, in db.PromptInput) (*db.Prompt, error)

	CreateResponse(ctx context.Context, in db.ResponseInput) (*db.Response, error)
	GetResponse(ctx context.Context, id uuid.UUID) (*db.Response, error)
	ListResponsesByUser(ctx context.Context, userID uuid.UUID, opts db.ListOptions) ([]db.Response, error)
	ListResponsesByPrompt(ctx context.Context, promptID uuid.UUID, opts db.ListOptions) ([]db.Response, error)
	UpdateResponse(ctx context.Context, userID, promptID uuid.UUID, update db.ResponseUpdate) (*db.Response, error)
	DeleteResponse(ctx context.Context, id uuid.UUID) error

	CreateComment(ctx context.Context, userID, responseID uuid.UUID, content string) (*db.Comment, error)
	ListCommentsByResponse(ctx context.Context, responseID uuid.UUID, opts db.ListOptions) ([]db.Comment, error)
	ListCommentsByUser(ctx context.Context, userID uuid.UUID, opts db.ListOptions) ([]db.Comment, error)

	NotifyAllUsers(ctx context.Context, kind string, content *string, promptID *uuid.UUID) (int64, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, opts db.ListOptions) ([]db.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) (*db.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

var _ Store = (*db.DB)(nil)

// PromptGenerator produces one normalized question per call.
// *promptgen.Generator implements it.
type PromptGenerator interface {
	Generate(ctx context.Context) promptgen.Generated
}

var _ PromptGenerator = (*promptgen.Generator)(nil)
