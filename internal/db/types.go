package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize to JSON
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserUpdate holds the profile fields that may change. Nil means unchanged.
type UserUpdate struct {
	Username *string
	Email    *string
}

// Prompt sources
const (
	PromptSourceManual    = "manual"
	PromptSourceGenerated = "generated"
)

// Prompt is a daily question
type Prompt struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Content      string     `json:"content" db:"content"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty" db:"scheduled_for"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	Source       string     `json:"source" db:"source"`
	Outcome      *string    `json:"outcome,omitempty" db:"outcome"` // normalizer outcome for generated prompts
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// PromptInput describes a prompt to insert
type PromptInput struct {
	Content      string
	ScheduledFor *time.Time
	IsActive     bool
	Source       string
	Outcome      *string
}

// Response is a user's answer to a prompt
type Response struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	PromptID  uuid.UUID `json:"prompt_id" db:"prompt_id"`
	Content   string    `json:"content" db:"content"`
	Image     *string   `json:"image,omitempty" db:"image"`
	Anonymous bool      `json:"anonymous" db:"anonymous"`
	Likes     int       `json:"likes" db:"likes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ResponseInput describes a response to insert
type ResponseInput struct {
	UserID    uuid.UUID
	PromptID  uuid.UUID
	Content   string
	Image     *string
	Anonymous bool
}

// ResponseUpdate holds the response fields that may change. Nil means unchanged.
type ResponseUpdate struct {
	Content   *string
	Image     *string
	Anonymous *bool
}

// Empty reports whether the update changes nothing.
func (u ResponseUpdate) Empty() bool {
	return u.Content == nil && u.Image == nil && u.Anonymous == nil
}

// Comment is a reply to a response
type Comment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	ResponseID uuid.UUID `json:"response_id" db:"response_id"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Notification types
const (
	NotificationDailyPrompt = "daily_prompt"
	NotificationComment     = "comment"
	NotificationLike        = "like"
)

// Notification is an inbox entry for a user
type Notification struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Type       string     `json:"type" db:"type"`
	Content    *string    `json:"content,omitempty" db:"content"`
	IsRead     bool       `json:"is_read" db:"is_read"`
	PromptID   *uuid.UUID `json:"prompt_id,omitempty" db:"prompt_id"`
	ResponseID *uuid.UUID `json:"response_id,omitempty" db:"response_id"`
	CommentID  *uuid.UUID `json:"comment_id,omitempty" db:"comment_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// NotificationInput describes a notification to insert
type NotificationInput struct {
	UserID     uuid.UUID
	Type       string
	Content    *string
	PromptID   *uuid.UUID
	ResponseID *uuid.UUID
	CommentID  *uuid.UUID
}

// DefaultListLimit and MaxListLimit bound list queries.
const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// ListOptions paginates list queries
type ListOptions struct {
	Offset uint64
	Limit  uint64
}

// normalized applies the default and maximum limit.
func (o ListOptions) normalized() ListOptions {
	if o.Limit == 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	return o
}
