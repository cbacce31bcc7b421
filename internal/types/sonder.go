package types

import (
	"time"

	"github.com/google/uuid"
)

// CreatePromptRequest stores a prompt as given.
type CreatePromptRequest struct {
	Content      string     `json:"content" validate:"required,max=500"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	IsActive     bool       `json:"is_active"`
}

// GeneratePromptRequest asks for one generation round. Activate rotates the
// new prompt in as the active one.
type GeneratePromptRequest struct {
	Activate bool `json:"activate"`
}

// CreateResponseRequest answers a prompt.
type CreateResponseRequest struct {
	PromptID  uuid.UUID `json:"prompt_id" validate:"required"`
	Content   string    `json:"content" validate:"required,max=5000"`
	Image     *string   `json:"image" validate:"omitempty,max=2048"`
	Anonymous bool      `json:"anonymous"`
}

// UpdateResponseRequest changes the caller's response. At least one field
// must be present.
type UpdateResponseRequest struct {
	Content   *string `json:"content" validate:"omitempty,min=1,max=5000"`
	Image     *string `json:"image" validate:"omitempty,max=2048"`
	Anonymous *bool   `json:"anonymous"`
}

// Response is a prompt answer as returned by the API. UserID is omitted for
// anonymous responses unless the caller wrote them.
type Response struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	PromptID  uuid.UUID  `json:"prompt_id"`
	Content   string     `json:"content"`
	Image     *string    `json:"image,omitempty"`
	Anonymous bool       `json:"anonymous"`
	Likes     int        `json:"likes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CreateCommentRequest replies to a response.
type CreateCommentRequest struct {
	ResponseID uuid.UUID `json:"response_id" validate:"required"`
	Content    string    `json:"content" validate:"required,max=2000"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Count int64 `json:"count"`
}

// Validate validates the CreatePromptRequest using the validator.
func (r *CreatePromptRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the CreateResponseRequest using the validator.
func (r *CreateResponseRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the UpdateResponseRequest using the validator.
func (r *UpdateResponseRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the CreateCommentRequest using the validator.
func (r *CreateCommentRequest) Validate() error {
	return validate.Struct(r)
}
