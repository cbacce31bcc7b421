package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/server/middleware"
	"github.com/sonder-app/sonder-api/internal/types"
)

// ---------------------------------------------------------------------
// Response Handlers
// ---------------------------------------------------------------------

func (s *Server) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(s.log, w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	var req types.CreateResponseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, "response")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := req.Validate(); err != nil {
		s.fail(w, r, validationError(err), "response")
		return
	}

	response, err := s.store.CreateResponse(r.Context(), db.ResponseInput{
		UserID:    userID,
		PromptID:  req.PromptID,
		Content:   req.Content,
		Image:     emptyToNil(req.Image),
		Anonymous: req.Anonymous,
	})
	if err != nil {
		switch {
		case errors.Is(err, db.ErrAlreadyExists):
			s.fail(w, r, err, "response to this prompt")
		case errors.Is(err, db.ErrNotFound):
			s.fail(w, r, err, "prompt")
		default:
			s.fail(w, r, err, "response")
		}
		return
	}

	s.jsonResponse(w, http.StatusCreated, presentResponse(response, userID))
}

// handleUpdateResponse changes the caller's response to {prompt_id}.
func (s *Server) handleUpdateResponse(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(s.log, w, http.StatusUnauthorized, "could not validate credentials")
		return
	}
	promptID, err := pathID(r, "prompt_id", "prompt")
	if err != nil {
		s.fail(w, r, err, "response")
		return
	}

	var req types.UpdateResponseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, "response")
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, validationError(err), "response")
		return
	}

	update := db.ResponseUpdate{Content: req.Content, Image: req.Image, Anonymous: req.Anonymous}
	if update.Empty() {
		s.fail(w, r, &ErrValidation{Message: "at least one field (content, image, anonymous) must be provided"}, "response")
		return
	}

	response, err := s.store.UpdateResponse(r.Context(), userID, promptID, update)
	if err != nil {
		s.fail(w, r, err, "response")
		return
	}

	s.jsonResponse(w, http.StatusOK, presentResponse(response, userID))
}

func (s *Server) handleDeleteResponse(w http.ResponseWriter, r *http.Request) {
	responseID, err := pathID(r, "id", "response")
	if err != nil {
		s.fail(w, r, err, "response")
		return
	}

	response, err := s.store.GetResponse(r.Context(), responseID)
	if err != nil {
		s.fail(w, r, err, "response")
		return
	}
	if response.UserID != callerID(r) {
		s.fail(w, r, &ErrForbidden{Resource: "response"}, "response")
		return
	}

	if err := s.store.DeleteResponse(r.Context(), responseID); err != nil {
		s.fail(w, r, err, "response")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Deleted Response"})
}

func (s *Server) handleListResponseComments(w http.ResponseWriter, r *http.Request) {
	responseID, err := pathID(r, "id", "response")
	if err != nil {
		s.fail(w, r, err, "response")
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		s.fail(w, r, err, "comment")
		return
	}

	if _, err := s.store.GetResponse(r.Context(), responseID); err != nil {
		s.fail(w, r, err, "response")
		return
	}

	comments, err := s.store.ListCommentsByResponse(r.Context(), responseID, opts)
	if err != nil {
		s.fail(w, r, err, "comment")
		return
	}

	s.jsonResponse(w, http.StatusOK, comments)
}

// presentResponse hides the author of an anonymous response from everyone
// but the author.
func presentResponse(resp *db.Response, viewer uuid.UUID) types.Response {
	out := types.Response{
		ID:        resp.ID,
		PromptID:  resp.PromptID,
		Content:   resp.Content,
		Image:     resp.Image,
		Anonymous: resp.Anonymous,
		Likes:     resp.Likes,
		CreatedAt: resp.CreatedAt,
		UpdatedAt: resp.UpdatedAt,
	}
	if !resp.Anonymous || resp.UserID == viewer {
		userID := resp.UserID
		out.UserID = &userID
	}
	return out
}

func presentResponses(responses []db.Response, viewer uuid.UUID) []types.Response {
	out := make([]types.Response, 0, len(responses))
	for i := range responses {
		out = append(out, presentResponse(&responses[i], viewer))
	}
	return out
}

func withoutAnonymous(responses []db.Response) []db.Response {
	out := responses[:0:0]
	for _, resp := range responses {
		if !resp.Anonymous {
			out = append(out, resp)
		}
	}
	return out
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
