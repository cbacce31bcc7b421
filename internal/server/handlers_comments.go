package server

import (
	"net/http"
	"strings"

	"github.com/sonder-app/sonder-api/internal/server/middleware"
	"github.com/sonder-app/sonder-api/internal/types"
)

// handleCreateComment stores a comment and notifies the response owner.
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(s.log, w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	var req types.CreateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, "comment")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := req.Validate(); err != nil {
		s.fail(w, r, validationError(err), "comment")
		return
	}

	comment, err := s.store.CreateComment(r.Context(), userID, req.ResponseID, req.Content)
	if err != nil {
		// The only reference that can be missing is the response.
		s.fail(w, r, err, "response")
		return
	}

	s.jsonResponse(w, http.StatusCreated, comment)
}
