package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/server/middleware"
	"github.com/sonder-app/sonder-api/internal/types"
)

// ---------------------------------------------------------------------
// User Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		s.fail(w, r, err, "user")
		return
	}

	users, err := s.store.ListUsers(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err, "user")
		return
	}

	out := make([]*types.User, 0, len(users))
	for i := range users {
		out = append(out, toAPIUser(&users[i]))
	}
	s.jsonResponse(w, http.StatusOK, out)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id", "user")
	if err != nil {
		s.fail(w, r, err, "user")
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err, "user")
		return
	}

	s.jsonResponse(w, http.StatusOK, toAPIUser(user))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.selfOnly(w, r)
	if !ok {
		return
	}

	var req types.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, "user")
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(w, r, validationError(err), "user")
		return
	}

	user, err := s.store.UpdateUser(r.Context(), userID, db.UserUpdate{Username: req.Username, Email: req.Email})
	if err != nil {
		s.fail(w, r, err, "user")
		return
	}

	s.jsonResponse(w, http.StatusOK, toAPIUser(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.selfOnly(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteUser(r.Context(), userID); err != nil {
		s.fail(w, r, err, "user")
		return
	}

	s.log.Info("user deleted", "user_id", userID)
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Deleted User"})
}

func (s *Server) handleListUserResponses(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id", "user")
	if err != nil {
		s.fail(w, r, err, "user")
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		s.fail(w, r, err, "response")
		return
	}

	responses, err := s.store.ListResponsesByUser(r.Context(), userID, opts)
	if err != nil {
		s.fail(w, r, err, "response")
		return
	}

	caller := callerID(r)
	if caller != userID {
		// Listing by author would reveal who wrote the anonymous ones.
		responses = withoutAnonymous(responses)
	}
	s.jsonResponse(w, http.StatusOK, presentResponses(responses, caller))
}

func (s *Server) handleListUserComments(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id", "user")
	if err != nil {
		s.fail(w, r, err, "user")
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		s.fail(w, r, err, "comment")
		return
	}

	if _, err := s.store.GetUser(r.Context(), userID); err != nil {
		s.fail(w, r, err, "user")
		return
	}

	comments, err := s.store.ListCommentsByUser(r.Context(), userID, opts)
	if err != nil {
		s.fail(w, r, err, "comment")
		return
	}

	s.jsonResponse(w, http.StatusOK, comments)
}

// selfOnly parses {id} and checks it names the authenticated user.
func (s *Server) selfOnly(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := pathID(r, "id", "user")
	if err != nil {
		s.fail(w, r, err, "user")
		return uuid.Nil, false
	}
	caller, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(s.log, w, http.StatusUnauthorized, "could not validate credentials")
		return uuid.Nil, false
	}
	if caller != userID {
		s.fail(w, r, &ErrForbidden{Resource: "user"}, "user")
		return uuid.Nil, false
	}
	return userID, true
}

// callerID is the authenticated user or uuid.Nil on public routes.
func callerID(r *http.Request) uuid.UUID {
	id, err := middleware.GetUserID(r)
	if err != nil {
		return uuid.Nil
	}
	return id
}
