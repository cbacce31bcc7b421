package server

import (
	"net/http"
	"strconv"

	"github.com/sonder-app/sonder-api/internal/server/middleware"
	"github.com/sonder-app/sonder-api/internal/types"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(s.log, w, http.StatusUnauthorized, "could not validate credentials")
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		s.fail(w, r, err, "notification")
		return
	}

	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		unreadOnly, err = strconv.ParseBool(v)
		if err != nil {
			s.fail(w, r, &ErrValidation{Field: "unread", Message: "must be a boolean"}, "notification")
			return
		}
	}

	notifications, err := s.store.ListNotifications(r.Context(), userID, unreadOnly, opts)
	if err != nil {
		s.fail(w, r, err, "notification")
		return
	}

	s.jsonResponse(w, http.StatusOK, notifications)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(s.log, w, http.StatusUnauthorized, "could not validate credentials")
		return
	}
	notificationID, err := pathID(r, "id", "notification")
	if err != nil {
		s.fail(w, r, err, "notification")
		return
	}

	notification, err := s.store.MarkNotificationRead(r.Context(), userID, notificationID)
	if err != nil {
		s.fail(w, r, err, "notification")
		return
	}

	s.jsonResponse(w, http.StatusOK, notification)
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(s.log, w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	n, err := s.store.MarkAllNotificationsRead(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err, "notification")
		return
	}

	s.jsonResponse(w, http.StatusOK, types.CountResponse{Count: n})
}
