package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/logging"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response
func jsonResponse(log logging.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("error encoding JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func errorResponse(log logging.Logger, w http.ResponseWriter, status int, message string) {
	jsonResponse(log, w, status, map[string]string{"error": message})
}

// serviceError maps err onto a status and a client-safe message.
func serviceError(log logging.Logger, w http.ResponseWriter, r *http.Request, err error, resource string) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	errorResponse(log, w, status, publicMessage(err, resource))
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return &ErrValidation{Message: "invalid request body"}
	}
	return nil
}

// validationError converts validator errors into an ErrValidation.
func validationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		// Report the first failure only
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Message: "invalid request"}
}

// pathID parses the {name} path wildcard as a UUID.
func pathID(r *http.Request, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: name, Message: fmt.Sprintf("invalid %s id", resource)}
	}
	return id, nil
}

// listOptions reads the skip and limit query parameters.
func listOptions(r *http.Request) (db.ListOptions, error) {
	var opts db.ListOptions
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, &ErrValidation{Field: "skip", Message: "must be a non-negative integer"}
		}
		opts.Offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, &ErrValidation{Field: "limit", Message: "must be a non-negative integer"}
		}
		opts.Limit = n
	}
	return opts, nil
}
