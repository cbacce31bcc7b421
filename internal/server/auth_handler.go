package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/logging"
	"github.com/sonder-app/sonder-api/internal/server/middleware"
	"github.com/sonder-app/sonder-api/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	log         logging.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, log logging.Logger) *AuthHandler {
	if log == nil {
		log = logging.Discard()
	}
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		log:         log,
	}
}

// Register handles user registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(h.log, w, r, err, "user")
		return
	}
	if err := req.Validate(); err != nil {
		serviceError(h.log, w, r, validationError(err), "user")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		serviceError(h.log, w, r, err, "user")
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		serviceError(h.log, w, r, err, "token")
		return
	}

	h.log.Info("user registered", "user_id", user.ID)
	jsonResponse(h.log, w, http.StatusCreated, types.RegisterResponse{User: user, Token: token})
}

// Login handles user login requests. It accepts a JSON body or an
// OAuth2-style password form with username and password fields.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := readLogin(w, r)
	if err != nil {
		serviceError(h.log, w, r, err, "user")
		return
	}

	user, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.loginFailed(w, r, err)
		return
	}

	token, err := h.tokenResponse(user)
	if err != nil {
		serviceError(h.log, w, r, err, "token")
		return
	}
	jsonResponse(h.log, w, http.StatusOK, token)
}

// MobileLogin is Login for mobile clients: the profile is returned with the token.
func (h *AuthHandler) MobileLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(h.log, w, r, err, "user")
		return
	}
	if err := req.Validate(); err != nil {
		serviceError(h.log, w, r, validationError(err), "user")
		return
	}

	user, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.loginFailed(w, r, err)
		return
	}

	token, err := h.tokenResponse(user)
	if err != nil {
		serviceError(h.log, w, r, err, "token")
		return
	}
	jsonResponse(h.log, w, http.StatusOK, types.TokenWithUserResponse{TokenResponse: token, User: user})
}

// Refresh issues a fresh token for the authenticated user.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	token, err := h.tokenResponse(user)
	if err != nil {
		serviceError(h.log, w, r, err, "token")
		return
	}
	jsonResponse(h.log, w, http.StatusOK, token)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	jsonResponse(h.log, w, http.StatusOK, user)
}

// UpdatePassword changes the authenticated user's password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(h.log, w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	var req types.UpdatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(h.log, w, r, err, "user")
		return
	}
	if err := req.Validate(); err != nil {
		serviceError(h.log, w, r, validationError(err), "user")
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		serviceError(h.log, w, r, err, "user")
		return
	}

	jsonResponse(h.log, w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// currentUser loads the user named by the token. A token for a deleted user
// is treated as invalid.
func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) (*types.User, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(h.log, w, http.StatusUnauthorized, "could not validate credentials")
		return nil, false
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			errorResponse(h.log, w, http.StatusUnauthorized, "could not validate credentials")
			return nil, false
		}
		serviceError(h.log, w, r, err, "user")
		return nil, false
	}
	return user, true
}

func (h *AuthHandler) tokenResponse(user *types.User) (types.TokenResponse, error) {
	token, err := h.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		return types.TokenResponse{}, err
	}
	return types.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.jwtService.TTL().Seconds()),
	}, nil
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, err error) {
	var creds *ErrInvalidCredentials
	if errors.As(err, &creds) {
		h.log.Warn("login failed", "remote", r.RemoteAddr)
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	serviceError(h.log, w, r, err, "user")
}

// readLogin decodes a login from JSON or an urlencoded form.
func readLogin(w http.ResponseWriter, r *http.Request) (*types.LoginRequest, error) {
	req := &types.LoginRequest{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return nil, &ErrValidation{Message: "invalid form body"}
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(w, r, req); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	return req, nil
}
