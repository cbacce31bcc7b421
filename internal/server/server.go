// Package server provides the HTTP REST API for Sonder.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sonder-app/sonder-api/internal/config"
	"github.com/sonder-app/sonder-api/internal/logging"
	"github.com/sonder-app/sonder-api/internal/metrics"
	"github.com/sonder-app/sonder-api/internal/server/middleware"
	"github.com/sonder-app/sonder-api/internal/server/ratelimit"
)

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	store          Store
	generator      PromptGenerator
	rateLimiter    *ratelimit.Limiter
	authHandler    *AuthHandler
	requireAuth    func(http.Handler) http.Handler
	optionalAuth   func(http.Handler) http.Handler
	allowedOrigins []string
	log            logging.Logger
}

// Deps are the collaborators a Server is built from.
type Deps struct {
	Store     Store
	Generator PromptGenerator // nil disables POST /prompts/generate
	Logger    logging.Logger
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("component", "server")

	passwordConfig, err := config.NewPasswordConfig(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	userService, err := NewUserService(deps.Store, passwordConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	jwtConfig, err := config.NewJWTConfig(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	jwtService := NewJWTService(jwtConfig)

	s := &Server{
		store:          deps.Store,
		generator:      deps.Generator,
		rateLimiter:    ratelimit.NewLimiter(ratelimit.FromSettings(cfg.RateLimit)),
		authHandler:    NewAuthHandler(userService, jwtService, log),
		requireAuth:    middleware.AuthMiddleware(jwtService.AsTokenValidator()),
		optionalAuth:   middleware.OptionalAuth(jwtService.AsTokenValidator()),
		allowedOrigins: splitOrigins(cfg.Server.AllowedOrigins),
		log:            log,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return metrics.InstrumentHandler(s.withRateLimit(s.withLogging(s.withCORS(s.routes()))))
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	auth := func(h http.HandlerFunc) http.Handler { return s.requireAuth(h) }
	viewer := func(h http.HandlerFunc) http.Handler { return s.optionalAuth(h) }

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	// Authentication
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.HandleFunc("POST /auth/mobile-login", s.authHandler.MobileLogin)
	mux.Handle("POST /auth/refresh", auth(s.authHandler.Refresh))
	mux.Handle("GET /auth/me", auth(s.authHandler.Me))
	mux.Handle("PUT /auth/password", auth(s.authHandler.UpdatePassword))

	// Users
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.Handle("PUT /users/{id}", auth(s.handleUpdateUser))
	mux.Handle("DELETE /users/{id}", auth(s.handleDeleteUser))
	mux.Handle("GET /users/{id}/responses", viewer(s.handleListUserResponses))
	mux.HandleFunc("GET /users/{id}/comments", s.handleListUserComments)

	// Prompts
	mux.Handle("POST /prompts", auth(s.handleCreatePrompt))
	mux.Handle("POST /prompts/generate", auth(s.handleGeneratePrompt))
	mux.HandleFunc("GET /prompts", s.handleListPrompts)
	mux.HandleFunc("GET /prompts/active", s.handleGetActivePrompt)
	mux.HandleFunc("GET /prompts/{id}", s.handleGetPrompt)
	mux.Handle("PUT /prompts/{id}/activate", auth(s.handleActivatePrompt))
	mux.Handle("PUT /prompts/{id}/deactivate", auth(s.handleDeactivatePrompt))
	mux.Handle("DELETE /prompts/{id}", auth(s.handleDeletePrompt))
	mux.Handle("GET /prompts/{id}/responses", viewer(s.handleListPromptResponses))

	// Responses
	mux.Handle("POST /responses", auth(s.handleCreateResponse))
	mux.Handle("PUT /responses/{prompt_id}", auth(s.handleUpdateResponse))
	mux.Handle("DELETE /responses/{id}", auth(s.handleDeleteResponse))
	mux.HandleFunc("GET /responses/{id}/comments", s.handleListResponseComments)

	// Comments
	mux.Handle("POST /comments", auth(s.handleCreateComment))

	// Notifications
	mux.Handle("GET /notifications", auth(s.handleListNotifications))
	mux.Handle("PUT /notifications/read-all", auth(s.handleMarkAllNotificationsRead))
	mux.Handle("PUT /notifications/{id}/read", auth(s.handleMarkNotificationRead))

	return mux
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// Close stops background work without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.corsOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsOrigin(origin string) string {
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			metrics.RecordRateLimited(info.Endpoint)
			s.rateLimitResponse(w, clientID, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging. It must not replace the request, the
// metrics middleware reads the matched pattern from it.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("health check failed", "error", err)
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	jsonResponse(s.log, w, status, data)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, resource string) {
	serviceError(s.log, w, r, err, resource)
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; forwarded headers are not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, clientID string, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := max(int(info.RetryAfter.Round(time.Second).Seconds()), 1)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.log.Warn("rate limit exceeded", "client", clientID, "endpoint", info.Endpoint, "limit", info.Limit)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

func splitOrigins(list string) []string {
	var out []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
