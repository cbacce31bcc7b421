package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonder-app/sonder-api/internal/config"
	"github.com/sonder-app/sonder-api/internal/promptgen"
	"github.com/sonder-app/sonder-api/internal/types"
)

const testSecret = "test-secret-key-for-handlers-0123456789"

type fakeGenerator struct {
	out   promptgen.Generated
	calls int
}

func (g *fakeGenerator) Generate(context.Context) promptgen.Generated {
	g.calls++
	return g.out
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   5 * time.Second,
			IdleTimeout:    5 * time.Second,
			AllowedOrigins: "*",
		},
		Auth: config.AuthConfig{
			JWTSecret:      testSecret,
			JWTIssuer:      "sonder",
			AccessTokenTTL: 30 * time.Minute,
			BcryptCost:     10,
		},
	}
}

type testServer struct {
	handler http.Handler
	store   *memStore
	gen     *fakeGenerator
}

func newTestServer(t *testing.T, mutate ...func(*config.Config, *Deps)) *testServer {
	t.Helper()
	store := newMemStore()
	gen := &fakeGenerator{out: promptgen.Generated{
		Text:    "What small moment made you smile today?",
		Outcome: promptgen.OutcomeCleaned,
		Topic:   "memories",
	}}

	cfg := testConfig()
	deps := Deps{Store: store, Generator: gen}
	for _, m := range mutate {
		m(cfg, &deps)
	}

	s, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return &testServer{handler: s.Handler(), store: store, gen: gen}
}

// do sends body as JSON unless it is already a string.
func (ts *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its id and token.
func (ts *testServer) register(t *testing.T, username string) (uuid.UUID, string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp types.RegisterResponse
	decode(t, rec, &resp)
	return resp.User.ID, resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rec, &body)
	return body["error"]
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(testConfig(), Deps{})
	assert.ErrorContains(t, err, "store is required")
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"
	_, err := New(cfg, Deps{Store: newMemStore()})
	assert.ErrorContains(t, err, "JWT config")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	ts.store.pingErr = errors.New("connection refused")
	rec = ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/health", nil, "")

	rec := ts.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/health"`)
}

func TestCORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		ts := newTestServer(t)
		req := httptest.NewRequest(http.MethodOptions, "/prompts", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("allow list", func(t *testing.T) {
		ts := newTestServer(t, func(cfg *config.Config, _ *Deps) {
			cfg.Server.AllowedOrigins = "https://app.example.com, https://admin.example.com"
		})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://admin.example.com")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))

		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec = httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config, _ *Deps) {
		cfg.RateLimit = config.RateLimitConfig{
			Enabled:       true,
			DefaultLimit:  1000,
			DefaultWindow: time.Minute,
		}
	})

	// Register allows a burst of two.
	for range 2 {
		rec := ts.do(t, http.MethodPost, "/auth/register", "{}", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := ts.do(t, http.MethodPost, "/auth/register", "{}", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "rate_limit_exceeded", body["error"])

	// Other endpoints have their own buckets.
	rec = ts.do(t, http.MethodGet, "/prompts", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("X-RateLimit-Limit"))

	// Health is never limited.
	rec = ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.NewString()

	routes := []struct{ method, path string }{
		{http.MethodPost, "/auth/refresh"},
		{http.MethodGet, "/auth/me"},
		{http.MethodPut, "/auth/password"},
		{http.MethodPut, "/users/" + id},
		{http.MethodDelete, "/users/" + id},
		{http.MethodPost, "/prompts"},
		{http.MethodPost, "/prompts/generate"},
		{http.MethodPut, "/prompts/" + id + "/activate"},
		{http.MethodPut, "/prompts/" + id + "/deactivate"},
		{http.MethodDelete, "/prompts/" + id},
		{http.MethodPost, "/responses"},
		{http.MethodPut, "/responses/" + id},
		{http.MethodDelete, "/responses/" + id},
		{http.MethodPost, "/comments"},
		{http.MethodGet, "/notifications"},
		{http.MethodPut, "/notifications/read-all"},
		{http.MethodPut, "/notifications/" + id + "/read"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rec := ts.do(t, route.method, route.path, nil, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

			rec = ts.do(t, route.method, route.path, nil, "not-a-token")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
