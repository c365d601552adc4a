package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/config"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/mocks"
	"github.com/phrazzld/memo-tagger/internal/service"
	"github.com/phrazzld/memo-tagger/internal/service/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T) *application {
	t.Helper()

	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{Name: "memotag_test_total", Help: "test"}).Inc()

	return &application{
		config:  &config.Config{Server: config.ServerConfig{Port: 0}},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: reg,
		jwtService: &mocks.MockJWTService{
			ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
				if token != "valid" {
					return nil, auth.ErrInvalidToken
				}
				return &auth.Claims{Subject: "cli"}, nil
			},
		},
		memoService: &mocks.MockMemoService{Tags: []domain.Tag{{ID: uuid.New(), Name: "errands"}}},
		enrichmentService: &mocks.MockEnrichmentService{
			Result: domain.BatchResult{Processed: 2, Remaining: 5},
			Status: service.RunStatus{ID: uuid.New()},
		},
	}
}

func TestRouter(t *testing.T) {
	t.Parallel()

	router := newTestApplication(t).setupRouter()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantBody: "OK"},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK, wantBody: "memotag_test_total 1"},
		{name: "api needs auth", method: http.MethodGet, path: "/api/tags", wantStatus: http.StatusUnauthorized},
		{name: "bad token", method: http.MethodGet, path: "/api/tags", token: "forged", wantStatus: http.StatusUnauthorized},
		{name: "tags", method: http.MethodGet, path: "/api/tags", token: "valid", wantStatus: http.StatusOK, wantBody: "errands"},
		{name: "remaining", method: http.MethodGet, path: "/api/enrichment/remaining", token: "valid", wantStatus: http.StatusOK, wantBody: `"remaining":5`},
		{name: "batch", method: http.MethodPost, path: "/api/enrichment/batch", body: `{"batch_size":2}`, token: "valid", wantStatus: http.StatusOK, wantBody: `"processed":2`},
		{name: "start run", method: http.MethodPost, path: "/api/enrichment/runs", body: `{}`, token: "valid", wantStatus: http.StatusAccepted},
		{name: "get run", method: http.MethodGet, path: "/api/enrichment/runs/" + uuid.NewString(), token: "valid", wantStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/api/notes", token: "valid", wantStatus: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tc.wantBody)
			}
		})
	}
}
