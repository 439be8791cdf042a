package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"fleetrent-backend/internal/metrics"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestOpsRoutes(t *testing.T) {
	metrics.Init("fleetrent_test")

	tests := []struct {
		name     string
		path     string
		method   string
		pingErr  error
		wantCode int
		wantBody string
	}{
		{"health", "/healthz", http.MethodGet, nil, http.StatusOK, `"status":"ok"`},
		{"ready", "/readyz", http.MethodGet, nil, http.StatusOK, `"database":"up"`},
		{"not ready", "/readyz", http.MethodGet, errors.New("connection refused"), http.StatusServiceUnavailable, `"database":"down"`},
		{"metrics", "/metrics", http.MethodGet, nil, http.StatusOK, "go_goroutines"},
		{"wrong method", "/healthz", http.MethodPost, nil, http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := mux.NewRouter()
			RegisterOpsRoutes(router, pingerFunc(func(ctx context.Context) error { return tt.pingErr }))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}
