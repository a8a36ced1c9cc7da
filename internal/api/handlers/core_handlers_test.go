package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldai/bridge_service/pkg/logger"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	healthy := func(context.Context) (map[string]interface{}, error) {
		return map[string]interface{}{"ledger_version": "42"}, nil
	}
	failing := func(context.Context) (map[string]interface{}, error) {
		return nil, errors.New("connection refused")
	}

	tests := []struct {
		name       string
		probes     map[string]Probe
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all probes healthy",
			probes:     map[string]Probe{"aptos": healthy, "solana": healthy},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
		{
			name:       "one probe failing",
			probes:     map[string]Probe{"aptos": healthy, "redis": failing},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
		},
		{
			name:       "no probes",
			probes:     map[string]Probe{},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCoreHandlers(tt.probes, "1.2.3", logger.NewNop())
			router := gin.New()
			router.GET("/health", h.Health)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody, resp.Status)
			assert.Equal(t, "1.2.3", resp.Version)
			assert.Len(t, resp.Checks, len(tt.probes))
		})
	}
}

func TestHealth_ReportsProbeDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewCoreHandlers(map[string]Probe{
		"aptos": func(context.Context) (map[string]interface{}, error) {
			return map[string]interface{}{"payer_balance_octas": "1000"}, nil
		},
		"database": func(context.Context) (map[string]interface{}, error) {
			return nil, errors.New("database health check failed: timeout")
		},
	}, "dev", logger.NewNop())
	router := gin.New()
	router.GET("/health", h.Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Checks["aptos"].Status)
	assert.Equal(t, "1000", resp.Checks["aptos"].Metadata["payer_balance_octas"])
	assert.Equal(t, "unhealthy", resp.Checks["database"].Status)
	assert.Contains(t, resp.Checks["database"].Error, "timeout")
}

func TestLiveAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewCoreHandlers(nil, "dev", logger.NewNop())
	router := gin.New()
	router.GET("/live", h.Live)
	router.GET("/metrics", Metrics())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
