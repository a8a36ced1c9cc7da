package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yieldai/bridge_service/pkg/logger"
)

// Probe checks one dependency. The returned metadata is shown in the
// health report.
type Probe func(ctx context.Context) (map[string]interface{}, error)

// CoreHandlers contains health and metrics handlers
type CoreHandlers struct {
	probes  map[string]Probe
	version string
	logger  *logger.Logger
}

// NewCoreHandlers creates a new core handlers instance
func NewCoreHandlers(probes map[string]Probe, version string, logger *logger.Logger) *CoreHandlers {
	return &CoreHandlers{
		probes:  probes,
		version: version,
		logger:  logger,
	}
}

var startTime = time.Now()

// HealthCheck represents a health check result
type HealthCheck struct {
	Service   string                 `json:"service"`
	Status    string                 `json:"status"`
	Latency   string                 `json:"latency"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]HealthCheck `json:"checks"`
}

// Health runs every probe concurrently and answers 503 when any fails
func (h *CoreHandlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]HealthCheck, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = runProbe(ctx, name, h.probes[name])
		}(i, name)
	}
	wg.Wait()

	checks := make(map[string]HealthCheck, len(results))
	overallStatus := "healthy"
	for _, check := range results {
		checks[check.Service] = check
		if check.Status != "healthy" {
			overallStatus = "unhealthy"
			h.logger.Warn("Health check failed",
				"service", check.Service,
				"error", check.Error)
		}
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Version:   h.version,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// Live checks if the application is alive
func (h *CoreHandlers) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).Round(time.Second).String(),
	})
}

func runProbe(ctx context.Context, name string, probe Probe) HealthCheck {
	start := time.Now()
	check := HealthCheck{
		Service:   name,
		Timestamp: start,
	}

	metadata, err := probe(ctx)
	check.Latency = time.Since(start).String()
	check.Metadata = metadata

	if err != nil {
		check.Status = "unhealthy"
		check.Error = err.Error()
	} else {
		check.Status = "healthy"
	}

	return check
}

// Metrics handler function
func Metrics() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
