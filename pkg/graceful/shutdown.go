package graceful

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yieldai/bridge_service/pkg/logger"
)

const defaultTimeout = 30 * time.Second

type Shutdowner interface {
	Shutdown(timeout time.Duration) error
}

type namedCloser struct {
	name   string
	closer io.Closer
}

// ShutdownManager stops workers, drains the HTTP server and closes
// connections, in that order
type ShutdownManager struct {
	server      *http.Server
	shutdowners []Shutdowner
	closers     []namedCloser
	timeout     time.Duration
	logger      *logger.Logger
}

func NewShutdownManager(server *http.Server, timeout time.Duration, logger *logger.Logger) *ShutdownManager {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ShutdownManager{
		server:      server,
		shutdowners: make([]Shutdowner, 0),
		timeout:     timeout,
		logger:      logger,
	}
}

// Register adds a component stopped before the server drains
func (sm *ShutdownManager) Register(s Shutdowner) {
	sm.shutdowners = append(sm.shutdowners, s)
}

// RegisterCloser adds a connection closed after the server drains
func (sm *ShutdownManager) RegisterCloser(name string, c io.Closer) {
	sm.closers = append(sm.closers, namedCloser{name: name, closer: c})
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then shuts down
func (sm *ShutdownManager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sm.Shutdown()
}

// Shutdown runs the shutdown sequence once
func (sm *ShutdownManager) Shutdown() {
	sm.logger.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	// Shutdown registered components
	for _, s := range sm.shutdowners {
		if err := s.Shutdown(sm.timeout); err != nil {
			sm.logger.Warn("Component shutdown error", "error", err)
		}
	}

	// Shutdown HTTP server
	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.Error("Server forced shutdown", "error", err)
		}
	}

	for _, c := range sm.closers {
		if err := c.closer.Close(); err != nil {
			sm.logger.Warn("Close error", "component", c.name, "error", err)
		}
	}

	sm.logger.Info("Shutdown complete")
}
