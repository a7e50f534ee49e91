package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownFunc is a cleanup hook run during graceful shutdown.
type ShutdownFunc func(context.Context) error

// ShutdownManager drains the HTTP servers and runs registered cleanup hooks
// when the process receives SIGINT or SIGTERM.
type ShutdownManager struct {
	logger        *Logger
	servers       []*http.Server
	shutdownFuncs []ShutdownFunc
	timeout       time.Duration
}

// NewShutdownManager creates a shutdown manager for the given servers.
func NewShutdownManager(logger *Logger, timeout time.Duration, servers ...*http.Server) *ShutdownManager {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:  logger,
		servers: servers,
		timeout: timeout,
	}
}

// RegisterShutdownFunc registers a cleanup hook. Hooks run in registration
// order after the servers have drained.
func (sm *ShutdownManager) RegisterShutdownFunc(fn ShutdownFunc) {
	sm.shutdownFuncs = append(sm.shutdownFuncs, fn)
}

// WaitForShutdown blocks until a termination signal arrives, then drains.
func (sm *ShutdownManager) WaitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	sm.logger.Infof("Received signal %s, starting graceful shutdown", sig)

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	var failures int
	for _, srv := range sm.servers {
		if err := srv.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).Errorf("HTTP server %s shutdown error", srv.Addr)
			failures++
		}
	}

	for i, fn := range sm.shutdownFuncs {
		if err := fn(ctx); err != nil {
			sm.logger.WithError(err).Errorf("Shutdown hook %d failed", i)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("shutdown completed with %d errors", failures)
	}
	sm.logger.Info("Graceful shutdown complete")
	return nil
}
