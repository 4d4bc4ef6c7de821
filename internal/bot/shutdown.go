package bot

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CloseFunc allows using a function as an io.Closer
type CloseFunc func() error

func (f CloseFunc) Close() error {
	return f()
}

// ShutdownHandler closes registered services in reverse registration order,
// bounding the whole sequence by a timeout.
type ShutdownHandler struct {
	mu       sync.Mutex
	services []registration
	logger   *zap.Logger
	timeout  time.Duration
}

type registration struct {
	name   string
	closer io.Closer
}

func NewShutdownHandler(logger *zap.Logger, timeout time.Duration) *ShutdownHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownHandler{logger: logger, timeout: timeout}
}

// Add registers a service to close on shutdown. Later registrations close
// earlier.
func (sh *ShutdownHandler) Add(name string, closer io.Closer) {
	sh.mu.Lock()
	sh.services = append(sh.services, registration{name: name, closer: closer})
	sh.mu.Unlock()

	sh.logger.Debug("Service registered for shutdown", zap.String("service", name))
}

// AddFunc registers a close function under a name.
func (sh *ShutdownHandler) AddFunc(name string, fn func() error) {
	sh.Add(name, CloseFunc(fn))
}

// Shutdown closes all registered services, newest first. Each close runs on
// its own goroutine so a stuck service cannot block the rest past ctx.
func (sh *ShutdownHandler) Shutdown(ctx context.Context) {
	sh.mu.Lock()
	services := make([]registration, len(sh.services))
	copy(services, sh.services)
	sh.mu.Unlock()

	sh.logger.Info("Closing services", zap.Int("count", len(services)))

	failures := 0
	for i := len(services) - 1; i >= 0; i-- {
		if !sh.closeOne(ctx, services[i]) {
			failures++
		}
	}

	if failures > 0 {
		sh.logger.Error("Shutdown finished with failures", zap.Int("failures", failures))
		return
	}
	sh.logger.Info("Shutdown finished cleanly")
}

func (sh *ShutdownHandler) closeOne(ctx context.Context, svc registration) bool {
	done := make(chan error, 1)
	go func() {
		done <- svc.closer.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			sh.logger.Error("Service close failed",
				zap.String("service", svc.name), zap.Error(err))
			return false
		}
		sh.logger.Debug("Service closed", zap.String("service", svc.name))
		return true
	case <-ctx.Done():
		sh.logger.Error("Service close timed out", zap.String("service", svc.name))
		return false
	}
}
