package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestShutdownClosesInReverseOrder(t *testing.T) {
	handler := NewShutdownHandler(zap.NewNop(), time.Second)

	var mu sync.Mutex
	var order []string
	record := func(name string) func() error {
		return func() error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	handler.AddFunc("storage", record("storage"))
	handler.AddFunc("event_bus", record("event_bus"))
	handler.AddFunc("notifier", record("notifier"))

	handler.Shutdown(context.Background())

	want := []string{"notifier", "event_bus", "storage"}
	if len(order) != len(want) {
		t.Fatalf("Expected %d services closed, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Expected close order %v, got %v", want, order)
			break
		}
	}
}

func TestShutdownContinuesPastFailures(t *testing.T) {
	handler := NewShutdownHandler(zap.NewNop(), time.Second)

	var closed []string
	handler.AddFunc("healthy", func() error {
		closed = append(closed, "healthy")
		return nil
	})
	handler.AddFunc("failing", func() error {
		closed = append(closed, "failing")
		return errors.New("close failed")
	})

	handler.Shutdown(context.Background())

	if len(closed) != 2 {
		t.Fatalf("Expected both services attempted, got %v", closed)
	}
	if closed[0] != "failing" || closed[1] != "healthy" {
		t.Errorf("Expected failing then healthy, got %v", closed)
	}
}

func TestShutdownTimeoutDoesNotHang(t *testing.T) {
	handler := NewShutdownHandler(zap.NewNop(), time.Second)

	release := make(chan struct{})
	var quickClosed bool

	// Registered first, so it shuts down last, after the timeout fires.
	handler.AddFunc("stuck", func() error {
		<-release
		return nil
	})
	handler.AddFunc("quick", func() error {
		quickClosed = true
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		handler.Shutdown(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return after context deadline")
	}
	close(release)

	if !quickClosed {
		t.Error("Expected quick service to close before the stuck one timed out")
	}
}

func TestCloseFunc(t *testing.T) {
	called := false
	fn := CloseFunc(func() error {
		called = true
		return nil
	})

	if err := fn.Close(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !called {
		t.Error("Expected wrapped function to run")
	}
}

func TestNewShutdownHandlerDefaultTimeout(t *testing.T) {
	handler := NewShutdownHandler(zap.NewNop(), 0)
	if handler.timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %s", handler.timeout)
	}
}
