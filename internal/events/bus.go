// internal/events/bus.go
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bus is an in-memory publish/subscribe bus. Publishing never blocks the
// scanner loop: events go through a buffered channel and handlers run on
// their own goroutines.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType]map[string]Handler
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	queue    chan Event
}

// NewBus creates a bus and starts its dispatch loop.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	bus := &Bus{
		handlers: make(map[EventType]map[string]Handler),
		logger:   logger.Named("event_bus"),
		ctx:      ctx,
		cancel:   cancel,
		queue:    make(chan Event, bufferSize),
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) Subscription {
	id := uuid.New().String()

	b.mu.Lock()
	byID, ok := b.handlers[eventType]
	if !ok {
		byID = make(map[string]Handler)
		b.handlers[eventType] = byID
	}
	byID[id] = handler
	b.mu.Unlock()

	b.logger.Debug("Handler subscribed",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", id))

	return &subscription{id: id, bus: b, typ: eventType}
}

// SubscribeFunc subscribes a plain function.
func (b *Bus) SubscribeFunc(eventType EventType, fn func(context.Context, Event) error) Subscription {
	return b.Subscribe(eventType, HandlerFunc(fn))
}

// Publish queues an event for asynchronous delivery. A full queue drops
// the event rather than stalling the publisher.
func (b *Bus) Publish(event Event) error {
	if b.ctx.Err() != nil {
		return fmt.Errorf("publish on a stopped bus")
	}
	select {
	case b.queue <- event:
		return nil
	default:
		b.logger.Warn("Event queue full, dropping event",
			zap.String("event_type", string(event.Type())))
		return fmt.Errorf("event queue full")
	}
}

// PublishSync delivers an event to all handlers before returning. Handler
// errors are collected, not short-circuited; every handler runs.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	snapshot := make(map[string]Handler, len(b.handlers[event.Type()]))
	for id, h := range b.handlers[event.Type()] {
		snapshot[id] = h
	}
	b.mu.RUnlock()

	var failed []error
	for id, handler := range snapshot {
		err := handler.Handle(ctx, event)
		if err == nil {
			continue
		}
		b.logger.Error("Event handler failed",
			zap.String("event_type", string(event.Type())),
			zap.String("handler_id", id),
			zap.Error(err))
		failed = append(failed, err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d handlers failed: %v", len(failed), len(snapshot), failed)
	}
	return nil
}

func (b *Bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			b.drainQueue()
			return
		case event := <-b.queue:
			b.wg.Add(1)
			go func(e Event) {
				defer b.wg.Done()
				if err := b.PublishSync(b.ctx, e); err != nil {
					b.logger.Error("Failed to process event",
						zap.String("event_type", string(e.Type())),
						zap.Error(err))
				}
			}(event)
		}
	}
}

// drainQueue hands every still-queued event to its handlers. It runs after
// cancel, so delivery uses a fresh context; late writes still land.
func (b *Bus) drainQueue() {
	for {
		select {
		case event := <-b.queue:
			_ = b.PublishSync(context.Background(), event)
		default:
			return
		}
	}
}

func (b *Bus) unsubscribe(id string, eventType EventType) {
	b.mu.Lock()
	byID := b.handlers[eventType]
	delete(byID, id)
	if len(byID) == 0 {
		delete(b.handlers, eventType)
	}
	b.mu.Unlock()

	b.logger.Debug("Handler unsubscribed",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", id))
}

// Shutdown stops the dispatch loop and waits for in-flight handlers.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.logger.Info("Stopping event bus")
	b.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.wg.Wait()
	}()

	select {
	case <-done:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus stop timed out")
		return ctx.Err()
	}
}

// Pending reports how many events are queued but not yet dispatched.
func (b *Bus) Pending() int {
	return len(b.queue)
}
