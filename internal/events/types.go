// internal/events/types.go
package events

import (
	"time"

	"github.com/rfarrakhov/chainarb/internal/backtest"
	"github.com/rfarrakhov/chainarb/internal/scanner"
)

// EventType represents the type of event.
type EventType string

const (
	// Scan lifecycle events
	ScanStarted   EventType = "scan.started"
	ScanCompleted EventType = "scan.completed"
	ScanFailed    EventType = "scan.failed"

	// Opportunity events
	OpportunityFound EventType = "opportunity.found"

	// Endpoint events
	EndpointChecked  EventType = "endpoint.checked"
	EndpointDegraded EventType = "endpoint.degraded"

	// Simulation events
	TradeSimulated EventType = "trade.simulated"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase stamps a BaseEvent with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now().UTC()}
}

// ScanStartedEvent is emitted when a scan cycle begins on a network.
type ScanStartedEvent struct {
	BaseEvent
	Network string
	Pairs   int
}

// ScanCompletedEvent is emitted when a scan cycle finishes.
type ScanCompletedEvent struct {
	BaseEvent
	Network       string
	Opportunities int
	Viable        int
	Duration      time.Duration
}

// ScanFailedEvent is emitted when a scan cycle cannot run at all, for
// example when no healthy endpoint is available.
type ScanFailedEvent struct {
	BaseEvent
	Network string
	Error   error
}

// OpportunityFoundEvent is emitted for each opportunity that clears the
// profit threshold.
type OpportunityFoundEvent struct {
	BaseEvent
	Opportunity scanner.Opportunity
}

// EndpointCheckedEvent is emitted after a health probe of one endpoint.
type EndpointCheckedEvent struct {
	BaseEvent
	Network  string
	Endpoint string
	Online   bool
	Latency  time.Duration
}

// EndpointDegradedEvent is emitted when a previously usable endpoint
// goes offline or errors.
type EndpointDegradedEvent struct {
	BaseEvent
	Network  string
	Endpoint string
	Reason   string
}

// TradeSimulatedEvent is emitted after a paper execution of an opportunity.
type TradeSimulatedEvent struct {
	BaseEvent
	Outcome backtest.TradeOutcome
}
