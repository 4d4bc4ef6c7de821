// internal/blockchain/evm/rpc/errors.go
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrNoEndpoints means the network was configured with an empty endpoint list.
	ErrNoEndpoints = errors.New("no RPC endpoints configured")

	// ErrNoHealthyEndpoint means every endpoint failed its liveness probe and
	// fallback dialing failed too.
	ErrNoHealthyEndpoint = errors.New("no healthy RPC endpoint available")

	// ErrTimeout marks a probe that exceeded its deadline.
	ErrTimeout = errors.New("request timeout")

	// ErrConnectionFailed marks a transport-level failure.
	ErrConnectionFailed = errors.New("connection failed")
)

// Error carries endpoint and method context alongside the underlying error.
type Error struct {
	Err      error
	Endpoint string
	Method   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error [%s] at %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with endpoint and method context.
func NewError(err error, endpoint, method string) error {
	return &Error{
		Err:      err,
		Endpoint: endpoint,
		Method:   method,
	}
}

// classifyProbeError turns a probe failure into the short diagnostic recorded
// on the EndpointHealth: timeouts and connection failures are distinguished
// from protocol-level errors.
func classifyProbeError(err error) (Status, string) {
	if err == nil {
		return StatusOnline, ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return StatusOffline, "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusOffline, "timeout"
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "connection reset"),
		strings.Contains(errStr, "no such host"),
		strings.Contains(errStr, "timeout"):
		return StatusOffline, "connection failed: " + truncate(errStr, 120)
	default:
		return StatusError, "protocol error: " + truncate(errStr, 120)
	}
}

// IsRetryableError reports whether an operation is worth retrying on another
// attempt or endpoint.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		switch {
		case errors.Is(rpcErr.Err, ErrTimeout),
			errors.Is(rpcErr.Err, ErrConnectionFailed):
			return true
		}
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "rate limit")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
