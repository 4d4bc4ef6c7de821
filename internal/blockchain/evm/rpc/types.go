// internal/blockchain/evm/rpc/types.go
package rpc

import (
	"sync"
	"time"

	"github.com/rfarrakhov/chainarb/internal/blockchain"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 5 * time.Second
	MaxRetries     = 3
	RetryDelay     = 1 * time.Second
)

// Status is the liveness classification of one endpoint at its last check.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusError   Status = "error"
)

// EndpointHealth is the result of probing one endpoint. Records are replaced
// wholesale on every check, never partially updated.
type EndpointHealth struct {
	URL         string
	Status      Status
	Latency     time.Duration
	BlockNumber uint64
	GasSupport  bool
	LastError   string
	CheckedAt   time.Time
}

// Online reports whether the endpoint answered its liveness probe.
func (h EndpointHealth) Online() bool {
	return h.Status == StatusOnline
}

// Dialer constructs a chain client for one endpoint. Injected so tests can
// substitute stub clients.
type Dialer func(network, endpoint string, timeout time.Duration) (blockchain.Client, error)

// Pool health-checks the candidate endpoints of one network and hands out a
// client on the best of them. It holds no cross-call state beyond the most
// recent check results.
type Pool struct {
	network   string
	endpoints []string
	timeout   time.Duration
	fallback  bool
	dial      Dialer
	logger    *zap.Logger

	mu     sync.RWMutex
	health map[string]EndpointHealth
}
