// internal/blockchain/evm/rpc/pool.go
package rpc

import (
	"context"
	"sort"
	"time"

	"github.com/rfarrakhov/chainarb/internal/blockchain"
	"github.com/rfarrakhov/chainarb/internal/blockchain/evm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewPool builds a pool for one network. An empty endpoint list is a
// configuration error and rejected up front.
func NewPool(network string, endpoints []string, timeout time.Duration, fallback bool, dial Dialer, logger *zap.Logger) (*Pool, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if dial == nil {
		dial = func(network, endpoint string, timeout time.Duration) (blockchain.Client, error) {
			return evm.NewClient(network, endpoint, timeout, logger)
		}
	}

	return &Pool{
		network:   network,
		endpoints: endpoints,
		timeout:   timeout,
		fallback:  fallback,
		dial:      dial,
		logger:    logger.Named("rpc-pool").With(zap.String("network", network)),
		health:    make(map[string]EndpointHealth),
	}, nil
}

// Network returns the network this pool serves.
func (p *Pool) Network() string {
	return p.network
}

// CheckAll probes every endpoint in parallel and replaces the stored health
// records wholesale. A failing endpoint never aborts the others; errors are
// captured in the records, not returned.
func (p *Pool) CheckAll(ctx context.Context) []EndpointHealth {
	results := make([]EndpointHealth, len(p.endpoints))

	g, gctx := errgroup.WithContext(ctx)
	for i, url := range p.endpoints {
		g.Go(func() error {
			results[i] = p.checkEndpoint(gctx, url)
			return nil
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	p.health = make(map[string]EndpointHealth, len(results))
	for _, h := range results {
		p.health[h.URL] = h
	}
	p.mu.Unlock()

	for _, h := range results {
		if h.Online() {
			p.logger.Debug("Endpoint online",
				zap.String("url", h.URL),
				zap.Duration("latency", h.Latency),
				zap.Uint64("block", h.BlockNumber),
				zap.Bool("gas_support", h.GasSupport))
		} else {
			p.logger.Warn("Endpoint unavailable",
				zap.String("url", h.URL),
				zap.String("status", string(h.Status)),
				zap.String("reason", h.LastError))
		}
	}

	return results
}

// checkEndpoint runs the liveness probe for a single endpoint: fetch the
// latest block height within the timeout, measuring wall-clock latency, then
// separately probe gas-price support. The gas probe failing on its own leaves
// the endpoint online with GasSupport=false.
func (p *Pool) checkEndpoint(ctx context.Context, url string) EndpointHealth {
	health := EndpointHealth{
		URL:       url,
		CheckedAt: time.Now().UTC(),
	}

	client, err := p.dial(p.network, url, p.timeout)
	if err != nil {
		health.Status, health.LastError = classifyProbeError(err)
		return health
	}
	defer client.Close()

	start := time.Now()
	block, err := client.LatestBlockNumber(ctx)
	if err != nil {
		health.Status, health.LastError = classifyProbeError(err)
		return health
	}

	health.Status = StatusOnline
	health.Latency = time.Since(start)
	health.BlockNumber = block

	if _, err := client.GasPrice(ctx); err != nil {
		health.GasSupport = false
	} else {
		health.GasSupport = true
	}

	return health
}

// Health returns the most recent check results in configured endpoint order.
func (p *Pool) Health() []EndpointHealth {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]EndpointHealth, 0, len(p.endpoints))
	for _, url := range p.endpoints {
		if h, ok := p.health[url]; ok {
			out = append(out, h)
		}
	}
	return out
}

// BestEndpoint picks the minimum-latency online endpoint from the latest
// check. When none are online (or no check has run) it falls back to the
// first configured endpoint: a deterministic safe default, not a liveness
// guarantee.
func (p *Pool) BestEndpoint() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	best := ""
	var bestLatency time.Duration
	for _, url := range p.endpoints {
		h, ok := p.health[url]
		if !ok || !h.Online() {
			continue
		}
		if best == "" || h.Latency < bestLatency {
			best = url
			bestLatency = h.Latency
		}
	}
	if best == "" {
		return p.endpoints[0]
	}
	return best
}

// Client connects to the best endpoint, falling back through the remaining
// online endpoints in latency order when enabled. Exhausting every candidate
// is the one hard failure this component surfaces.
func (p *Pool) Client(ctx context.Context) (blockchain.Client, error) {
	candidates := p.candidates()
	if !p.fallback {
		candidates = candidates[:1]
	}

	var lastErr error
	for _, url := range candidates {
		client, err := p.dial(p.network, url, p.timeout)
		if err != nil {
			lastErr = NewError(err, url, "dial")
			continue
		}
		if !client.IsConnected(ctx) {
			client.Close()
			lastErr = NewError(ErrConnectionFailed, url, "connect")
			continue
		}
		if url != p.endpoints[0] {
			p.logger.Info("Using fallback endpoint", zap.String("url", url))
		}
		return client, nil
	}

	if lastErr != nil {
		return nil, NewError(ErrNoHealthyEndpoint, p.network, "client")
	}
	return nil, ErrNoHealthyEndpoint
}

// candidates orders endpoints for connection attempts: online ones by
// ascending latency, then the rest in configured order.
func (p *Pool) candidates() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	type ranked struct {
		url     string
		online  bool
		latency time.Duration
		idx     int
	}

	all := make([]ranked, 0, len(p.endpoints))
	for i, url := range p.endpoints {
		h, ok := p.health[url]
		all = append(all, ranked{
			url:     url,
			online:  ok && h.Online(),
			latency: h.Latency,
			idx:     i,
		})
	}

	sort.SliceStable(all, func(a, b int) bool {
		if all[a].online != all[b].online {
			return all[a].online
		}
		if all[a].online {
			return all[a].latency < all[b].latency
		}
		return all[a].idx < all[b].idx
	})

	out := make([]string, len(all))
	for i, r := range all {
		out[i] = r.url
	}
	return out
}
