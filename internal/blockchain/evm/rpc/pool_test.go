package rpc

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rfarrakhov/chainarb/internal/blockchain"
	"go.uber.org/zap"
)

// fakeEndpoint scripts how one endpoint behaves when dialed and probed.
type fakeEndpoint struct {
	dialErr      error
	blockNumber  uint64
	blockErr     error
	blockLatency time.Duration
	gasErr       error
	disconnected bool
}

// fakeNetwork hands out stub clients per endpoint URL and counts dials and
// closes so tests can assert traversal order and cleanup.
type fakeNetwork struct {
	mu        sync.Mutex
	endpoints map[string]*fakeEndpoint
	dials     map[string]int
	closes    map[string]int
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		endpoints: make(map[string]*fakeEndpoint),
		dials:     make(map[string]int),
		closes:    make(map[string]int),
	}
}

func (n *fakeNetwork) add(url string, ep *fakeEndpoint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.endpoints[url] = ep
}

func (n *fakeNetwork) setDialErr(url string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.endpoints[url].dialErr = err
}

func (n *fakeNetwork) dialCount(url string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dials[url]
}

func (n *fakeNetwork) closeCount(url string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closes[url]
}

func (n *fakeNetwork) dialer() Dialer {
	return func(network, endpoint string, _ time.Duration) (blockchain.Client, error) {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.dials[endpoint]++
		ep, ok := n.endpoints[endpoint]
		if !ok {
			return nil, errors.New("no such host")
		}
		if ep.dialErr != nil {
			return nil, ep.dialErr
		}
		return &fakeClient{network: network, url: endpoint, ep: ep, owner: n}, nil
	}
}

type fakeClient struct {
	network string
	url     string
	ep      *fakeEndpoint
	owner   *fakeNetwork
}

func (c *fakeClient) Network() string                  { return c.network }
func (c *fakeClient) IsConnected(context.Context) bool { return !c.ep.disconnected }

func (c *fakeClient) LatestBlockNumber(context.Context) (uint64, error) {
	if c.ep.blockLatency > 0 {
		time.Sleep(c.ep.blockLatency)
	}
	return c.ep.blockNumber, c.ep.blockErr
}

func (c *fakeClient) GasPrice(context.Context) (*big.Int, error) {
	if c.ep.gasErr != nil {
		return nil, c.ep.gasErr
	}
	return big.NewInt(30_000_000_000), nil
}

func (c *fakeClient) GetAmountsOut(context.Context, common.Address, *big.Int, []common.Address) ([]*big.Int, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeClient) NativeBalance(context.Context, common.Address) (float64, error) { return 0, nil }
func (c *fakeClient) ERC20Balance(context.Context, common.Address, common.Address, int) (float64, error) {
	return 0, nil
}

func (c *fakeClient) Close() {
	c.owner.mu.Lock()
	defer c.owner.mu.Unlock()
	c.owner.closes[c.url]++
}

func newTestPool(t *testing.T, net *fakeNetwork, endpoints []string, fallback bool) *Pool {
	t.Helper()
	pool, err := NewPool("polygon", endpoints, time.Second, fallback, net.dialer(), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to build pool: %v", err)
	}
	return pool
}

func TestNewPoolRequiresEndpoints(t *testing.T) {
	_, err := NewPool("polygon", nil, time.Second, true, nil, zap.NewNop())
	if !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("Expected ErrNoEndpoints, got %v", err)
	}
}

func TestNewPoolDefaultTimeout(t *testing.T) {
	pool, err := NewPool("polygon", []string{"https://rpc.example"}, 0, true, newFakeNetwork().dialer(), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to build pool: %v", err)
	}
	if pool.timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %s, got %s", DefaultTimeout, pool.timeout)
	}
}

func TestCheckAllClassifiesEndpoints(t *testing.T) {
	net := newFakeNetwork()
	net.add("https://good.example", &fakeEndpoint{blockNumber: 19000000, blockLatency: time.Millisecond})
	net.add("https://refused.example", &fakeEndpoint{dialErr: errors.New("dial tcp: connection refused")})
	net.add("https://broken.example", &fakeEndpoint{blockErr: errors.New("invalid character '<' looking for beginning of value")})

	endpoints := []string{"https://good.example", "https://refused.example", "https://broken.example"}
	pool := newTestPool(t, net, endpoints, true)

	results := pool.CheckAll(context.Background())
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	good, refused, broken := results[0], results[1], results[2]

	if !good.Online() || good.BlockNumber != 19000000 || !good.GasSupport {
		t.Errorf("Expected a healthy endpoint with gas support, got %+v", good)
	}
	if good.Latency <= 0 || good.CheckedAt.IsZero() {
		t.Errorf("Probe must record latency and check time: %+v", good)
	}

	if refused.Status != StatusOffline || refused.LastError == "" {
		t.Errorf("Expected a refused dial to read offline, got %+v", refused)
	}
	if broken.Status != StatusError {
		t.Errorf("Expected a protocol failure to read error, got %+v", broken)
	}

	// Probe clients never outlive the check.
	for _, url := range []string{"https://good.example", "https://broken.example"} {
		if net.closeCount(url) != net.dialCount(url) {
			t.Errorf("Probe client for %s leaked: %d dials, %d closes",
				url, net.dialCount(url), net.closeCount(url))
		}
	}

	// Health mirrors the latest check in configured order.
	health := pool.Health()
	if len(health) != 3 || health[0].URL != endpoints[0] || health[2].URL != endpoints[2] {
		t.Errorf("Expected health in configured order, got %+v", health)
	}
}

func TestCheckAllGasUnsupportedStaysOnline(t *testing.T) {
	net := newFakeNetwork()
	net.add("https://nogas.example", &fakeEndpoint{
		blockNumber: 5000,
		gasErr:      errors.New("the method eth_gasPrice does not exist/is not available"),
	})

	pool := newTestPool(t, net, []string{"https://nogas.example"}, true)
	results := pool.CheckAll(context.Background())

	if !results[0].Online() {
		t.Error("A failed gas probe must not mark the endpoint offline")
	}
	if results[0].GasSupport {
		t.Error("Expected GasSupport=false after a failed gas probe")
	}
}

func TestBestEndpointPicksLowestLatency(t *testing.T) {
	net := newFakeNetwork()
	net.add("https://slow.example", &fakeEndpoint{blockNumber: 100, blockLatency: 40 * time.Millisecond})
	net.add("https://fast.example", &fakeEndpoint{blockNumber: 100, blockLatency: time.Millisecond})

	pool := newTestPool(t, net, []string{"https://slow.example", "https://fast.example"}, true)
	pool.CheckAll(context.Background())

	if best := pool.BestEndpoint(); best != "https://fast.example" {
		t.Errorf("Expected the low-latency endpoint, got %s", best)
	}
}

func TestBestEndpointFallsBackToFirstConfigured(t *testing.T) {
	net := newFakeNetwork()
	net.add("https://a.example", &fakeEndpoint{dialErr: errors.New("connection refused")})
	net.add("https://b.example", &fakeEndpoint{dialErr: errors.New("connection refused")})

	pool := newTestPool(t, net, []string{"https://a.example", "https://b.example"}, true)

	// Before any check and with every endpoint down the answer is the same.
	if best := pool.BestEndpoint(); best != "https://a.example" {
		t.Errorf("Expected the first configured endpoint before any check, got %s", best)
	}
	pool.CheckAll(context.Background())
	if best := pool.BestEndpoint(); best != "https://a.example" {
		t.Errorf("Expected the first configured endpoint with all offline, got %s", best)
	}
}

func TestClientWalksCandidatesByLatency(t *testing.T) {
	net := newFakeNetwork()
	net.add("https://down.example", &fakeEndpoint{dialErr: errors.New("connection refused")})
	net.add("https://slow.example", &fakeEndpoint{blockNumber: 100, blockLatency: 40 * time.Millisecond})
	net.add("https://fast.example", &fakeEndpoint{blockNumber: 100, blockLatency: time.Millisecond})

	endpoints := []string{"https://down.example", "https://slow.example", "https://fast.example"}
	pool := newTestPool(t, net, endpoints, true)
	pool.CheckAll(context.Background())

	// Both online endpoints go dark between the check and the connect; the
	// dial order must still be fast, slow, then the offline one.
	net.setDialErr("https://fast.example", errors.New("connection reset"))
	net.setDialErr("https://slow.example", errors.New("connection reset"))
	net.setDialErr("https://down.example", nil)

	client, err := pool.Client(context.Background())
	if err != nil {
		t.Fatalf("Expected the last candidate to serve, got %v", err)
	}
	defer client.Close()

	fc, ok := client.(*fakeClient)
	if !ok || fc.url != "https://down.example" {
		t.Fatalf("Expected https://down.example to be dialed last and win, got %+v", client)
	}
	if net.dialCount("https://fast.example") != 2 || net.dialCount("https://slow.example") != 2 {
		t.Errorf("Expected one probe dial plus one connect attempt per online endpoint, got fast=%d slow=%d",
			net.dialCount("https://fast.example"), net.dialCount("https://slow.example"))
	}
}

func TestClientWithoutFallbackStopsAtBest(t *testing.T) {
	net := newFakeNetwork()
	net.add("https://primary.example", &fakeEndpoint{blockNumber: 100, blockLatency: time.Millisecond})
	net.add("https://backup.example", &fakeEndpoint{blockNumber: 100, blockLatency: 30 * time.Millisecond})

	pool := newTestPool(t, net, []string{"https://primary.example", "https://backup.example"}, false)
	pool.CheckAll(context.Background())

	net.setDialErr("https://primary.example", errors.New("connection reset"))

	_, err := pool.Client(context.Background())
	if !errors.Is(err, ErrNoHealthyEndpoint) {
		t.Fatalf("Expected ErrNoHealthyEndpoint with fallback disabled, got %v", err)
	}
	if net.dialCount("https://backup.example") != 1 {
		t.Errorf("Backup endpoint must only see its probe dial, got %d", net.dialCount("https://backup.example"))
	}
}

func TestClientDisconnectedCandidateSkipped(t *testing.T) {
	net := newFakeNetwork()
	net.add("https://flaky.example", &fakeEndpoint{blockNumber: 100, blockLatency: time.Millisecond})
	net.add("https://steady.example", &fakeEndpoint{blockNumber: 100, blockLatency: 30 * time.Millisecond})

	pool := newTestPool(t, net, []string{"https://flaky.example", "https://steady.example"}, true)
	pool.CheckAll(context.Background())

	// The preferred endpoint dials but fails its liveness ping.
	net.mu.Lock()
	net.endpoints["https://flaky.example"].disconnected = true
	net.mu.Unlock()

	client, err := pool.Client(context.Background())
	if err != nil {
		t.Fatalf("Expected fallback to the steady endpoint, got %v", err)
	}
	defer client.Close()

	if fc := client.(*fakeClient); fc.url != "https://steady.example" {
		t.Errorf("Expected https://steady.example, got %s", fc.url)
	}
	if net.closeCount("https://flaky.example") != net.dialCount("https://flaky.example") {
		t.Error("A client failing its liveness ping must be closed")
	}
}

func TestClientAllEndpointsDown(t *testing.T) {
	net := newFakeNetwork()
	net.add("https://a.example", &fakeEndpoint{dialErr: errors.New("connection refused")})
	net.add("https://b.example", &fakeEndpoint{dialErr: errors.New("connection refused")})

	pool := newTestPool(t, net, []string{"https://a.example", "https://b.example"}, true)
	pool.CheckAll(context.Background())

	_, err := pool.Client(context.Background())
	if !errors.Is(err, ErrNoHealthyEndpoint) {
		t.Fatalf("Expected ErrNoHealthyEndpoint, got %v", err)
	}
}
