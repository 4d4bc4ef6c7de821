package scanner

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rfarrakhov/chainarb/internal/blockchain/evm"
	"github.com/rfarrakhov/chainarb/internal/retry"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var (
	testWETH = Token{Symbol: "WETH", Address: common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"), Decimals: 18}
	testUSDC = Token{Symbol: "USDC", Address: common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"), Decimals: 6}
	testDAI  = Token{Symbol: "DAI", Address: common.HexToAddress("0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063"), Decimals: 18}

	venueQuickswap = Venue{Name: "quickswap", Router: common.HexToAddress("0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff")}
	venueSushiswap = Venue{Name: "sushiswap", Router: common.HexToAddress("0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506")}
	venueApeswap   = Venue{Name: "apeswap", Router: common.HexToAddress("0xC0788A3aD43d79aa53B09c2EaCc313A787d1d607")}
)

type hop struct {
	router common.Address
	in     common.Address
	out    common.Address
}

// fakeQuoter prices swaps from a static rate table keyed by router and hop,
// answering in raw units the way an on-chain router would. Hops listed in
// errs fail like a venue with a dead pool.
type fakeQuoter struct {
	mu       sync.Mutex
	decimals map[common.Address]int
	rates    map[hop]float64
	errs     map[hop]error
	calls    map[hop]int
}

func newFakeQuoter() *fakeQuoter {
	return &fakeQuoter{
		decimals: make(map[common.Address]int),
		rates:    make(map[hop]float64),
		errs:     make(map[hop]error),
		calls:    make(map[hop]int),
	}
}

func (q *fakeQuoter) setRate(venue Venue, in, out Token, rate float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.decimals[in.Address] = in.Decimals
	q.decimals[out.Address] = out.Decimals
	q.rates[hop{venue.Router, in.Address, out.Address}] = rate
}

func (q *fakeQuoter) setError(venue Venue, in, out Token, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errs[hop{venue.Router, in.Address, out.Address}] = err
}

func (q *fakeQuoter) callCount(venue Venue, in, out Token) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls[hop{venue.Router, in.Address, out.Address}]
}

func (q *fakeQuoter) GetAmountsOut(_ context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := hop{router, path[0], path[len(path)-1]}
	q.calls[key]++
	if err := q.errs[key]; err != nil {
		return nil, err
	}
	rate, ok := q.rates[key]
	if !ok {
		return nil, errors.New("no route")
	}

	in := evm.ToDecimal(amountIn, q.decimals[path[0]])
	out := evm.FromDecimal(in*rate, q.decimals[path[len(path)-1]])
	return []*big.Int{new(big.Int).Set(amountIn), out}, nil
}

// Single attempt keeps failing-venue tests from sleeping through backoff.
func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 1, InitialDelay: time.Millisecond, Multiplier: 2}
}

func scenarioParams() Params {
	return Params{
		Network:      "polygon",
		TradeAmount:  1,
		MinProfitPct: 1.0,
		SlippagePct:  0.5,
		GasCostPct:   0.5,
		Retry:        fastRetry(),
	}
}

func findDirect(t *testing.T, opps []Opportunity, buy, sell string) Opportunity {
	t.Helper()
	for _, opp := range opps {
		if opp.BuyVenue == buy && opp.SellVenue == sell {
			return opp
		}
	}
	t.Fatalf("No opportunity buying on %s and selling on %s", buy, sell)
	return Opportunity{}
}

func TestScanDirectThreeVenueSpread(t *testing.T) {
	quoter := newFakeQuoter()
	quoter.setRate(venueSushiswap, testWETH, testUSDC, 100)
	quoter.setRate(venueQuickswap, testWETH, testUSDC, 103)
	quoter.setRate(venueApeswap, testWETH, testUSDC, 101)

	s := New(quoter, scenarioParams(), zap.NewNop())
	pair := PairSpec{Base: testWETH, Quote: testUSDC}

	opps := s.ScanDirect(context.Background(), pair, []Venue{venueQuickswap, venueSushiswap, venueApeswap})
	if len(opps) != 3 {
		t.Fatalf("Expected 3 opportunities, got %d", len(opps))
	}

	viable := 0
	for _, opp := range opps {
		if opp.Kind != KindDirect {
			t.Errorf("Expected kind %q, got %q", KindDirect, opp.Kind)
		}
		if opp.Pair != "WETH/USDC" {
			t.Errorf("Expected pair WETH/USDC, got %q", opp.Pair)
		}
		if opp.Network != "polygon" {
			t.Errorf("Expected network polygon, got %q", opp.Network)
		}
		if opp.ID == "" || opp.Timestamp.IsZero() {
			t.Errorf("Opportunity missing identity fields: %+v", opp)
		}
		if opp.BuyOutput >= opp.SellOutput {
			t.Errorf("Buy side must quote below sell side: buy %.2f sell %.2f", opp.BuyOutput, opp.SellOutput)
		}
		assert.InDelta(t, opp.GrossProfitPct-opp.GasCostPct-opp.SlippagePct, opp.NetProfitPct, 1e-9,
			"net profit must equal gross minus deductions")
		if opp.Viable {
			viable++
		}
	}
	if viable != 1 {
		t.Errorf("Expected exactly 1 viable opportunity, got %d", viable)
	}

	best := findDirect(t, opps, "sushiswap", "quickswap")
	assert.InDelta(t, 3.0, best.GrossProfitPct, 1e-9, "buy at 100, sell at 103")
	assert.InDelta(t, 2.0, best.NetProfitPct, 1e-9, "3%% gross less 0.5%% gas and 0.5%% slippage")
	if !best.Viable {
		t.Error("Expected the 2%% net spread to be viable at a 1%% threshold")
	}

	cross := findDirect(t, opps, "sushiswap", "apeswap")
	assert.InDelta(t, 1.0, cross.GrossProfitPct, 1e-9)
	if cross.Viable {
		t.Error("Zero net profit must not be viable")
	}
}

func TestScanDirectEmissionBoundary(t *testing.T) {
	// Gross profit exactly at the threshold is still emitted; viability
	// needs net strictly above it.
	quoter := newFakeQuoter()
	quoter.setRate(venueQuickswap, testWETH, testUSDC, 100)
	quoter.setRate(venueSushiswap, testWETH, testUSDC, 101)

	s := New(quoter, scenarioParams(), zap.NewNop())
	opps := s.ScanDirect(context.Background(), PairSpec{Base: testWETH, Quote: testUSDC},
		[]Venue{venueQuickswap, venueSushiswap})

	if len(opps) != 1 {
		t.Fatalf("Expected 1 opportunity at the emission boundary, got %d", len(opps))
	}
	assert.InDelta(t, 1.0, opps[0].GrossProfitPct, 1e-9)
	assert.InDelta(t, 0.0, opps[0].NetProfitPct, 1e-9)
	if opps[0].Viable {
		t.Error("Net profit equal to zero must not be viable")
	}
}

func TestScanDirectBelowThreshold(t *testing.T) {
	quoter := newFakeQuoter()
	quoter.setRate(venueQuickswap, testWETH, testUSDC, 100)
	quoter.setRate(venueSushiswap, testWETH, testUSDC, 100.5)

	s := New(quoter, scenarioParams(), zap.NewNop())
	opps := s.ScanDirect(context.Background(), PairSpec{Base: testWETH, Quote: testUSDC},
		[]Venue{venueQuickswap, venueSushiswap})

	if len(opps) != 0 {
		t.Errorf("Expected no opportunities below the profit threshold, got %d", len(opps))
	}
}

func TestScanDirectSingleVenue(t *testing.T) {
	quoter := newFakeQuoter()
	quoter.setRate(venueQuickswap, testWETH, testUSDC, 100)

	s := New(quoter, scenarioParams(), zap.NewNop())
	opps := s.ScanDirect(context.Background(), PairSpec{Base: testWETH, Quote: testUSDC},
		[]Venue{venueQuickswap})

	if opps != nil {
		t.Errorf("Expected no result with a single venue, got %d opportunities", len(opps))
	}
}

func TestScanDirectFailingVenueExcluded(t *testing.T) {
	quoter := newFakeQuoter()
	quoter.setRate(venueQuickswap, testWETH, testUSDC, 103)
	quoter.setRate(venueSushiswap, testWETH, testUSDC, 100)
	quoter.setError(venueApeswap, testWETH, testUSDC, errors.New("execution reverted"))

	s := New(quoter, scenarioParams(), zap.NewNop())
	opps := s.ScanDirect(context.Background(), PairSpec{Base: testWETH, Quote: testUSDC},
		[]Venue{venueQuickswap, venueSushiswap, venueApeswap})

	if len(opps) != 1 {
		t.Fatalf("Expected the surviving venues to still pair up, got %d opportunities", len(opps))
	}
	for _, opp := range opps {
		if opp.BuyVenue == "apeswap" || opp.SellVenue == "apeswap" {
			t.Errorf("Failed venue must not appear in results: %+v", opp)
		}
	}
	if got := quoter.callCount(venueApeswap, testWETH, testUSDC); got != 1 {
		t.Errorf("Expected a single attempt against the failing venue, got %d", got)
	}
}

func TestScanDirectAllVenuesFail(t *testing.T) {
	quoter := newFakeQuoter()
	quoter.setError(venueQuickswap, testWETH, testUSDC, errors.New("connection refused"))
	quoter.setError(venueSushiswap, testWETH, testUSDC, errors.New("connection refused"))

	s := New(quoter, scenarioParams(), zap.NewNop())
	opps := s.ScanDirect(context.Background(), PairSpec{Base: testWETH, Quote: testUSDC},
		[]Venue{venueQuickswap, venueSushiswap})

	if opps != nil {
		t.Errorf("Expected no result when every venue fails, got %d opportunities", len(opps))
	}
}

func TestScanDirectZeroOutputExcluded(t *testing.T) {
	quoter := newFakeQuoter()
	quoter.setRate(venueQuickswap, testWETH, testUSDC, 103)
	quoter.setRate(venueSushiswap, testWETH, testUSDC, 0)

	s := New(quoter, scenarioParams(), zap.NewNop())
	opps := s.ScanDirect(context.Background(), PairSpec{Base: testWETH, Quote: testUSDC},
		[]Venue{venueQuickswap, venueSushiswap})

	if opps != nil {
		t.Errorf("Expected a zero quote to drop its venue, got %d opportunities", len(opps))
	}
}
