package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rfarrakhov/chainarb/internal/scanner"
	"github.com/rfarrakhov/chainarb/internal/utils/logger"
)

func TestSimulateProfitableOpportunity(t *testing.T) {
	sim := NewSimulator(1000, logger.NewNop())

	opp := scanner.Opportunity{
		Network:        "polygon",
		Pair:           "WETH/USDC",
		Kind:           scanner.KindDirect,
		GrossProfitPct: 3.0,
		GasCostPct:     0.5,
	}

	outcome := sim.Simulate(opp)

	assert.InDelta(t, 3.0, outcome.ExpectedProfitPct, 1e-9)
	assert.InDelta(t, 0.3, outcome.SlippageAppliedPct, 1e-9, "10%% of the expected edge")
	assert.InDelta(t, 0.5, outcome.GasCostPct, 1e-9, "opportunity's own gas figure")
	assert.InDelta(t, 2.2, outcome.RealizedProfitPct, 1e-9)
	assert.InDelta(t, 22.0, outcome.RealizedProfitUSD, 1e-9, "2.2%% of $1000")

	if !outcome.Success {
		t.Error("Expected a positive realized profit to count as success")
	}
	if outcome.ID == "" || outcome.Timestamp.IsZero() {
		t.Errorf("Outcome missing identity fields: %+v", outcome)
	}
	if outcome.Opportunity.Pair != "WETH/USDC" {
		t.Errorf("Outcome must carry its opportunity, got %+v", outcome.Opportunity)
	}
}

func TestSimulateFallbackGasCost(t *testing.T) {
	sim := NewSimulator(1000, logger.NewNop())

	outcome := sim.Simulate(scanner.Opportunity{GrossProfitPct: 2.0})

	assert.InDelta(t, DefaultGasCostPct, outcome.GasCostPct, 1e-9,
		"no gas figure on the opportunity means the default applies")
	assert.InDelta(t, 2.0-0.2-DefaultGasCostPct, outcome.RealizedProfitPct, 1e-9)
}

func TestSimulateLosingTrade(t *testing.T) {
	sim := NewSimulator(500, logger.NewNop())

	outcome := sim.Simulate(scanner.Opportunity{GrossProfitPct: 0.4, GasCostPct: 0.5})

	assert.InDelta(t, -0.14, outcome.RealizedProfitPct, 1e-9, "0.4 - 0.04 - 0.5")
	assert.InDelta(t, -0.7, outcome.RealizedProfitUSD, 1e-9)
	if outcome.Success {
		t.Error("Expected a negative realized profit to count as failure")
	}
}

func TestSimulateBreakEvenIsFailure(t *testing.T) {
	sim := NewSimulator(1000, logger.NewNop()).WithSlippageRatio(0.5)

	outcome := sim.Simulate(scanner.Opportunity{GrossProfitPct: 1.0, GasCostPct: 0.5})

	assert.InDelta(t, 0.0, outcome.RealizedProfitPct, 1e-12)
	if outcome.Success {
		t.Error("Breaking even must not count as success")
	}
}

func TestSimulateZeroTradeSize(t *testing.T) {
	sim := NewSimulator(0, logger.NewNop())

	outcome := sim.Simulate(scanner.Opportunity{GrossProfitPct: 5.0, GasCostPct: 0.5})

	if outcome.RealizedProfitUSD != 0 {
		t.Errorf("Expected no USD conversion without a trade size, got %f", outcome.RealizedProfitUSD)
	}
	if !outcome.Success {
		t.Error("Percent bookkeeping must still work without a trade size")
	}
}

func TestSimulatorOverrides(t *testing.T) {
	sim := NewSimulator(100, logger.NewNop()).
		WithSlippageRatio(0.25).
		WithGasCostPct(1.0)

	outcome := sim.Simulate(scanner.Opportunity{GrossProfitPct: 4.0})

	assert.InDelta(t, 1.0, outcome.SlippageAppliedPct, 1e-9)
	assert.InDelta(t, 1.0, outcome.GasCostPct, 1e-9)
	assert.InDelta(t, 2.0, outcome.RealizedProfitPct, 1e-9)

	// Negative overrides are ignored.
	sim = NewSimulator(100, logger.NewNop()).WithSlippageRatio(-1).WithGasCostPct(-1)
	outcome = sim.Simulate(scanner.Opportunity{GrossProfitPct: 1.0})
	assert.InDelta(t, 0.1, outcome.SlippageAppliedPct, 1e-9)
	assert.InDelta(t, DefaultGasCostPct, outcome.GasCostPct, 1e-9)
}
