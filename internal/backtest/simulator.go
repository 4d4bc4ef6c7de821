// internal/backtest/simulator.go
package backtest

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rfarrakhov/chainarb/internal/scanner"
	"github.com/rfarrakhov/chainarb/internal/utils/logger"
)

const (
	// DefaultSlippageRatio is the fraction of the expected profit assumed
	// lost to price movement between quote and fill.
	DefaultSlippageRatio = 0.10

	// DefaultGasCostPct is the execution cost applied when the caller has
	// no live gas estimate for the opportunity's network.
	DefaultGasCostPct = 0.5
)

// Simulator produces TradeOutcomes from opportunities without touching the
// chain. No transaction is ever built or signed here.
type Simulator struct {
	slippageRatio float64
	gasCostPct    float64
	tradeSizeUSD  float64
	logger        *zap.Logger
}

// NewSimulator creates a simulator. Zero tradeSizeUSD disables USD
// conversion (outcomes carry percentages only).
func NewSimulator(tradeSizeUSD float64, log *logger.Logger) *Simulator {
	return &Simulator{
		slippageRatio: DefaultSlippageRatio,
		gasCostPct:    DefaultGasCostPct,
		tradeSizeUSD:  tradeSizeUSD,
		logger:        log.WithComponent("simulator"),
	}
}

// WithSlippageRatio overrides the slippage fraction applied to expected profit.
func (s *Simulator) WithSlippageRatio(ratio float64) *Simulator {
	if ratio >= 0 {
		s.slippageRatio = ratio
	}
	return s
}

// WithGasCostPct overrides the fallback execution cost percentage.
func (s *Simulator) WithGasCostPct(pct float64) *Simulator {
	if pct >= 0 {
		s.gasCostPct = pct
	}
	return s
}

// Simulate runs one paper execution of opp. The expected profit is the
// opportunity's gross edge; slippage eats a fixed fraction of it and gas a
// fixed percentage of trade size. An outcome is a success when the realized
// profit stays above zero after both deductions.
func (s *Simulator) Simulate(opp scanner.Opportunity) TradeOutcome {
	expected := opp.GrossProfitPct

	gasPct := opp.GasCostPct
	if gasPct <= 0 {
		gasPct = s.gasCostPct
	}

	slippage := expected * s.slippageRatio
	realized := expected - slippage - gasPct

	outcome := TradeOutcome{
		ID:                 uuid.New().String(),
		Opportunity:        opp,
		ExpectedProfitPct:  expected,
		SlippageAppliedPct: slippage,
		GasCostPct:         gasPct,
		RealizedProfitPct:  realized,
		RealizedProfitUSD:  realized / 100 * s.tradeSizeUSD,
		Success:            realized > 0,
		Timestamp:          time.Now().UTC(),
	}

	s.logger.Debug("Trade simulated",
		zap.String("network", opp.Network),
		zap.String("pair", opp.Pair),
		zap.Float64("expected_pct", expected),
		zap.Float64("realized_pct", realized),
		zap.Bool("success", outcome.Success))

	return outcome
}
