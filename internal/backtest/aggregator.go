// internal/backtest/aggregator.go
package backtest

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Aggregator keeps an append-only log of simulated outcomes. History is
// never discarded; statistics are recomputed from the full log on each
// call rather than maintained as running counters.
type Aggregator struct {
	mu       sync.RWMutex
	outcomes []TradeOutcome
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		outcomes: make([]TradeOutcome, 0, 256),
	}
}

// Append records an outcome. Missing IDs and timestamps are backfilled so
// callers can hand over partially populated records.
func (a *Aggregator) Append(outcome TradeOutcome) {
	if outcome.ID == "" {
		outcome.ID = uuid.New().String()
	}
	if outcome.Timestamp.IsZero() {
		outcome.Timestamp = time.Now().UTC()
	}

	a.mu.Lock()
	a.outcomes = append(a.outcomes, outcome)
	a.mu.Unlock()
}

// Len reports the number of recorded outcomes.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.outcomes)
}

// All returns a copy of the full log in insertion order.
func (a *Aggregator) All() []TradeOutcome {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]TradeOutcome, len(a.outcomes))
	copy(out, a.outcomes)
	return out
}

// Recent returns a copy of the last n outcomes, newest last. n larger than
// the log returns everything.
func (a *Aggregator) Recent(n int) []TradeOutcome {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	if n > len(a.outcomes) {
		n = len(a.outcomes)
	}

	out := make([]TradeOutcome, n)
	copy(out, a.outcomes[len(a.outcomes)-n:])
	return out
}

// Statistics recomputes aggregate stats from the whole log. An empty log
// yields the zero value. Profit factor is total profit over total loss;
// with zero losses and positive profit it is +Inf.
func (a *Aggregator) Statistics() AggregateStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var stats AggregateStats
	if len(a.outcomes) == 0 {
		return stats
	}

	stats.TotalTrades = len(a.outcomes)
	stats.BestTradeUSD = a.outcomes[0].RealizedProfitUSD
	stats.WorstTradeUSD = a.outcomes[0].RealizedProfitUSD

	var netSum float64
	for _, o := range a.outcomes {
		if o.Success {
			stats.SuccessfulTrades++
		} else {
			stats.FailedTrades++
		}

		usd := o.RealizedProfitUSD
		netSum += usd
		if usd > 0 {
			stats.TotalProfitUSD += usd
		} else {
			stats.TotalLossUSD += -usd
		}
		if usd > stats.BestTradeUSD {
			stats.BestTradeUSD = usd
		}
		if usd < stats.WorstTradeUSD {
			stats.WorstTradeUSD = usd
		}
	}

	stats.NetProfitUSD = netSum
	stats.AvgProfitUSD = netSum / float64(stats.TotalTrades)
	stats.WinRate = float64(stats.SuccessfulTrades) / float64(stats.TotalTrades) * 100

	switch {
	case stats.TotalLossUSD > 0:
		stats.ProfitFactor = stats.TotalProfitUSD / stats.TotalLossUSD
	case stats.TotalProfitUSD > 0:
		stats.ProfitFactor = math.Inf(1)
	default:
		stats.ProfitFactor = 0
	}

	return stats
}
