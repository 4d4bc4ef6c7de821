// internal/backtest/types.go
package backtest

import (
	"fmt"
	"time"

	"github.com/rfarrakhov/chainarb/internal/scanner"
)

// TradeOutcome is one simulated execution of an opportunity. Outcomes are
// immutable once recorded and only ever appended to the aggregator's log.
type TradeOutcome struct {
	ID                 string              `json:"id"`
	Opportunity        scanner.Opportunity `json:"opportunity"`
	ExpectedProfitPct  float64             `json:"expected_profit_pct"`
	SlippageAppliedPct float64             `json:"slippage_applied_pct"`
	GasCostPct         float64             `json:"gas_cost_pct"`
	RealizedProfitPct  float64             `json:"realized_profit_pct"`
	RealizedProfitUSD  float64             `json:"realized_profit_usd"`
	Success            bool                `json:"success"`
	Timestamp          time.Time           `json:"timestamp"`
}

// ToCSV converts the outcome to a CSV record.
func (t *TradeOutcome) ToCSV() []string {
	return []string{
		t.ID,
		t.Timestamp.Format(time.RFC3339),
		t.Opportunity.Network,
		string(t.Opportunity.Kind),
		t.Opportunity.Pair,
		t.Opportunity.BuyVenue,
		t.Opportunity.SellVenue,
		formatFloat(t.ExpectedProfitPct),
		formatFloat(t.SlippageAppliedPct),
		formatFloat(t.GasCostPct),
		formatFloat(t.RealizedProfitPct),
		formatFloat(t.RealizedProfitUSD),
		formatBool(t.Success),
	}
}

// CSVHeaders returns the header row for outcome CSV files.
func CSVHeaders() []string {
	return []string{
		"id",
		"timestamp",
		"network",
		"kind",
		"pair",
		"buy_venue",
		"sell_venue",
		"expected_profit_pct",
		"slippage_applied_pct",
		"gas_cost_pct",
		"realized_profit_pct",
		"realized_profit_usd",
		"success",
	}
}

// AggregateStats is derived on demand from the full outcome log. A zero
// value is the correct answer for an empty log.
type AggregateStats struct {
	TotalTrades      int     `json:"total_trades"`
	SuccessfulTrades int     `json:"successful_trades"`
	FailedTrades     int     `json:"failed_trades"`
	WinRate          float64 `json:"win_rate"`
	TotalProfitUSD   float64 `json:"total_profit_usd"`
	TotalLossUSD     float64 `json:"total_loss_usd"`
	NetProfitUSD     float64 `json:"net_profit_usd"`
	AvgProfitUSD     float64 `json:"avg_profit_usd"`
	BestTradeUSD     float64 `json:"best_trade_usd"`
	WorstTradeUSD    float64 `json:"worst_trade_usd"`
	ProfitFactor     float64 `json:"profit_factor"`
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return fmt.Sprintf("%.6f", f)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
