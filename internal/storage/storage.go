// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/rfarrakhov/chainarb/internal/backtest"
	"github.com/rfarrakhov/chainarb/internal/scanner"
)

// Store persists scan results and simulated outcomes across runs.
type Store interface {
	// Opportunities
	SaveOpportunity(ctx context.Context, opp scanner.Opportunity) error
	ListOpportunities(ctx context.Context, network string, limit int) ([]scanner.Opportunity, error)

	// Simulated trades
	SaveOutcome(ctx context.Context, outcome backtest.TradeOutcome) error
	SaveOutcomes(ctx context.Context, outcomes []backtest.TradeOutcome) error
	ListOutcomes(ctx context.Context, network string, limit int) ([]backtest.TradeOutcome, error)
	CountOutcomes(ctx context.Context) (int64, error)

	Close() error
}
