// internal/scanner/direct.go
package scanner

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScanDirect finds direct arbitrage for one pair across the configured
// venues. Venues whose quote fails after retries are excluded from the
// comparison; they never abort the scan. With fewer than two usable quotes
// the result is empty, not an error.
func (s *Scanner) ScanDirect(ctx context.Context, pair PairSpec, venues []Venue) []Opportunity {
	quotes, failures := s.collectQuotes(ctx, pair, venues)

	for venue, err := range failures {
		s.logger.Debug("Venue excluded from comparison",
			zap.String("pair", pair.Name()),
			zap.String("venue", venue),
			zap.Error(err))
	}

	if len(quotes) < 2 {
		return nil
	}

	var opps []Opportunity
	for i := 0; i < len(quotes); i++ {
		for j := i + 1; j < len(quotes); j++ {
			buy, sell := quotes[i], quotes[j]
			// Lower output is the buy side by construction, so profit >= 0.
			if sell.AmountOut < buy.AmountOut {
				buy, sell = sell, buy
			}
			if buy.AmountOut <= 0 {
				continue
			}

			profit := sell.AmountOut - buy.AmountOut
			profitPct := profit / buy.AmountOut * 100
			if profitPct < s.params.MinProfitPct {
				continue
			}

			opps = append(opps, s.finalize(Opportunity{
				Kind:           KindDirect,
				Pair:           pair.Name(),
				Path:           []string{pair.Base.Symbol, pair.Quote.Symbol},
				BuyVenue:       buy.Venue,
				SellVenue:      sell.Venue,
				AmountIn:       s.params.TradeAmount,
				BuyOutput:      buy.AmountOut,
				SellOutput:     sell.AmountOut,
				GrossProfit:    profit,
				GrossProfitPct: profitPct,
			}))
		}
	}

	return opps
}

// collectQuotes fans out one quote request per venue and gathers the
// successes. Failures are returned per venue so the caller can report why a
// venue dropped out without treating it as an error.
func (s *Scanner) collectQuotes(ctx context.Context, pair PairSpec, venues []Venue) ([]Quote, map[string]error) {
	var (
		mu       sync.Mutex
		quotes   []Quote
		failures = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, venue := range venues {
		g.Go(func() error {
			quote, err := s.fetchQuote(gctx, venue, pair.Base, pair.Quote, s.params.TradeAmount)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[venue.Name] = err
				return nil
			}
			quotes = append(quotes, quote)
			return nil
		})
	}
	_ = g.Wait()

	// Deterministic comparison order regardless of completion order.
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Venue < quotes[j].Venue })
	return quotes, failures
}
