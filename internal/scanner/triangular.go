// internal/scanner/triangular.go
package scanner

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ScanTriangular evaluates every ordered 3-token round trip A->B->C->A from
// tokens on every venue. A token never repeats inside a cycle. Each leg's
// output feeds the next leg's input; if any leg fails to quote, the whole
// path is discarded silently.
//
// Cost is O(venues x n^3) in the token-set size, so keep the set small; the
// default configuration holds it at exactly three tokens.
func (s *Scanner) ScanTriangular(ctx context.Context, tokens []Token, venues []Venue) []Opportunity {
	var opps []Opportunity

	for _, venue := range venues {
		for i := range tokens {
			for j := range tokens {
				if j == i {
					continue
				}
				for k := range tokens {
					if k == i || k == j {
						continue
					}
					if opp, ok := s.evaluateCycle(ctx, venue, tokens[i], tokens[j], tokens[k]); ok {
						opps = append(opps, opp)
					}
				}
			}
		}
	}

	return opps
}

// evaluateCycle quotes the three legs of one cycle in sequence and applies
// the profit threshold to the round trip.
func (s *Scanner) evaluateCycle(ctx context.Context, venue Venue, a, b, c Token) (Opportunity, bool) {
	initial := s.params.TradeAmount

	legs := [3][2]Token{{a, b}, {b, c}, {c, a}}
	amount := initial
	for _, leg := range legs {
		quote, err := s.fetchQuote(ctx, venue, leg[0], leg[1], amount)
		if err != nil {
			s.logger.Debug("Triangular path discarded",
				zap.String("venue", venue.Name),
				zap.String("path", cyclePath(a, b, c)),
				zap.Error(err))
			return Opportunity{}, false
		}
		amount = quote.AmountOut
	}

	profit := amount - initial
	profitPct := profit / initial * 100
	if profitPct < s.params.MinProfitPct {
		return Opportunity{}, false
	}

	return s.finalize(Opportunity{
		Kind:           KindTriangular,
		Pair:           cyclePath(a, b, c),
		Path:           []string{a.Symbol, b.Symbol, c.Symbol, a.Symbol},
		Venue:          venue.Name,
		AmountIn:       initial,
		GrossProfit:    profit,
		GrossProfitPct: profitPct,
	}), true
}

func cyclePath(a, b, c Token) string {
	return strings.Join([]string{a.Symbol, b.Symbol, c.Symbol, a.Symbol}, "->")
}
