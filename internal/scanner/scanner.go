// internal/scanner/scanner.go
package scanner

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rfarrakhov/chainarb/internal/blockchain/evm"
	"github.com/rfarrakhov/chainarb/internal/retry"
	"go.uber.org/zap"
)

// Scanner turns raw venue quotes into ranked, profit-annotated opportunities
// for one network. It owns no state across cycles beyond its parameters.
type Scanner struct {
	client Quoter
	params Params
	logger *zap.Logger
}

func New(client Quoter, params Params, logger *zap.Logger) *Scanner {
	return &Scanner{
		client: client,
		params: params,
		logger: logger.Named("scanner").With(zap.String("network", params.Network)),
	}
}

// Scan runs the direct scanner over every pair and the triangular scanner
// over every configured cycle, returning all emitted opportunities sorted
// by descending net profit.
func (s *Scanner) Scan(ctx context.Context, pairs []PairSpec, triangles [][]Token, venues []Venue) []Opportunity {
	var opps []Opportunity

	for _, pair := range pairs {
		opps = append(opps, s.ScanDirect(ctx, pair, venues)...)
	}
	for _, cycle := range triangles {
		if len(cycle) < 3 {
			continue
		}
		opps = append(opps, s.ScanTriangular(ctx, cycle, venues)...)
	}

	SortByNetProfit(opps)
	return opps
}

// fetchQuote asks one venue for one swap, converting between human units and
// raw token amounts. Retries ride the shared policy; the retry loop is local
// to this venue and never interleaves with another's.
func (s *Scanner) fetchQuote(ctx context.Context, venue Venue, tokenIn, tokenOut Token, amountIn float64) (Quote, error) {
	rawIn := evm.FromDecimal(amountIn, tokenIn.Decimals)
	path := []common.Address{tokenIn.Address, tokenOut.Address}

	amounts, err := retry.Do(ctx, s.logger, s.params.Retry, func() ([]*big.Int, error) {
		return s.client.GetAmountsOut(ctx, venue.Router, rawIn, path)
	})
	if err != nil {
		return Quote{}, fmt.Errorf("quote %s->%s on %s: %w", tokenIn.Symbol, tokenOut.Symbol, venue.Name, err)
	}

	out := evm.ToDecimal(amounts[len(amounts)-1], tokenOut.Decimals)
	if out <= 0 {
		return Quote{}, fmt.Errorf("quote %s->%s on %s: zero output", tokenIn.Symbol, tokenOut.Symbol, venue.Name)
	}

	return Quote{
		Venue:     venue.Name,
		TokenIn:   tokenIn.Symbol,
		TokenOut:  tokenOut.Symbol,
		AmountIn:  amountIn,
		AmountOut: out,
	}, nil
}

// finalize applies the gas and slippage deductions and the viability rule to
// a gross figure, producing the immutable opportunity record.
func (s *Scanner) finalize(opp Opportunity) Opportunity {
	opp.ID = uuid.New().String()
	opp.Network = s.params.Network
	opp.GasCostPct = s.params.GasCostPct
	opp.SlippagePct = s.params.SlippagePct
	opp.NetProfitPct = opp.GrossProfitPct - opp.GasCostPct - opp.SlippagePct
	opp.Viable = opp.NetProfitPct > s.params.MinProfitPct
	opp.Timestamp = time.Now().UTC()
	return opp
}

// SortByNetProfit orders opportunities descending by net profit percentage.
func SortByNetProfit(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].NetProfitPct > opps[j].NetProfitPct
	})
}

// Summarize folds one network's cycle results into per-chain counters.
func Summarize(network string, opps []Opportunity) ChainSummary {
	summary := ChainSummary{Network: network, Total: len(opps)}
	if len(opps) == 0 {
		return summary
	}

	var sum float64
	best := opps[0].NetProfitPct
	for _, opp := range opps {
		if opp.Viable {
			summary.Viable++
		}
		sum += opp.NetProfitPct
		if opp.NetProfitPct > best {
			best = opp.NetProfitPct
		}
	}
	summary.AvgNetProfitPct = sum / float64(len(opps))
	summary.BestNetProfitPct = best
	return summary
}
