// internal/scanner/types.go
package scanner

import (
	"context"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rfarrakhov/chainarb/internal/retry"
)

// Kind distinguishes the two opportunity shapes the scanners produce.
type Kind string

const (
	KindDirect     Kind = "direct"
	KindTriangular Kind = "triangular"
)

// Token is a tradeable asset on one network.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int
}

// Venue is a DEX router offering swap pricing.
type Venue struct {
	Name   string
	Router common.Address
}

// Quote is one venue's answer for swapping AmountIn of TokenIn into TokenOut.
// Quotes are ephemeral: recomputed on every scan, never persisted.
type Quote struct {
	Venue     string
	TokenIn   string
	TokenOut  string
	AmountIn  float64
	AmountOut float64
}

// Opportunity is an immutable snapshot of a profitable spread found in one
// scan cycle. The next cycle supersedes it; nothing mutates it.
//
// Net and viability always satisfy
// net = gross - gas - slippage, viable <=> net > minProfit.
type Opportunity struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	Network        string    `json:"network"`
	Pair           string    `json:"pair"`
	Path           []string  `json:"path"`
	BuyVenue       string    `json:"buy_venue,omitempty"`
	SellVenue      string    `json:"sell_venue,omitempty"`
	Venue          string    `json:"venue,omitempty"`
	AmountIn       float64   `json:"amount_in"`
	BuyOutput      float64   `json:"buy_output,omitempty"`
	SellOutput     float64   `json:"sell_output,omitempty"`
	GrossProfit    float64   `json:"gross_profit"`
	GrossProfitPct float64   `json:"gross_profit_pct"`
	GasCostPct     float64   `json:"gas_cost_pct"`
	SlippagePct    float64   `json:"slippage_pct"`
	NetProfitPct   float64   `json:"net_profit_pct"`
	Viable         bool      `json:"viable"`
	Timestamp      time.Time `json:"timestamp"`
}

// ToCSV converts the opportunity to a CSV record. Path segments join
// with "->", matching the persisted form.
func (o *Opportunity) ToCSV() []string {
	return []string{
		o.ID,
		o.Timestamp.Format(time.RFC3339),
		o.Network,
		string(o.Kind),
		o.Pair,
		strings.Join(o.Path, "->"),
		o.BuyVenue,
		o.SellVenue,
		o.Venue,
		strconv.FormatFloat(o.AmountIn, 'f', 6, 64),
		strconv.FormatFloat(o.GrossProfitPct, 'f', 6, 64),
		strconv.FormatFloat(o.GasCostPct, 'f', 6, 64),
		strconv.FormatFloat(o.SlippagePct, 'f', 6, 64),
		strconv.FormatFloat(o.NetProfitPct, 'f', 6, 64),
		strconv.FormatBool(o.Viable),
	}
}

// CSVHeaders returns the header row for opportunity CSV files.
func CSVHeaders() []string {
	return []string{
		"id",
		"timestamp",
		"network",
		"kind",
		"pair",
		"path",
		"buy_venue",
		"sell_venue",
		"venue",
		"amount_in",
		"gross_profit_pct",
		"gas_cost_pct",
		"slippage_pct",
		"net_profit_pct",
		"viable",
	}
}

// Quoter is the slice of the chain client the scanners need.
type Quoter interface {
	GetAmountsOut(ctx context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
}

// Params bounds one scan cycle. GasCostPct and SlippagePct are deductions
// applied to every gross figure; MinProfitPct is both the emission gate on
// gross profit and the viability threshold on net profit.
type Params struct {
	Network      string
	TradeAmount  float64
	MinProfitPct float64
	SlippagePct  float64
	GasCostPct   float64
	Retry        retry.Policy
}

// PairSpec is a direct-arbitrage pair resolved against a network's token set.
type PairSpec struct {
	Base  Token
	Quote Token
}

// Name renders the conventional BASE/QUOTE form.
func (p PairSpec) Name() string {
	return p.Base.Symbol + "/" + p.Quote.Symbol
}

// ChainSummary aggregates one network's results for a scan cycle.
type ChainSummary struct {
	Network          string  `json:"network"`
	Total            int     `json:"total"`
	Viable           int     `json:"viable"`
	AvgNetProfitPct  float64 `json:"avg_net_profit_pct"`
	BestNetProfitPct float64 `json:"best_net_profit_pct"`
}
