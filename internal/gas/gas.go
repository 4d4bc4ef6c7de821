// internal/gas/gas.go
package gas

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rfarrakhov/chainarb/internal/blockchain"
	"go.uber.org/zap"
)

// Speed names a gas price tier. Tiers scale the observed base price by a
// fixed multiplier.
type Speed string

const (
	SpeedSlow     Speed = "slow"
	SpeedStandard Speed = "standard"
	SpeedFast     Speed = "fast"
	SpeedInstant  Speed = "instant"
)

// DefaultGasLimit is the fixed per-swap estimate used when no per-transaction
// figure is available.
const DefaultGasLimit = 200000

// ParseSpeed validates a tier name from configuration.
func ParseSpeed(s string) (Speed, error) {
	switch Speed(s) {
	case SpeedSlow, SpeedStandard, SpeedFast, SpeedInstant:
		return Speed(s), nil
	}
	return "", fmt.Errorf("unknown gas speed: %s", s)
}

// Estimate is one gas cost computation: the observed (or substituted) base
// price, the tier-adjusted price, and the resulting cost of a swap.
type Estimate struct {
	Speed        Speed
	BasePriceWei *big.Int
	PriceWei     *big.Int
	GasLimit     uint64
	CostNative   float64 // price x limit, in the chain's native currency
	CostUSD      float64
	UsedFallback bool
}

// CostPct expresses the gas cost as a percentage of the trade size.
func (e Estimate) CostPct(tradeSizeUSD float64) float64 {
	if tradeSizeUSD <= 0 {
		return 0
	}
	return e.CostUSD / tradeSizeUSD * 100
}

// Manager computes tier-adjusted gas costs for one network.
type Manager struct {
	multipliers map[Speed]float64
	gasLimit    uint64
	logger      *zap.Logger
}

func NewManager(gasLimit uint64, logger *zap.Logger) *Manager {
	if gasLimit == 0 {
		gasLimit = DefaultGasLimit
	}
	return &Manager{
		multipliers: map[Speed]float64{
			SpeedSlow:     0.9,
			SpeedStandard: 1.0,
			SpeedFast:     1.2,
			SpeedInstant:  1.5,
		},
		gasLimit: gasLimit,
		logger:   logger.Named("gas"),
	}
}

// Estimate observes the base gas price through client and applies the tier
// multiplier. When the endpoint does not support the gas query the
// per-network default is substituted and a warning logged; the caller is
// never failed for this.
func (m *Manager) Estimate(ctx context.Context, client blockchain.Client, speed Speed, defaultGwei, nativePriceUSD float64) Estimate {
	multiplier, ok := m.multipliers[speed]
	if !ok {
		multiplier = 1.0
		speed = SpeedStandard
	}

	base, err := client.GasPrice(ctx)
	usedFallback := false
	if err != nil || base == nil || base.Sign() == 0 {
		base = GweiToWei(defaultGwei)
		usedFallback = true
		m.logger.Warn("Gas price query unsupported, using network default",
			zap.String("network", client.Network()),
			zap.Float64("default_gwei", defaultGwei),
			zap.Error(err))
	}

	price := applyMultiplier(base, multiplier)
	costNative := weiCostToNative(price, m.gasLimit)

	return Estimate{
		Speed:        speed,
		BasePriceWei: base,
		PriceWei:     price,
		GasLimit:     m.gasLimit,
		CostNative:   costNative,
		CostUSD:      costNative * nativePriceUSD,
		UsedFallback: usedFallback,
	}
}

// EstimateFromBase is Estimate without the RPC round trip, for callers that
// already hold a base price.
func (m *Manager) EstimateFromBase(base *big.Int, speed Speed, nativePriceUSD float64) Estimate {
	multiplier, ok := m.multipliers[speed]
	if !ok {
		multiplier = 1.0
		speed = SpeedStandard
	}

	price := applyMultiplier(base, multiplier)
	costNative := weiCostToNative(price, m.gasLimit)

	return Estimate{
		Speed:        speed,
		BasePriceWei: base,
		PriceWei:     price,
		GasLimit:     m.gasLimit,
		CostNative:   costNative,
		CostUSD:      costNative * nativePriceUSD,
	}
}

// NetProfit converts a gross profit into its gas-adjusted form, both in
// native currency units.
func NetProfit(gross, gasCost float64) (net float64, profitable bool) {
	net = gross - gasCost
	return net, net > 0
}

// GweiToWei converts a gwei figure into wei.
func GweiToWei(gwei float64) *big.Int {
	f := new(big.Float).SetFloat64(gwei)
	f.Mul(f, big.NewFloat(1e9))
	wei, _ := f.Int(nil)
	return wei
}

func applyMultiplier(base *big.Int, multiplier float64) *big.Int {
	f := new(big.Float).SetInt(base)
	f.Mul(f, big.NewFloat(multiplier))
	out, _ := f.Int(nil)
	return out
}

func weiCostToNative(priceWei *big.Int, gasLimit uint64) float64 {
	cost := new(big.Float).SetInt(priceWei)
	cost.Mul(cost, new(big.Float).SetUint64(gasLimit))
	cost.Quo(cost, big.NewFloat(1e18))
	out, _ := cost.Float64()
	return out
}
