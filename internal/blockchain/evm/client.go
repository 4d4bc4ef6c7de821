// internal/blockchain/evm/client.go
package evm

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/rfarrakhov/chainarb/internal/blockchain"
)

// Client is a thin adapter over go-ethereum's ethclient bound to a single
// endpoint of a single network. It satisfies blockchain.Client.
type Client struct {
	network  string
	endpoint string
	rpc      *ethclient.Client
	timeout  time.Duration
	logger   *zap.Logger
	metadata *metadataCache
}

var _ blockchain.Client = (*Client)(nil)

// NewClient dials endpoint and wraps the connection. Dialing over HTTP is
// lazy in go-ethereum, so a successful return does not prove liveness; use
// IsConnected for that.
func NewClient(network, endpoint string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	rpc, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	cache, err := newMetadataCache(metadataCacheSize)
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		network:  network,
		endpoint: endpoint,
		rpc:      rpc,
		timeout:  timeout,
		logger:   logger.Named("evm-client").With(zap.String("network", network)),
		metadata: cache,
	}, nil
}

func (c *Client) Network() string {
	return c.network
}

// Endpoint returns the RPC URL this client is bound to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// IsConnected probes liveness with a chain id request.
func (c *Client) IsConnected(ctx context.Context) bool {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.rpc.ChainID(ctx)
	return err == nil
}

func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	number, err := c.rpc.BlockNumber(ctx)
	if err != nil {
		c.logger.Debug("BlockNumber error", zap.Error(err))
		return 0, err
	}
	return number, nil
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	price, err := c.rpc.SuggestGasPrice(ctx)
	if err != nil {
		c.logger.Debug("SuggestGasPrice error", zap.Error(err))
		return nil, err
	}
	return price, nil
}

// GetAmountsOut quotes amountIn along path via the router's getAmountsOut
// view call. The returned slice has one amount per path element; the last
// entry is the final output.
func (c *Client) GetAmountsOut(ctx context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("path must contain at least 2 tokens, got %d", len(path))
	}

	data, err := routerABI.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("pack getAmountsOut: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	msg := ethereum.CallMsg{
		To:   &router,
		Data: data,
	}
	result, err := c.rpc.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call getAmountsOut on %s: %w", router.Hex(), err)
	}

	unpacked, err := routerABI.Unpack("getAmountsOut", result)
	if err != nil {
		return nil, fmt.Errorf("unpack getAmountsOut: %w", err)
	}
	if len(unpacked) != 1 {
		return nil, fmt.Errorf("unexpected unpack result length: %d", len(unpacked))
	}

	amounts, ok := unpacked[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("amounts type assertion failed")
	}
	if len(amounts) != len(path) {
		return nil, fmt.Errorf("router returned %d amounts for a %d-token path", len(amounts), len(path))
	}

	return amounts, nil
}

func (c *Client) NativeBalance(ctx context.Context, addr common.Address) (float64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	wei, err := c.rpc.BalanceAt(ctx, addr, nil)
	if err != nil {
		return 0, fmt.Errorf("balance of %s: %w", addr.Hex(), err)
	}
	return ToDecimal(wei, 18), nil
}

func (c *Client) ERC20Balance(ctx context.Context, token, wallet common.Address, decimals int) (float64, error) {
	data, err := erc20ABI.Pack("balanceOf", wallet)
	if err != nil {
		return 0, fmt.Errorf("pack balanceOf: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	msg := ethereum.CallMsg{
		To:   &token,
		Data: data,
	}
	result, err := c.rpc.CallContract(ctx, msg, nil)
	if err != nil {
		return 0, fmt.Errorf("call balanceOf on %s: %w", token.Hex(), err)
	}

	unpacked, err := erc20ABI.Unpack("balanceOf", result)
	if err != nil {
		return 0, fmt.Errorf("unpack balanceOf: %w", err)
	}

	raw, ok := unpacked[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("balance type assertion failed")
	}

	return ToDecimal(raw, decimals), nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// ToDecimal converts a raw integer token amount into human units.
func ToDecimal(raw *big.Int, decimals int) float64 {
	if raw == nil {
		return 0
	}
	f := new(big.Float).SetInt(raw)
	f.Quo(f, big.NewFloat(math.Pow10(decimals)))
	out, _ := f.Float64()
	return out
}

// FromDecimal converts a human-unit amount into the raw integer form used on
// the wire. Fractional dust below the token's resolution is truncated.
func FromDecimal(amount float64, decimals int) *big.Int {
	f := new(big.Float).SetFloat64(amount)
	f.Mul(f, big.NewFloat(math.Pow10(decimals)))
	raw, _ := f.Int(nil)
	return raw
}
