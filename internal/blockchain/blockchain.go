// internal/blockchain/blockchain.go
package blockchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Client is the read-only query surface the scanner needs from a chain.
// Implementations wrap one RPC endpoint; failover happens above this layer.
type Client interface {
	// Network returns the chain name this client is connected to.
	Network() string
	// IsConnected reports basic liveness of the underlying endpoint.
	IsConnected(ctx context.Context) bool
	// LatestBlockNumber fetches the current block height.
	LatestBlockNumber(ctx context.Context) (uint64, error)
	// GasPrice returns the suggested gas price in wei. Some endpoints do not
	// support the query; callers must treat that as a degraded capability,
	// not a dead endpoint.
	GasPrice(ctx context.Context) (*big.Int, error)
	// GetAmountsOut quotes a swap of amountIn along path on a V2-style
	// router, returning the amounts for every hop. May fail transiently.
	GetAmountsOut(ctx context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
	// NativeBalance returns the native token balance in human units.
	NativeBalance(ctx context.Context, addr common.Address) (float64, error)
	// ERC20Balance returns a token balance in human units for the given
	// decimals.
	ERC20Balance(ctx context.Context, token, wallet common.Address, decimals int) (float64, error)
	// Close releases the underlying connection.
	Close()
}
