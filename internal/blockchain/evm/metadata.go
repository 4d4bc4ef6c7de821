// internal/blockchain/evm/metadata.go
package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
)

const metadataCacheSize = 256

// TokenMetadata is the on-chain identity of an ERC20 token, fetched once and
// cached for display purposes.
type TokenMetadata struct {
	Symbol   string
	Decimals int
}

type metadataCache struct {
	cache *lru.Cache[common.Address, TokenMetadata]
}

func newMetadataCache(size int) (*metadataCache, error) {
	cache, err := lru.New[common.Address, TokenMetadata](size)
	if err != nil {
		return nil, fmt.Errorf("metadata cache: %w", err)
	}
	return &metadataCache{cache: cache}, nil
}

// TokenMetadata resolves symbol and decimals for token, hitting the chain at
// most once per address per cache lifetime.
func (c *Client) TokenMetadata(ctx context.Context, token common.Address) (TokenMetadata, error) {
	if meta, ok := c.metadata.cache.Get(token); ok {
		return meta, nil
	}

	symbol, err := c.callString(ctx, token, "symbol")
	if err != nil {
		return TokenMetadata{}, err
	}
	decimals, err := c.callUint8(ctx, token, "decimals")
	if err != nil {
		return TokenMetadata{}, err
	}

	meta := TokenMetadata{Symbol: symbol, Decimals: int(decimals)}
	c.metadata.cache.Add(token, meta)
	return meta, nil
}

func (c *Client) callString(ctx context.Context, contract common.Address, method string) (string, error) {
	result, err := c.viewCall(ctx, contract, method)
	if err != nil {
		return "", err
	}
	unpacked, err := erc20ABI.Unpack(method, result)
	if err != nil {
		return "", fmt.Errorf("unpack %s: %w", method, err)
	}
	s, ok := unpacked[0].(string)
	if !ok {
		return "", fmt.Errorf("%s type assertion failed", method)
	}
	return s, nil
}

func (c *Client) callUint8(ctx context.Context, contract common.Address, method string) (uint8, error) {
	result, err := c.viewCall(ctx, contract, method)
	if err != nil {
		return 0, err
	}
	unpacked, err := erc20ABI.Unpack(method, result)
	if err != nil {
		return 0, fmt.Errorf("unpack %s: %w", method, err)
	}
	n, ok := unpacked[0].(uint8)
	if !ok {
		// Some tokens declare decimals as uint256.
		if b, isBig := unpacked[0].(*big.Int); isBig {
			return uint8(b.Uint64()), nil
		}
		return 0, fmt.Errorf("%s type assertion failed", method)
	}
	return n, nil
}

func (c *Client) viewCall(ctx context.Context, contract common.Address, method string) ([]byte, error) {
	data, err := erc20ABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	msg := ethereum.CallMsg{
		To:   &contract,
		Data: data,
	}
	result, err := c.rpc.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, contract.Hex(), err)
	}
	return result, nil
}
