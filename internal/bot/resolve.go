// internal/bot/resolve.go
package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/rfarrakhov/chainarb/internal/config"
	"github.com/rfarrakhov/chainarb/internal/scanner"
)

// resolveVenues converts a chain's venue map into scanner venues, sorted by
// name so quote ordering is stable across cycles.
func resolveVenues(chain *config.ChainConfig) []scanner.Venue {
	names := make([]string, 0, len(chain.Venues))
	for name := range chain.Venues {
		names = append(names, name)
	}
	sort.Strings(names)

	venues := make([]scanner.Venue, 0, len(names))
	for _, name := range names {
		router, err := parseAddress(chain.Venues[name])
		if err != nil {
			continue
		}
		venues = append(venues, scanner.Venue{Name: name, Router: router})
	}
	return venues
}

// resolvePairs maps configured "BASE/QUOTE" strings onto the chain's token
// set. Pairs referencing tokens the chain does not list are skipped; a
// misconfigured pair should never abort the scan.
func resolvePairs(pairs []string, chain *config.ChainConfig, log *zap.Logger) []scanner.PairSpec {
	var specs []scanner.PairSpec
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "/", 2)
		if len(parts) != 2 {
			log.Debug("Skipping malformed pair", zap.String("pair", pair))
			continue
		}

		base, okB := resolveToken(chain, parts[0])
		quote, okQ := resolveToken(chain, parts[1])
		if !okB || !okQ {
			log.Debug("Pair not tradeable on this chain", zap.String("pair", pair))
			continue
		}

		specs = append(specs, scanner.PairSpec{Base: base, Quote: quote})
	}
	return specs
}

// resolveTriangles maps the chain's cycle token symbols onto scanner tokens.
// Cycles are exactly 3 tokens; a cycle with any unknown token is dropped
// entirely, without taking the chain's other cycles with it.
func resolveTriangles(chain *config.ChainConfig, log *zap.Logger) [][]scanner.Token {
	var cycles [][]scanner.Token
	for _, symbols := range chain.Triangles {
		if len(symbols) != 3 {
			log.Debug("Skipping malformed triangle",
				zap.Strings("symbols", symbols))
			continue
		}

		tokens := make([]scanner.Token, 0, 3)
		for _, symbol := range symbols {
			token, ok := resolveToken(chain, symbol)
			if !ok {
				log.Debug("Triangle token missing from chain config",
					zap.String("symbol", symbol))
				tokens = nil
				break
			}
			tokens = append(tokens, token)
		}
		if tokens != nil {
			cycles = append(cycles, tokens)
		}
	}
	return cycles
}

func resolveToken(chain *config.ChainConfig, symbol string) (scanner.Token, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	cfg, ok := chain.Tokens[symbol]
	if !ok {
		return scanner.Token{}, false
	}
	addr, err := parseAddress(cfg.Address)
	if err != nil {
		return scanner.Token{}, false
	}
	return scanner.Token{
		Symbol:   symbol,
		Address:  addr,
		Decimals: cfg.Decimals,
	}, true
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %s", s)
	}
	return common.HexToAddress(s), nil
}
