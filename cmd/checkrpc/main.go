// cmd/checkrpc/main.go
//
// One-shot endpoint diagnostic: probes every configured RPC endpoint,
// prints a health report and verifies a sample DEX quote works. Run it
// before leaving the scanner unattended.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/rfarrakhov/chainarb/internal/blockchain/evm"
	"github.com/rfarrakhov/chainarb/internal/blockchain/evm/rpc"
	"github.com/rfarrakhov/chainarb/internal/config"
	"github.com/rfarrakhov/chainarb/internal/utils/logger"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (built-in defaults when empty)")
	timeout := flag.Duration("timeout", 5*time.Second, "per-endpoint probe timeout")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// This command reports on stdout; keep the logger quiet.
	logCfg := logger.DefaultConfig()
	logCfg.Level = "error"
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	totalOnline := 0
	var quotePool *rpc.Pool
	var quoteNetwork string

	for _, network := range cfg.Networks {
		chain := cfg.Chains[network]

		fmt.Printf("\n%s\n", strings.ToUpper(network))
		fmt.Println(strings.Repeat("=", 70))

		pool, err := rpc.NewPool(network, chain.RPCEndpoints, *timeout, cfg.AutoFallback, nil, log.Logger)
		if err != nil {
			fmt.Printf("  error: %v\n", err)
			continue
		}

		working := 0
		for _, h := range pool.CheckAll(ctx) {
			if h.Online() {
				working++
				gasNote := "gas ok"
				if !h.GasSupport {
					gasNote = "gas unsupported, defaults apply"
				}
				fmt.Printf("  [OK]   %-42s block %-10d %5dms  %s\n",
					h.URL, h.BlockNumber, h.Latency.Milliseconds(), gasNote)
			} else {
				fmt.Printf("  [FAIL] %-42s %s\n", h.URL, h.LastError)
			}
		}

		fmt.Printf("\n  Working endpoints: %d/%d\n", working, len(chain.RPCEndpoints))
		if working > 0 {
			fmt.Printf("  Recommended: %s\n", pool.BestEndpoint())
			totalOnline += working
			if quotePool == nil {
				quotePool = pool
				quoteNetwork = network
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 70))
	if totalOnline == 0 {
		fmt.Println("No working endpoints found. Check connectivity or configure other RPCs.")
		os.Exit(1)
	}

	quoteOK := verifyQuote(ctx, cfg, quoteNetwork, quotePool)

	fmt.Printf("\nEndpoints online: %d\n", totalOnline)
	if quoteOK {
		fmt.Println("DEX quotes:       working")
		fmt.Println("\nReady to run the scanner.")
	} else {
		fmt.Println("DEX quotes:       FAILED")
		fmt.Println("\nEndpoints respond but price queries fail; arbitrage detection will not work.")
		os.Exit(1)
	}
}

// verifyQuote asks the first configured venue to price the first tradeable
// pair, proving the router call path end to end.
func verifyQuote(ctx context.Context, cfg *config.Config, network string, pool *rpc.Pool) bool {
	chain := cfg.Chains[network]

	fmt.Printf("\nVerifying DEX quote on %s\n", network)

	client, err := pool.Client(ctx)
	if err != nil {
		fmt.Printf("  failed to connect: %v\n", err)
		return false
	}
	defer client.Close()

	venueNames := make([]string, 0, len(chain.Venues))
	for name := range chain.Venues {
		venueNames = append(venueNames, name)
	}
	sort.Strings(venueNames)

	for _, pair := range cfg.Pairs {
		parts := strings.SplitN(pair, "/", 2)
		if len(parts) != 2 {
			continue
		}
		base, okB := chain.Tokens[strings.ToUpper(parts[0])]
		quote, okQ := chain.Tokens[strings.ToUpper(parts[1])]
		if !okB || !okQ || len(venueNames) == 0 {
			continue
		}

		venue := venueNames[0]
		router := common.HexToAddress(chain.Venues[venue])
		path := []common.Address{
			common.HexToAddress(base.Address),
			common.HexToAddress(quote.Address),
		}
		amountIn := evm.FromDecimal(cfg.TradeAmount, base.Decimals)

		amounts, err := client.GetAmountsOut(ctx, router, amountIn, path)
		if err != nil {
			fmt.Printf("  %s on %s: %v\n", pair, venue, err)
			return false
		}

		out := evm.ToDecimal(amounts[len(amounts)-1], quote.Decimals)
		fmt.Printf("  %s on %s: %g %s -> %.2f %s\n",
			pair, venue, cfg.TradeAmount, parts[0], out, parts[1])

		if evmClient, ok := client.(*evm.Client); ok {
			printTokenIdentity(ctx, evmClient, parts[0], base)
			printTokenIdentity(ctx, evmClient, parts[1], quote)
		}
		return true
	}

	fmt.Println("  no tradeable pair found in config")
	return false
}

// printTokenIdentity cross-checks a configured token against its on-chain
// symbol and decimals. Informational only; quoting is the real gate.
func printTokenIdentity(ctx context.Context, client *evm.Client, symbol string, token config.Token) {
	meta, err := client.TokenMetadata(ctx, common.HexToAddress(token.Address))
	if err != nil {
		fmt.Printf("  %s metadata: %v\n", symbol, err)
		return
	}

	note := ""
	if meta.Decimals != token.Decimals {
		note = fmt.Sprintf("  (config says %d decimals)", token.Decimals)
	}
	fmt.Printf("  %s on-chain: %s, %d decimals%s\n", symbol, meta.Symbol, meta.Decimals, note)
}
