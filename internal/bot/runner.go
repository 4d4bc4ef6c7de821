// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rfarrakhov/chainarb/internal/backtest"
	"github.com/rfarrakhov/chainarb/internal/blockchain/evm/rpc"
	"github.com/rfarrakhov/chainarb/internal/config"
	"github.com/rfarrakhov/chainarb/internal/events"
	"github.com/rfarrakhov/chainarb/internal/export"
	"github.com/rfarrakhov/chainarb/internal/gas"
	"github.com/rfarrakhov/chainarb/internal/notify"
	"github.com/rfarrakhov/chainarb/internal/retry"
	"github.com/rfarrakhov/chainarb/internal/scanner"
	"github.com/rfarrakhov/chainarb/internal/storage"
	"github.com/rfarrakhov/chainarb/internal/storage/sqlite"
	"github.com/rfarrakhov/chainarb/internal/utils/logger"
)

// Runner owns the scan loop: endpoint pools, the event bus, the simulator
// and everything downstream of a found opportunity.
type Runner struct {
	logger     *logger.Logger
	config     *config.Config
	bus        *events.Bus
	pools      map[string]*rpc.Pool
	gas        *gas.Manager
	simulator  *backtest.Simulator
	aggregator *backtest.Aggregator
	notifier   *notify.Telegram
	store      storage.Store
	exporter   *export.Exporter
	stats      *tallyBoard
	shutdownCh chan os.Signal
}

// historyRestoreLimit bounds how many persisted outcomes seed the aggregator
// at startup.
const historyRestoreLimit = 500

// NewRunner wires all services from config. Failing to construct any
// network's endpoint pool is fatal; optional services degrade to disabled.
func NewRunner(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	pools := make(map[string]*rpc.Pool, len(cfg.Networks))
	for _, network := range cfg.Networks {
		chain := cfg.Chains[network]
		pool, err := rpc.NewPool(network, chain.RPCEndpoints, cfg.RequestTimeout, cfg.AutoFallback, nil, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("network %s: %w", network, err)
		}
		pools[network] = pool
	}

	var store storage.Store
	if cfg.Storage.Enabled {
		db, err := sqlite.New(cfg.Storage.Path, log)
		if err != nil {
			log.Warn("Persistence disabled, failed to open database",
				zap.String("path", cfg.Storage.Path), zap.Error(err))
		} else {
			store = db
		}
	}

	return &Runner{
		logger:     log,
		config:     cfg,
		bus:        events.NewBus(log.Logger, 128),
		pools:      pools,
		gas:        gas.NewManager(cfg.GasLimit, log.Logger),
		simulator:  backtest.NewSimulator(cfg.TradeSizeUSD, log),
		aggregator: backtest.NewAggregator(),
		notifier:   notify.NewTelegram(cfg.Telegram, log),
		store:      store,
		exporter:   export.NewExporter(log.WithComponent("export")),
		stats:      newTallyBoard(),
		shutdownCh: make(chan os.Signal, 1),
	}, nil
}

// Bus exposes the event bus for additional subscribers.
func (r *Runner) Bus() *events.Bus {
	return r.bus
}

// Aggregator exposes the outcome log.
func (r *Runner) Aggregator() *backtest.Aggregator {
	return r.aggregator
}

// Run executes scan cycles until the context is cancelled or a shutdown
// signal arrives, then flushes statistics and exports.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("Signal received: " + sig.String())
			cancel()
		case <-runCtx.Done():
		}
	}()

	r.subscribeNotifier()
	r.subscribeStore()
	r.loadHistory(runCtx)
	r.checkEndpoints(runCtx)
	r.reportBalances(runCtx)

	r.logger.Info(fmt.Sprintf("Scanning %d networks every %s",
		len(r.config.Networks), r.config.ScanInterval))

	ticker := time.NewTicker(r.config.ScanInterval)
	defer ticker.Stop()

	r.runCycle(runCtx)

	for {
		select {
		case <-runCtx.Done():
			r.finish(context.Background())
			return nil
		case <-ticker.C:
			r.runCycle(runCtx)
		}
	}
}

// runCycle scans every configured network through the worker pool.
func (r *Runner) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	cycleStart := time.Now()

	jobs := make(chan string, len(r.config.Networks))
	for _, network := range r.config.Networks {
		jobs <- network
	}
	close(jobs)

	workers := r.config.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(r.config.Networks) {
		workers = len(r.config.Networks)
	}

	pool := NewWorkerPool(ctx, r, jobs, r.logger.Logger)
	pool.Start(workers)
	pool.Wait()

	for _, network := range r.config.Networks {
		tally, ok := r.stats.Network(network)
		if !ok {
			continue
		}
		r.logger.Info("Network summary",
			zap.String("network", network),
			zap.Int("scans", tally.Scans),
			zap.Int("opportunities", tally.Total),
			zap.Int("viable", tally.Viable),
			zap.Float64("avg_net_profit_pct", tally.AvgNetProfitPct()))
	}

	r.logger.Info("Scan cycle finished",
		zap.Duration("duration", time.Since(cycleStart)),
		zap.Int("outcomes_recorded", r.aggregator.Len()))
}

// scanNetwork runs one network's scan: health check, gas estimate, quote
// fan-out, then simulation and persistence of everything found. A failure
// here never propagates to other networks.
func (r *Runner) scanNetwork(ctx context.Context, network string, log *zap.Logger) {
	chain := r.config.Chains[network]
	pool := r.pools[network]
	start := time.Now()

	health := pool.CheckAll(ctx)
	r.publishHealth(network, health)

	client, err := pool.Client(ctx)
	if err != nil {
		log.Warn("Network skipped, no healthy endpoint",
			zap.String("network", network), zap.Error(err))
		_ = r.bus.Publish(&events.ScanFailedEvent{
			BaseEvent: events.NewBase(events.ScanFailed),
			Network:   network,
			Error:     err,
		})
		return
	}
	defer client.Close()

	speed, err := gas.ParseSpeed(r.config.GasSpeed)
	if err != nil {
		speed = gas.SpeedStandard
	}
	estimate := r.gas.Estimate(ctx, client, speed, chain.DefaultGasGwei, chain.NativePriceUSD)

	policy := retry.DefaultPolicy()
	if r.config.Retries > 0 {
		policy.MaxAttempts = r.config.Retries
	}

	params := scanner.Params{
		Network:      network,
		TradeAmount:  r.config.TradeAmount,
		MinProfitPct: r.config.MinProfitPct,
		SlippagePct:  r.config.SlippagePct,
		GasCostPct:   estimate.CostPct(r.config.TradeSizeUSD),
		Retry:        policy,
	}

	pairs := resolvePairs(r.config.Pairs, chain, log)
	triangles := resolveTriangles(chain, log)
	venues := resolveVenues(chain)

	_ = r.bus.Publish(&events.ScanStartedEvent{
		BaseEvent: events.NewBase(events.ScanStarted),
		Network:   network,
		Pairs:     len(pairs),
	})

	opps := scanner.New(client, params, log).Scan(ctx, pairs, triangles, venues)
	r.stats.Record(scanner.Summarize(network, opps))

	viable := 0
	for i := range opps {
		opp := opps[i]
		if opp.Viable {
			viable++
		}

		_ = r.bus.Publish(&events.OpportunityFoundEvent{
			BaseEvent:   events.NewBase(events.OpportunityFound),
			Opportunity: opp,
		})

		// Paper-execute only what the thresholds say is worth executing.
		if !opp.Viable {
			continue
		}
		outcome := r.simulator.Simulate(opp)
		r.aggregator.Append(outcome)
		_ = r.bus.Publish(&events.TradeSimulatedEvent{
			BaseEvent: events.NewBase(events.TradeSimulated),
			Outcome:   outcome,
		})
	}

	_ = r.bus.Publish(&events.ScanCompletedEvent{
		BaseEvent:     events.NewBase(events.ScanCompleted),
		Network:       network,
		Opportunities: len(opps),
		Viable:        viable,
		Duration:      time.Since(start),
	})

	log.Info("Scan completed",
		zap.String("network", network),
		zap.Int("pairs", len(pairs)),
		zap.Int("opportunities", len(opps)),
		zap.Int("viable", viable),
		zap.Bool("gas_fallback", estimate.UsedFallback),
		zap.Duration("duration", time.Since(start)))
}

// checkEndpoints runs the startup health pass over every pool in parallel
// and logs a per-endpoint report.
func (r *Runner) checkEndpoints(ctx context.Context) {
	defer r.logger.TrackPerformance("endpoint_check")()
	r.logger.Info("Checking RPC endpoints",
		zap.Int("networks", len(r.pools)))

	g, gctx := errgroup.WithContext(ctx)
	for network, pool := range r.pools {
		g.Go(func() error {
			netLog := r.logger.WithNetwork(network)
			health := pool.CheckAll(gctx)
			r.publishHealth(network, health)

			for _, h := range health {
				if h.Online() {
					netLog.Info("Endpoint online",
						zap.String("url", h.URL),
						zap.Duration("latency", h.Latency),
						zap.Uint64("block", h.BlockNumber),
						zap.Bool("gas_support", h.GasSupport))
				} else {
					netLog.Warn("Endpoint offline",
						zap.String("url", h.URL),
						zap.String("reason", h.LastError))
				}
			}
			netLog.Info("Best endpoint selected",
				zap.String("url", pool.BestEndpoint()))
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) publishHealth(network string, health []rpc.EndpointHealth) {
	for _, h := range health {
		_ = r.bus.Publish(&events.EndpointCheckedEvent{
			BaseEvent: events.NewBase(events.EndpointChecked),
			Network:   network,
			Endpoint:  h.URL,
			Online:    h.Online(),
			Latency:   h.Latency,
		})
		if !h.Online() {
			_ = r.bus.Publish(&events.EndpointDegradedEvent{
				BaseEvent: events.NewBase(events.EndpointDegraded),
				Network:   network,
				Endpoint:  h.URL,
				Reason:    h.LastError,
			})
		}
	}
}

// reportBalances logs the configured wallet's native and token balances on
// every network. Purely informational; any failure is logged and skipped.
func (r *Runner) reportBalances(ctx context.Context) {
	if r.config.WalletAddress == "" {
		return
	}

	wallet, err := parseAddress(r.config.WalletAddress)
	if err != nil {
		r.logger.Warn("Invalid wallet address, skipping balance report",
			zap.String("address", r.config.WalletAddress))
		return
	}

	for _, network := range r.config.Networks {
		netLog := r.logger.WithNetwork(network)
		chain := r.config.Chains[network]
		client, err := r.pools[network].Client(ctx)
		if err != nil {
			netLog.Warn("Balance report skipped", zap.Error(err))
			continue
		}

		native, err := client.NativeBalance(ctx, wallet)
		if err != nil {
			netLog.Warn("Failed to fetch native balance", zap.Error(err))
		} else {
			netLog.Info("Wallet balance",
				zap.String("token", chain.NativeToken),
				zap.Float64("balance", native),
				zap.Float64("balance_usd", native*chain.NativePriceUSD))
		}

		for symbol, token := range chain.Tokens {
			addr, err := parseAddress(token.Address)
			if err != nil {
				continue
			}
			balance, err := client.ERC20Balance(ctx, addr, wallet, token.Decimals)
			if err != nil {
				netLog.Debug("Failed to fetch token balance",
					zap.String("token", symbol),
					zap.Error(err))
				continue
			}
			if balance > 0 {
				netLog.Info("Wallet balance",
					zap.String("token", symbol),
					zap.Float64("balance", balance))
			}
		}

		client.Close()
	}
}

// subscribeNotifier routes viable opportunities to Telegram.
func (r *Runner) subscribeNotifier() {
	if !r.notifier.Enabled() {
		return
	}
	r.bus.SubscribeFunc(events.OpportunityFound, func(ctx context.Context, e events.Event) error {
		evt, ok := e.(*events.OpportunityFoundEvent)
		if !ok || !evt.Opportunity.Viable {
			return nil
		}
		return r.notifier.NotifyOpportunity(ctx, evt.Opportunity)
	})
}

// subscribeStore persists scan results as they are published. Persistence
// failures are logged and swallowed; the in-memory log is the source of
// truth within a run.
func (r *Runner) subscribeStore() {
	if r.store == nil {
		return
	}
	r.bus.SubscribeFunc(events.OpportunityFound, func(ctx context.Context, e events.Event) error {
		evt, ok := e.(*events.OpportunityFoundEvent)
		if !ok {
			return nil
		}
		if err := r.store.SaveOpportunity(ctx, evt.Opportunity); err != nil {
			r.logger.Warn("Failed to persist opportunity", zap.Error(err))
		}
		return nil
	})
	r.bus.SubscribeFunc(events.TradeSimulated, func(ctx context.Context, e events.Event) error {
		evt, ok := e.(*events.TradeSimulatedEvent)
		if !ok {
			return nil
		}
		if err := r.store.SaveOutcome(ctx, evt.Outcome); err != nil {
			r.logger.Warn("Failed to persist outcome", zap.Error(err))
		}
		return nil
	})
}

// loadHistory seeds the aggregator with recently persisted outcomes so
// statistics survive restarts.
func (r *Runner) loadHistory(ctx context.Context) {
	if r.store == nil {
		return
	}
	outcomes, err := r.store.ListOutcomes(ctx, "", historyRestoreLimit)
	if err != nil {
		r.logger.Warn("Failed to load trade history", zap.Error(err))
		return
	}
	if len(outcomes) == 0 {
		return
	}
	// Listing returns newest first; replay in chronological order.
	for i := len(outcomes) - 1; i >= 0; i-- {
		r.aggregator.Append(outcomes[i])
	}
	r.logger.Info("Restored trade history", zap.Int("outcomes", len(outcomes)))
}

// finish logs session statistics, pushes the summary notification, drains
// the bus, exports results and closes storage.
func (r *Runner) finish(ctx context.Context) {
	stats := r.aggregator.Statistics()
	r.logger.Info("Session statistics",
		zap.Int("trades", stats.TotalTrades),
		zap.Int("wins", stats.SuccessfulTrades),
		zap.Int("losses", stats.FailedTrades),
		zap.Float64("win_rate", stats.WinRate),
		zap.Float64("net_profit_usd", stats.NetProfitUSD),
		zap.Float64("profit_factor", stats.ProfitFactor))

	if r.notifier.Enabled() {
		notifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := r.notifier.NotifySummary(notifyCtx, stats); err != nil {
			r.logger.Warn("Failed to send summary notification", zap.Error(err))
		}
		cancel()
	}

	// The final cycle's writes ride the bus; drain it before reading
	// storage back for export.
	busCtx, busCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := r.bus.Shutdown(busCtx); err != nil {
		r.logger.Warn("Event bus drain incomplete", zap.Error(err))
	}
	busCancel()

	if r.config.Export.Directory != "" && r.aggregator.Len() > 0 {
		_, err := r.exporter.ExportOutcomes(r.aggregator.All(), export.Options{
			Format:    export.FormatCSV,
			OutputDir: r.config.Export.Directory,
		})
		if err != nil {
			r.logger.LogError("Failed to export outcomes", err)
		}
	}

	if r.config.Export.Directory != "" && r.store != nil {
		opps, err := r.store.ListOpportunities(ctx, "", historyRestoreLimit)
		if err == nil && len(opps) > 0 {
			_, err = r.exporter.ExportOpportunities(opps, export.Options{
				Format:    export.FormatCSV,
				OutputDir: r.config.Export.Directory,
			})
		}
		if err != nil {
			r.logger.LogError("Failed to export opportunities", err)
		}
	}

	handler := NewShutdownHandler(r.logger.Logger, 15*time.Second)
	if r.store != nil {
		handler.Add("storage", r.store)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	handler.Shutdown(shutdownCtx)

	if err := r.logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
	}
}
