// internal/bot/runner_test.go
package bot

import (
	"testing"

	"github.com/rfarrakhov/chainarb/internal/config"
	"github.com/rfarrakhov/chainarb/internal/utils/logger"
)

func TestNewRunnerWiresServices(t *testing.T) {
	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	cfg.Storage.Enabled = false

	runner, err := NewRunner(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("Failed to construct runner: %v", err)
	}

	if runner.Bus() == nil {
		t.Error("Expected event bus to be constructed")
	}
	if runner.Aggregator() == nil {
		t.Fatal("Expected aggregator to be constructed")
	}
	if runner.Aggregator().Len() != 0 {
		t.Errorf("Expected empty aggregator, got %d outcomes", runner.Aggregator().Len())
	}
	if len(runner.pools) != len(cfg.Networks) {
		t.Errorf("Expected %d endpoint pools, got %d", len(cfg.Networks), len(runner.pools))
	}
	for _, network := range cfg.Networks {
		if runner.pools[network] == nil {
			t.Errorf("Expected pool for network %s", network)
		}
	}
	if runner.notifier.Enabled() {
		t.Error("Expected notifier disabled without telegram credentials")
	}
	if runner.store != nil {
		t.Error("Expected no store when persistence is disabled")
	}
}

func TestNewRunnerRejectsEmptyEndpointList(t *testing.T) {
	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	cfg.Networks = []string{"polygon"}
	cfg.Chains["polygon"].RPCEndpoints = nil

	if _, err := NewRunner(cfg, logger.NewNop()); err == nil {
		t.Fatal("Expected error for network with no RPC endpoints")
	}
}
