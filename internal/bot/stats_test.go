// internal/bot/stats_test.go
package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rfarrakhov/chainarb/internal/scanner"
)

func TestTallyBoardAccumulates(t *testing.T) {
	board := newTallyBoard()

	board.Record(scanner.ChainSummary{Network: "polygon", Total: 4, Viable: 1, AvgNetProfitPct: 0.5})
	board.Record(scanner.ChainSummary{Network: "polygon", Total: 2, Viable: 2, AvgNetProfitPct: 2.0})
	board.Record(scanner.ChainSummary{Network: "bsc", Total: 1, Viable: 0, AvgNetProfitPct: -0.2})

	tally, ok := board.Network("polygon")
	if !ok {
		t.Fatal("Expected a polygon tally after two cycles")
	}
	if tally.Scans != 2 || tally.Total != 6 || tally.Viable != 3 {
		t.Errorf("Expected 2 scans / 6 total / 3 viable, got %d/%d/%d",
			tally.Scans, tally.Total, tally.Viable)
	}
	// 4*0.5 + 2*2.0 = 6.0 across 6 opportunities.
	assert.InDelta(t, 1.0, tally.AvgNetProfitPct(), 1e-9)

	if _, ok := board.Network("arbitrum"); ok {
		t.Error("Expected no tally for a network never recorded")
	}
}

func TestTallyBoardEmptyCycle(t *testing.T) {
	board := newTallyBoard()
	board.Record(scanner.ChainSummary{Network: "base"})

	tally, ok := board.Network("base")
	if !ok {
		t.Fatal("Expected a base tally after an empty cycle")
	}
	if tally.Scans != 1 || tally.Total != 0 {
		t.Errorf("Expected 1 scan with 0 opportunities, got %d/%d", tally.Scans, tally.Total)
	}
	if avg := tally.AvgNetProfitPct(); avg != 0 {
		t.Errorf("Expected zero average with no opportunities, got %f", avg)
	}
}
