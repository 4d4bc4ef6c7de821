// internal/bot/stats.go
package bot

import (
	"sync"

	"github.com/rfarrakhov/chainarb/internal/scanner"
)

// chainTally is one network's rolling counters across scan cycles.
type chainTally struct {
	Scans  int
	Total  int
	Viable int
	netSum float64
}

// AvgNetProfitPct averages net profit over every opportunity the network
// has emitted so far.
func (t chainTally) AvgNetProfitPct() float64 {
	if t.Total == 0 {
		return 0
	}
	return t.netSum / float64(t.Total)
}

// tallyBoard accumulates per-network scan summaries for the run report.
// Scans for different networks run concurrently, so access is serialized.
type tallyBoard struct {
	mu      sync.Mutex
	byChain map[string]*chainTally
}

func newTallyBoard() *tallyBoard {
	return &tallyBoard{byChain: make(map[string]*chainTally)}
}

// Record folds one cycle's summary into the network's rolling tally.
func (b *tallyBoard) Record(summary scanner.ChainSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tally, ok := b.byChain[summary.Network]
	if !ok {
		tally = &chainTally{}
		b.byChain[summary.Network] = tally
	}
	tally.Scans++
	tally.Total += summary.Total
	tally.Viable += summary.Viable
	tally.netSum += summary.AvgNetProfitPct * float64(summary.Total)
}

// Network returns a copy of one network's tally.
func (b *tallyBoard) Network(name string) (chainTally, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tally, ok := b.byChain[name]
	if !ok {
		return chainTally{}, false
	}
	return *tally, true
}
