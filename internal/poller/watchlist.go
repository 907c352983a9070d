package poller

import (
	"sync"

	"github.com/quote-feed/pkg/models"
)

// Watchlist tracks which symbols each asset class polls, preserving
// insertion order and rejecting duplicates.
type Watchlist struct {
	mu      sync.RWMutex
	classes map[models.AssetClass][]string
	seen    map[string]struct{}
}

func NewWatchlist() *Watchlist {
	return &Watchlist{
		classes: make(map[models.AssetClass][]string),
		seen:    make(map[string]struct{}),
	}
}

// Add registers a symbol under a class. It reports whether the symbol
// was new; adding an existing symbol is a no-op.
func (w *Watchlist) Add(class models.AssetClass, symbol string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.seen[symbol]; ok {
		return false
	}
	w.seen[symbol] = struct{}{}
	w.classes[class] = append(w.classes[class], symbol)
	return true
}

// Snapshot returns a copy of the current class-to-symbols mapping.
func (w *Watchlist) Snapshot() map[models.AssetClass][]string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snapshot := make(map[models.AssetClass][]string, len(w.classes))
	for class, symbols := range w.classes {
		snapshot[class] = append([]string(nil), symbols...)
	}
	return snapshot
}

func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.seen)
}
