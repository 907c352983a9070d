package poller

import (
	"sort"
	"sync"

	"github.com/quote-feed/pkg/models"
)

// Store holds the latest quote per asset. Quotes are copied on the way
// in and out so callers can never mutate a stored snapshot.
type Store struct {
	mu     sync.RWMutex
	quotes map[string]*models.Quote
}

func NewStore() *Store {
	return &Store{quotes: make(map[string]*models.Quote)}
}

func (s *Store) Set(quote *models.Quote) {
	if quote == nil {
		return
	}
	s.mu.Lock()
	s.quotes[quote.Asset] = quote.Clone()
	s.mu.Unlock()
}

func (s *Store) Get(asset string) (*models.Quote, bool) {
	s.mu.RLock()
	quote, ok := s.quotes[asset]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return quote.Clone(), true
}

// All returns every stored quote ordered by asset symbol.
func (s *Store) All() []*models.Quote {
	s.mu.RLock()
	quotes := make([]*models.Quote, 0, len(s.quotes))
	for _, quote := range s.quotes {
		quotes = append(quotes, quote.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].Asset < quotes[j].Asset
	})
	return quotes
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes)
}
