package watchlist

import (
	"sort"
	"strings"
	"sync"
)

// State is shared by the alert loop (reader) and the command loop (writer).
// One mutex guards both fields; no invariant spans them. The exclusion set
// only ever holds bare tickers: quoteSuffix is stripped on the way in.
type State struct {
	mu            sync.RWMutex
	alertsEnabled bool
	excluded      map[string]struct{}
	quoteSuffix   string
}

func New(quoteSuffix string) *State {
	return &State{
		alertsEnabled: true,
		excluded:      make(map[string]struct{}),
		quoteSuffix:   quoteSuffix,
	}
}

func (s *State) AlertsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alertsEnabled
}

// SetAlertsEnabled returns the previous value.
func (s *State) SetAlertsEnabled(enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.alertsEnabled
	s.alertsEnabled = enabled
	return before
}

// Exclude adds coin to the exclusion set and returns the new sorted list.
func (s *State) Exclude(coin string) []string {
	coin = s.ticker(coin)
	s.mu.Lock()
	defer s.mu.Unlock()
	if coin != "" {
		s.excluded[coin] = struct{}{}
	}
	return s.sortedLocked()
}

// Unexclude removes coin if present. The returned list reflects the set after
// the call either way.
func (s *State) Unexclude(coin string) (bool, []string) {
	coin = s.ticker(coin)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.excluded[coin]
	if ok {
		delete(s.excluded, coin)
	}
	return ok, s.sortedLocked()
}

func (s *State) IsExcluded(coin string) bool {
	coin = s.ticker(coin)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.excluded[coin]
	return ok
}

func (s *State) Excluded() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

func (s *State) sortedLocked() []string {
	out := make([]string, 0, len(s.excluded))
	for coin := range s.excluded {
		out = append(out, coin)
	}
	sort.Strings(out)
	return out
}

func (s *State) ticker(coin string) string {
	return BareTicker(coin, s.quoteSuffix)
}

func NormalizeCoin(coin string) string {
	return strings.ToUpper(strings.TrimSpace(coin))
}

// BareTicker strips the quote-currency suffix from a futures symbol, so
// "ABC_USDT" becomes "ABC".
func BareTicker(symbol, quoteSuffix string) string {
	symbol = NormalizeCoin(symbol)
	suffix := strings.ToUpper(quoteSuffix)
	if suffix != "" && strings.HasSuffix(symbol, suffix) {
		return strings.TrimSuffix(symbol, suffix)
	}
	return symbol
}
