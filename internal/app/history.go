package app

import (
	"context"
	"sync"
)

// HistoryFetcher reads prior exchanges from the remote history store.
type HistoryFetcher interface {
	History(ctx context.Context) ([]ExchangeRecord, error)
}

// HistoryLoader seeds the transcript from the remote history store exactly
// once per identity-present transition. Fetch or decode failures are logged
// and swallowed; the transcript just stays empty.
type HistoryLoader struct {
	fetcher HistoryFetcher
	log     *Logger

	mu     sync.Mutex
	loaded bool
}

func NewHistoryLoader(fetcher HistoryFetcher, log *Logger) *HistoryLoader {
	return &HistoryLoader{fetcher: fetcher, log: log}
}

// Seed fetches the history and bulk-replaces the transcript contents.
// Repeat calls during the same presence window are no-ops.
func (l *HistoryLoader) Seed(ctx context.Context, transcript *Transcript) {
	l.mu.Lock()
	if l.loaded {
		l.mu.Unlock()
		return
	}
	l.loaded = true
	l.mu.Unlock()

	records, err := l.fetcher.History(ctx)
	if err != nil {
		l.log.Warn("history fetch failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(records) == 0 {
		return
	}
	transcript.ReplaceAll(ExpandRecords(records))
}

// Reset arms the loader for the next identity-present transition.
func (l *HistoryLoader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = false
}
