package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/baely/monzo/internal/ledger/models"
)

// Memory is a ledger store kept in process memory, used when no database is
// configured. Entries are lost on restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]models.Entry
}

// NewMemory creates a Memory store holding entries
func NewMemory(entries ...models.Entry) *Memory {
	m := &Memory{entries: make(map[string]models.Entry, len(entries))}
	for _, e := range entries {
		m.entries[e.TransactionID] = e
	}
	return m
}

// AddTransaction records an entry, keeping the first entry of a transaction
func (m *Memory) AddTransaction(_ context.Context, entry models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[entry.TransactionID]; !ok {
		m.entries[entry.TransactionID] = entry
	}
	return nil
}

// Transactions returns the entries with start <= timestamp < end, oldest
// first
func (m *Memory) Transactions(_ context.Context, start, end time.Time) ([]models.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]models.Entry, 0)
	for _, e := range m.entries {
		if !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].TransactionID < entries[j].TransactionID
		}
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// Summary totals the entries with start <= timestamp < end
func (m *Memory) Summary(ctx context.Context, start, end time.Time) (models.Summary, error) {
	entries, err := m.Transactions(ctx, start, end)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summarize(entries), nil
}
