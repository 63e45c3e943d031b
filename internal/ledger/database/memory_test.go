package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baely/monzo/internal/ledger/models"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	m := NewMemory()
	entries := []models.Entry{
		{TransactionID: "tx_2", AccountID: "acc_1", Timestamp: base.Add(time.Hour), Amount: 200000, Currency: "GBP"},
		{TransactionID: "tx_1", AccountID: "acc_1", Timestamp: base, Amount: -350, Currency: "GBP"},
		{TransactionID: "tx_3", AccountID: "acc_1", Timestamp: base.Add(48 * time.Hour), Amount: -100, Currency: "GBP"},
	}
	for _, e := range entries {
		require.NoError(t, m.AddTransaction(ctx, e))
	}

	// Redelivery keeps the first entry
	changed := entries[1]
	changed.Amount = -1
	require.NoError(t, m.AddTransaction(ctx, changed))

	got, err := m.Transactions(ctx, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []models.Entry{entries[1], entries[0]}, got)

	summary, err := m.Summary(ctx, time.Time{}, base.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.Summary{Count: 3, Spent: 450, Received: 200000, Net: 199550}, summary)

	empty, err := m.Transactions(ctx, base.Add(-time.Hour), base)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
