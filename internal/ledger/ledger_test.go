package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baely/monzo/internal/common/errors"
	"github.com/baely/monzo/internal/common/logger"
	"github.com/baely/monzo/internal/config"
	"github.com/baely/monzo/internal/ledger/database"
	"github.com/baely/monzo/internal/webhook"
	"github.com/baely/monzo/pkg/model"
)

func TestLedger_HandleEvent(t *testing.T) {
	store := database.NewMemory()
	l := New(&Config{Store: store, Logger: logger.Discard()})

	var _ webhook.TransactionEventHandler = l

	err := l.HandleEvent(context.Background(), webhook.TransactionEvent{
		Account:     model.Account{ID: "acc_1"},
		Transaction: model.Transaction{ID: "tx_1", AccountID: "acc_1", Amount: -100, Created: time.Now()},
	})
	require.NoError(t, err)

	entries, err := store.Transactions(context.Background(), time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tx_1", entries[0].TransactionID)

	rec := httptest.NewRecorder()
	l.Chi().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transactions/summary", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestOpen_NotConfigured(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{})
	assert.ErrorIs(t, err, errors.ErrNotConfigured)
}
