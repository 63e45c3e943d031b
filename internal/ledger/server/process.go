package server

import (
	"context"

	"github.com/baely/monzo/internal/ledger/models"
	"github.com/baely/monzo/internal/webhook"
)

// ProcessEvent records the transaction of an event. Declined transactions
// never moved money and are skipped.
func ProcessEvent(ctx context.Context, store Store, event webhook.TransactionEvent) error {
	tx := event.Transaction
	if tx.DeclineReason != "" {
		return nil
	}

	entry := models.FromTransaction(tx)
	if entry.AccountID == "" {
		entry.AccountID = event.Account.ID
	}
	return store.AddTransaction(ctx, entry)
}
