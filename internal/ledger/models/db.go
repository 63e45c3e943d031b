package models

import (
	"time"

	"github.com/baely/monzo/pkg/model"
)

// Entry is a transaction as recorded in the ledger
type Entry struct {
	TransactionID string    `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	Timestamp     time.Time `json:"timestamp"`
	Description   string    `json:"description"`
	Merchant      string    `json:"merchant,omitempty"`
	Category      string    `json:"category"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
}

// EntryRow is the stored form of an Entry
type EntryRow struct {
	TransactionID string
	AccountID     string
	Timestamp     int64
	Description   string
	Merchant      string
	Category      string
	Amount        int64
	Currency      string
}

// Summary totals the entries of a period, amounts in minor units
type Summary struct {
	Count    int   `json:"count"`
	Spent    int64 `json:"spent"`    // Sum of debits, positive
	Received int64 `json:"received"` // Sum of credits
	Net      int64 `json:"net"`
}

// SeriesPoint is the net amount of one bucket of a time series
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Net       int64     `json:"net"`
}

func ToEntry(row EntryRow) Entry {
	return Entry{
		TransactionID: row.TransactionID,
		AccountID:     row.AccountID,
		Timestamp:     time.Unix(row.Timestamp, 0).UTC(),
		Description:   row.Description,
		Merchant:      row.Merchant,
		Category:      row.Category,
		Amount:        row.Amount,
		Currency:      row.Currency,
	}
}

// FromTransaction builds the entry recorded for a transaction
func FromTransaction(tx model.Transaction) Entry {
	entry := Entry{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Timestamp:     tx.Created.UTC().Truncate(time.Second),
		Description:   tx.Description,
		Merchant:      tx.MerchantID,
		Category:      tx.Category,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
	}
	if tx.Merchant != nil {
		entry.Merchant = tx.Merchant.Name
	}
	return entry
}

// Summarize totals entries
func Summarize(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		s.Count++
		if e.Amount < 0 {
			s.Spent -= e.Amount
		} else {
			s.Received += e.Amount
		}
		s.Net += e.Amount
	}
	return s
}
