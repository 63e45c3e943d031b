package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/baely/monzo/internal/common/errors"
	"github.com/baely/monzo/pkg/model"
)

// EventTransactionCreated is the only event type the provider sends today
const EventTransactionCreated = "transaction.created"

// Event is the envelope of a webhook delivery
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// eventTransaction is the part of a transaction.created payload needed to
// look the transaction up again
type eventTransaction struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
}

// TransactionEvent is a newly created transaction with its account
type TransactionEvent struct {
	Account     model.Account
	Transaction model.Transaction
}

// TransactionEventHandler receives transaction events
type TransactionEventHandler interface {
	// HandleEvent processes a transaction event
	HandleEvent(ctx context.Context, event TransactionEvent) error
}

// HandlerFunc adapts a function to TransactionEventHandler
type HandlerFunc func(ctx context.Context, event TransactionEvent) error

func (f HandlerFunc) HandleEvent(ctx context.Context, event TransactionEvent) error {
	return f(ctx, event)
}

func parseEvent(raw []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, errors.Wrap(errors.ErrInvalidInput, "malformed webhook event: %v", err)
	}
	if event.Type == "" {
		return Event{}, errors.Wrap(errors.ErrInvalidInput, "webhook event has no type")
	}
	return event, nil
}

// Sign returns the hex HMAC-SHA256 of payload under secret
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateSignature checks the X-Monzo-Signature of a delivery
func ValidateSignature(payload []byte, signature, secret string) bool {
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(sig, mac.Sum(nil))
}
