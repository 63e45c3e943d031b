package monzo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/baely/monzo/pkg/model"
)

// PotTransfer moves money between a pot and an account.
//
// DedupeID is mandatory. Sending the same DedupeID again makes the provider
// treat the request as a retry of the original transfer, so callers retrying
// after an error must reuse it, and must use a fresh one for every new
// transfer.
type PotTransfer struct {
	PotID     string
	AccountID string // Source account for deposits, destination for withdrawals
	Amount    int64  // Minor units, must be positive
	DedupeID  string
}

// NewDedupeID returns a random dedupe id for a new transfer
func NewDedupeID() string {
	return uuid.NewString()
}

func (t PotTransfer) validate() error {
	if err := required("pot_id", t.PotID); err != nil {
		return err
	}
	if err := required("account_id", t.AccountID); err != nil {
		return err
	}
	if err := required("dedupe_id", t.DedupeID); err != nil {
		return err
	}
	if t.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("must be positive, got %d", t.Amount)}
	}
	return nil
}

// Pots lists the user's pots, deleted ones included. When accountID is not
// empty only pots belonging to that account are returned by the provider.
// Use model.ActivePots to drop deleted pots.
func (c *Client) Pots(ctx context.Context, accountID string) ([]model.Pot, error) {
	c.logger.Debug("Requesting pots", "account_id", accountID)

	params := url.Values{}
	if accountID != "" {
		params.Set("current_account_id", accountID)
	}

	body, err := c.Request(ctx, http.MethodGet, "pots", params)
	if err != nil {
		return nil, err
	}
	return model.ParsePots(body)
}

// Deposit moves money from an account into a pot and returns the updated pot
func (c *Client) Deposit(ctx context.Context, transfer PotTransfer) (model.Pot, error) {
	if err := transfer.validate(); err != nil {
		return model.Pot{}, err
	}

	c.logger.Debug("Depositing into pot",
		"pot_id", transfer.PotID,
		"account_id", transfer.AccountID,
		"amount", transfer.Amount)

	params := url.Values{}
	params.Set("source_account_id", transfer.AccountID)
	params.Set("amount", strconv.FormatInt(transfer.Amount, 10))
	params.Set("dedupe_id", transfer.DedupeID)

	return c.potTransfer(ctx, transfer.PotID, "deposit", params)
}

// Withdraw moves money from a pot into an account and returns the updated pot
func (c *Client) Withdraw(ctx context.Context, transfer PotTransfer) (model.Pot, error) {
	if err := transfer.validate(); err != nil {
		return model.Pot{}, err
	}

	c.logger.Debug("Withdrawing from pot",
		"pot_id", transfer.PotID,
		"account_id", transfer.AccountID,
		"amount", transfer.Amount)

	params := url.Values{}
	params.Set("destination_account_id", transfer.AccountID)
	params.Set("amount", strconv.FormatInt(transfer.Amount, 10))
	params.Set("dedupe_id", transfer.DedupeID)

	return c.potTransfer(ctx, transfer.PotID, "withdraw", params)
}

func (c *Client) potTransfer(ctx context.Context, potID, action string, params url.Values) (model.Pot, error) {
	endpoint := fmt.Sprintf("pots/%s/%s", url.PathEscape(potID), action)

	body, err := c.Request(ctx, http.MethodPut, endpoint, params)
	if err != nil {
		return model.Pot{}, err
	}
	return model.ParsePot(body)
}
