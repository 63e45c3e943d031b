package monzo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/baely/monzo/pkg/model"
)

// ExpandMerchant asks for the full merchant object instead of its id
const ExpandMerchant = "merchant"

// TransactionsOptions are the pagination and expansion parameters of a
// transaction listing. Since and Before are passed through untouched: each
// is either an RFC 3339 timestamp or, for Since, a transaction id.
type TransactionsOptions struct {
	Since  string
	Before string
	Limit  int
	Expand []string
}

func (o *TransactionsOptions) apply(params url.Values) {
	if o == nil {
		return
	}
	if o.Since != "" {
		params.Set("since", o.Since)
	}
	if o.Before != "" {
		params.Set("before", o.Before)
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	for _, field := range o.Expand {
		params.Add("expand[]", field)
	}
}

// Transaction retrieves a single transaction
func (c *Client) Transaction(ctx context.Context, transactionID string, expand ...string) (model.Transaction, error) {
	if err := required("transaction_id", transactionID); err != nil {
		return model.Transaction{}, err
	}

	c.logger.Debug("Requesting transaction", "transaction_id", transactionID)

	params := url.Values{}
	for _, field := range expand {
		params.Add("expand[]", field)
	}

	endpoint := fmt.Sprintf("transactions/%s", url.PathEscape(transactionID))
	body, err := c.Request(ctx, http.MethodGet, endpoint, params)
	if err != nil {
		return model.Transaction{}, err
	}
	return model.ParseTransaction(body)
}

// Transactions retrieves one page of an account's transactions. The page is
// returned in full; callers page further by passing the last id as Since.
func (c *Client) Transactions(ctx context.Context, accountID string, opts *TransactionsOptions) ([]model.Transaction, error) {
	if err := required("account_id", accountID); err != nil {
		return nil, err
	}

	c.logger.Debug("Requesting transaction list", "account_id", accountID)

	params := url.Values{}
	params.Set("account_id", accountID)
	opts.apply(params)

	body, err := c.Request(ctx, http.MethodGet, "transactions", params)
	if err != nil {
		return nil, err
	}
	return model.ParseTransactions(body)
}

// AnnotateTransaction sets metadata keys on a transaction. An empty value
// removes the key.
func (c *Client) AnnotateTransaction(ctx context.Context, transactionID string, metadata map[string]string) (model.Transaction, error) {
	if err := required("transaction_id", transactionID); err != nil {
		return model.Transaction{}, err
	}
	if len(metadata) == 0 {
		return model.Transaction{}, &ValidationError{Field: "metadata", Reason: "must contain at least one key"}
	}

	params := url.Values{}
	for key, value := range metadata {
		if key == "" {
			return model.Transaction{}, &ValidationError{Field: "metadata", Reason: "keys must not be empty"}
		}
		params.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	c.logger.Debug("Annotating transaction", "transaction_id", transactionID, "keys", len(metadata))

	endpoint := fmt.Sprintf("transactions/%s", url.PathEscape(transactionID))
	body, err := c.Request(ctx, http.MethodPatch, endpoint, params)
	if err != nil {
		return model.Transaction{}, err
	}
	return model.ParseTransaction(body)
}

// RemoveTransactionAnnotation deletes a metadata key from a transaction
func (c *Client) RemoveTransactionAnnotation(ctx context.Context, transactionID, key string) (model.Transaction, error) {
	return c.AnnotateTransaction(ctx, transactionID, map[string]string{key: ""})
}
