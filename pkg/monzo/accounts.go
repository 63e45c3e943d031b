package monzo

import (
	"context"
	"net/http"
	"net/url"

	"github.com/baely/monzo/pkg/model"
)

// WhoAmI returns information about the current access token
func (c *Client) WhoAmI(ctx context.Context) (model.WhoAmI, error) {
	c.logger.Debug("Requesting whoami")

	body, err := c.Request(ctx, http.MethodGet, "ping/whoami", nil)
	if err != nil {
		return model.WhoAmI{}, err
	}
	return model.ParseWhoAmI(body)
}

// Accounts lists the accounts the user has access to
func (c *Client) Accounts(ctx context.Context) ([]model.Account, error) {
	c.logger.Debug("Requesting account list")

	body, err := c.Request(ctx, http.MethodGet, "accounts", nil)
	if err != nil {
		return nil, err
	}
	return model.ParseAccounts(body)
}

// Balance returns the balance of an account
func (c *Client) Balance(ctx context.Context, accountID string) (model.Balance, error) {
	if err := required("account_id", accountID); err != nil {
		return model.Balance{}, err
	}

	c.logger.Debug("Requesting balance", "account_id", accountID)

	params := url.Values{}
	params.Set("account_id", accountID)

	body, err := c.Request(ctx, http.MethodGet, "balance", params)
	if err != nil {
		return model.Balance{}, err
	}
	return model.ParseBalance(body)
}
