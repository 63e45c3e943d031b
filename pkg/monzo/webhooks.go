package monzo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/baely/monzo/pkg/model"
)

// Webhooks lists the webhooks registered on an account
func (c *Client) Webhooks(ctx context.Context, accountID string) ([]model.Webhook, error) {
	if err := required("account_id", accountID); err != nil {
		return nil, err
	}

	c.logger.Debug("Retrieving webhooks", "account_id", accountID)

	params := url.Values{}
	params.Set("account_id", accountID)

	body, err := c.Request(ctx, http.MethodGet, "webhooks", params)
	if err != nil {
		return nil, err
	}
	return model.ParseWebhooks(body)
}

// RegisterWebhook registers a URL to receive the account's events
func (c *Client) RegisterWebhook(ctx context.Context, accountID, webhookURL string) (model.Webhook, error) {
	if err := required("account_id", accountID); err != nil {
		return model.Webhook{}, err
	}
	if err := required("url", webhookURL); err != nil {
		return model.Webhook{}, err
	}

	c.logger.Debug("Registering webhook", "account_id", accountID, "url", webhookURL)

	params := url.Values{}
	params.Set("account_id", accountID)
	params.Set("url", webhookURL)

	body, err := c.Request(ctx, http.MethodPost, "webhooks", params)
	if err != nil {
		return model.Webhook{}, err
	}
	return model.ParseWebhook(body)
}

// DeleteWebhook removes a webhook
func (c *Client) DeleteWebhook(ctx context.Context, webhookID string) error {
	if err := required("webhook_id", webhookID); err != nil {
		return err
	}

	c.logger.Debug("Deleting webhook", "webhook_id", webhookID)

	endpoint := fmt.Sprintf("webhooks/%s", url.PathEscape(webhookID))
	_, err := c.Request(ctx, http.MethodDelete, endpoint, nil)
	return err
}
