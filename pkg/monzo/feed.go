package monzo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/baely/monzo/pkg/model"
)

// CreateFeedItem posts an item into an account's activity feed
func (c *Client) CreateFeedItem(ctx context.Context, item model.FeedItem) error {
	if err := required("account_id", item.AccountID); err != nil {
		return err
	}
	if item.Type == "" {
		item.Type = model.FeedItemTypeBasic
	}
	if item.Type == model.FeedItemTypeBasic {
		if err := required("params[title]", item.Params["title"]); err != nil {
			return err
		}
		if err := required("params[image_url]", item.Params["image_url"]); err != nil {
			return err
		}
	}

	c.logger.Debug("Creating feed item", "account_id", item.AccountID, "type", item.Type)

	params := url.Values{}
	params.Set("account_id", item.AccountID)
	params.Set("type", item.Type)
	if item.URL != "" {
		params.Set("url", item.URL)
	}
	for key, value := range item.Params {
		params.Set(fmt.Sprintf("params[%s]", key), value)
	}

	_, err := c.Request(ctx, http.MethodPost, "feed", params)
	return err
}
