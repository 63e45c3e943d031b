package model

import (
	"fmt"
	"strings"
)

// FeedItemTypeBasic is the only feed item type Monzo currently accepts
const FeedItemTypeBasic = "basic"

// FeedItem is an entry to be injected into an account's activity feed. It
// is write-only: the provider never returns it.
type FeedItem struct {
	AccountID string
	Type      string
	URL       string            // Opened when the user taps the item
	Params    map[string]string // Type specific parameters, sent as params[key]
}

// Color is a #rrggbb colour used by feed items
type Color string

// ParseColor validates a hex colour, adding the leading # if needed
func ParseColor(hex string) (Color, error) {
	hex = strings.TrimSpace(hex)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 7 {
		return "", fmt.Errorf("invalid colour %q: want 6 hex digits", hex)
	}
	for _, c := range hex[1:] {
		if !isHexDigit(c) {
			return "", fmt.Errorf("invalid colour %q: %q is not a hex digit", hex, c)
		}
	}
	return Color(strings.ToLower(hex)), nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// BasicFeedItem describes a "basic" feed item
type BasicFeedItem struct {
	Title           string
	ImageURL        string
	Body            string
	URL             string
	BackgroundColor Color
	TitleColor      Color
	BodyColor       Color
}

// FeedItem converts the basic item into a FeedItem for the given account
func (b BasicFeedItem) FeedItem(accountID string) FeedItem {
	params := map[string]string{
		"title":     b.Title,
		"image_url": b.ImageURL,
	}
	if b.Body != "" {
		params["body"] = b.Body
	}
	if b.BackgroundColor != "" {
		params["background_color"] = string(b.BackgroundColor)
	}
	if b.TitleColor != "" {
		params["title_color"] = string(b.TitleColor)
	}
	if b.BodyColor != "" {
		params["body_color"] = string(b.BodyColor)
	}

	return FeedItem{
		AccountID: accountID,
		Type:      FeedItemTypeBasic,
		URL:       b.URL,
		Params:    params,
	}
}
