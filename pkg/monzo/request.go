package monzo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxResponseBytes = 10 << 20

// Request makes an authenticated call to the Monzo API and returns the raw
// JSON body of a successful response.
//
// GET and DELETE send params as the query string; POST, PUT and PATCH send
// them as a form-encoded body. A non-2xx status yields an *APIError, a
// network failure a *TransportError. The call is attempted exactly once.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	token := c.session.AccessToken
	if token == "" {
		return nil, ErrAuthenticationRequired
	}

	uri := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))

	var body io.Reader
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		body = strings.NewReader(params.Encode())
	default:
		if len(params) > 0 {
			sep := "?"
			if strings.Contains(uri, "?") {
				sep = "&"
			}
			uri += sep + params.Encode()
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, fmt.Errorf("monzo: create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.logger.Debug("Performing request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: redactQuery(uri), Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Method: method, URL: redactQuery(uri), Err: err}
	}

	c.logger.Debug("Handling response", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(method, path, resp.StatusCode, payload)
	}

	if len(strings.TrimSpace(string(payload))) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(payload) {
		return nil, &MalformedResponseError{Resource: path, Err: fmt.Errorf("response is not JSON: %.100q", payload)}
	}

	return json.RawMessage(payload), nil
}

// redactQuery strips the query string from uri
func redactQuery(uri string) string {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		return uri[:i]
	}
	return uri
}
