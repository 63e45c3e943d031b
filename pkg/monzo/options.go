package monzo

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for API, token and upload calls
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBaseURL overrides the API base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAuthURL overrides the OAuth authorization endpoint
func WithAuthURL(authURL string) Option {
	return func(c *Client) {
		c.authURL = authURL
	}
}

// WithTokenURL overrides the OAuth token endpoint
func WithTokenURL(tokenURL string) Option {
	return func(c *Client) {
		c.tokenURL = tokenURL
	}
}

// WithRedirectURI sets the redirect URI registered for the OAuth client. The
// local callback listener binds to its host and port. A port of 0 picks a
// free port for each authentication attempt.
func WithRedirectURI(redirectURI string) Option {
	return func(c *Client) {
		c.redirectURI = redirectURI
	}
}

// WithCallbackTimeout sets how long Authenticate waits for the redirect
func WithCallbackTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callbackTimeout = timeout
		}
	}
}

// WithBrowser replaces the function used to show the authorization URL to
// the user. The default opens the system browser.
func WithBrowser(open func(url string) error) Option {
	return func(c *Client) {
		if open != nil {
			c.openBrowser = open
		}
	}
}

// WithLogger sets the logger, slog.Default() otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSession starts the client with previously stored tokens
func WithSession(session Session) Option {
	return func(c *Client) {
		c.session = session
	}
}
