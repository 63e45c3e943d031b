// Package monzo is a client for the Monzo banking API.
//
// A Client owns the application's OAuth credentials and a single Session.
// The session's access token is obtained either interactively through
// Authenticate, which runs the OAuth2 authorization-code flow against a
// short-lived local redirect listener, or by assigning a token the caller
// stored earlier with SetAccessToken. Every resource method then issues
// exactly one authenticated request and maps the response onto the types in
// package model.
//
// The client never retries, caches or persists anything. Storing the access
// and refresh tokens between runs is the caller's job.
package monzo

import (
	"log/slog"
	"net/http"
	"time"
)

// API defaults
const (
	DefaultBaseURL         = "https://api.monzo.com"
	DefaultAuthURL         = "https://auth.monzo.com/"
	DefaultTokenURL        = "https://api.monzo.com/oauth2/token"
	DefaultRedirectURI     = "http://localhost:36453/monzo_callback"
	DefaultCallbackTimeout = 2 * time.Minute
	DefaultRequestTimeout  = 30 * time.Second
)

// Credentials identify the OAuth client registered with Monzo. They are only
// used to obtain tokens and are never sent with API calls.
type Credentials struct {
	ClientID     string
	OwnerID      string
	ClientSecret string
}

// Session is the token state of a client
type Session struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time // Zero when unknown
}

// Client is a Monzo API client.
//
// A Client is not safe for concurrent use: the session is plain mutable
// state with no locking, so calls on one Client must be serialised by the
// caller. Use one Client per goroutine if parallel access is needed.
type Client struct {
	credentials Credentials
	session     Session

	httpClient      *http.Client
	baseURL         string
	authURL         string
	tokenURL        string
	redirectURI     string
	callbackTimeout time.Duration
	openBrowser     func(url string) error
	logger          *slog.Logger
}

// New creates a client for the given credentials
func New(credentials Credentials, opts ...Option) *Client {
	c := &Client{
		credentials: credentials,
		httpClient: &http.Client{
			Timeout: DefaultRequestTimeout,
		},
		baseURL:         DefaultBaseURL,
		authURL:         DefaultAuthURL,
		tokenURL:        DefaultTokenURL,
		redirectURI:     DefaultRedirectURI,
		callbackTimeout: DefaultCallbackTimeout,
		openBrowser:     OpenBrowser,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Credentials returns the client's OAuth credentials
func (c *Client) Credentials() Credentials {
	return c.credentials
}

// Session returns a copy of the current session
func (c *Client) Session() Session {
	return c.session
}

// SetSession replaces the session, e.g. with tokens restored from storage
func (c *Client) SetSession(session Session) {
	c.session = session
}

// AccessToken returns the current access token, empty when unauthenticated
func (c *Client) AccessToken() string {
	return c.session.AccessToken
}

// SetAccessToken installs an access token obtained out of band, bypassing
// the OAuth flow.
func (c *Client) SetAccessToken(token string) {
	c.session.AccessToken = token
}

// ClearSession forgets all tokens
func (c *Client) ClearSession() {
	c.session = Session{}
}

// RedirectURI returns the configured OAuth redirect URI
func (c *Client) RedirectURI() string {
	return c.redirectURI
}
