package monzo

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// AuthorizationState is generated for one authentication attempt and
// discarded afterwards.
type AuthorizationState struct {
	State       string
	RedirectURI string
}

// Verify reports whether the state echoed by the redirect matches
func (s AuthorizationState) Verify(state string) bool {
	return state != "" && subtle.ConstantTimeCompare([]byte(s.State), []byte(state)) == 1
}

// NewAuthorizationState creates a state with a fresh random nonce
func NewAuthorizationState(redirectURI string) (AuthorizationState, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return AuthorizationState{}, fmt.Errorf("monzo: generate oauth state: %w", err)
	}
	return AuthorizationState{
		State:       base64.RawURLEncoding.EncodeToString(raw),
		RedirectURI: redirectURI,
	}, nil
}

func (c *Client) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.credentials.ClientID,
		ClientSecret: c.credentials.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.authURL,
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// oauthContext carries the client's HTTP client into the oauth2 package
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// AuthCodeURL builds the authorization URL for a state. It is only needed
// by callers hosting their own redirect endpoint; Authenticate builds it
// itself.
func (c *Client) AuthCodeURL(state AuthorizationState) string {
	return c.oauthConfig(state.RedirectURI).AuthCodeURL(state.State)
}

// Authenticate runs the OAuth2 authorization-code flow.
//
// It starts the local callback listener, shows the authorization URL to the
// user, waits for the redirect (bounded by the callback timeout and ctx),
// checks the returned state and exchanges the code for tokens, which are
// stored in the session. The listener is closed before Authenticate
// returns, whatever the outcome.
func (c *Client) Authenticate(ctx context.Context) error {
	c.logger.Info("Authenticating")

	listener, err := startCallbackListener(c.redirectURI, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := listener.Close(); err != nil {
			c.logger.Warn("Failed to stop callback listener", "error", err)
		}
	}()

	state, err := NewAuthorizationState(listener.RedirectURI())
	if err != nil {
		return &AuthenticationError{Reason: "could not create state", Err: err}
	}

	authURL := c.AuthCodeURL(state)
	c.logger.Info("Waiting for authorization", "url", authURL, "timeout", c.callbackTimeout)
	if err := c.openBrowser(authURL); err != nil {
		c.logger.Warn("Failed to open browser, visit the URL manually", "url", authURL, "error", err)
	}

	result, err := listener.Wait(ctx, c.callbackTimeout)
	if err != nil {
		return &AuthenticationError{Reason: "no authorization callback received", Err: err}
	}

	return c.completeAuthentication(ctx, state, result)
}

func (c *Client) completeAuthentication(ctx context.Context, state AuthorizationState, result callbackResult) error {
	if !state.Verify(result.State) {
		c.logger.Warn("Authorization state mismatch, possible cross-site request forgery")
		return &AuthenticationError{Reason: "state did not match, possible cross-site request forgery", Err: ErrStateMismatch}
	}
	if result.Error != "" {
		reason := "authorization denied: " + result.Error
		if result.ErrorDescription != "" {
			reason += " (" + result.ErrorDescription + ")"
		}
		return &AuthenticationError{Reason: reason}
	}
	if result.Code == "" {
		return &AuthenticationError{Reason: "redirect carried no authorization code"}
	}

	return c.Exchange(ctx, state, result.Code)
}

// Exchange swaps an authorization code for tokens and stores them in the
// session. Authenticate calls it after verifying the state; callers hosting
// their own redirect endpoint call it directly once they have done the same.
func (c *Client) Exchange(ctx context.Context, state AuthorizationState, code string) error {
	token, err := c.oauthConfig(state.RedirectURI).Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return c.tokenError("token exchange failed", err)
	}

	c.storeToken(token)
	c.logger.Info("Authentication complete")
	return nil
}

// RefreshAccessToken uses the session's refresh token to obtain a new
// access token. It is never called automatically.
func (c *Client) RefreshAccessToken(ctx context.Context) error {
	if c.session.RefreshToken == "" {
		return &ValidationError{Field: "refresh_token", Reason: "session holds no refresh token"}
	}

	c.logger.Debug("Refreshing access token")

	source := c.oauthConfig(c.redirectURI).TokenSource(c.oauthContext(ctx), &oauth2.Token{
		RefreshToken: c.session.RefreshToken,
	})
	token, err := source.Token()
	if err != nil {
		return c.tokenError("token refresh failed", err)
	}

	c.storeToken(token)
	return nil
}

// Logout invalidates the access token with the provider and clears the
// session.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.Request(ctx, http.MethodPost, "oauth2/logout", nil); err != nil {
		return err
	}
	c.ClearSession()
	return nil
}

func (c *Client) storeToken(token *oauth2.Token) {
	session := Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	if session.RefreshToken == "" {
		session.RefreshToken = c.session.RefreshToken
	}
	c.session = session
}

func (c *Client) tokenError(reason string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		authErr := &AuthenticationError{
			Reason: reason,
			Body:   string(retrieveErr.Body),
			Err:    err,
		}
		if retrieveErr.Response != nil {
			authErr.StatusCode = retrieveErr.Response.StatusCode
		}
		return authErr
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &AuthenticationError{
			Reason: reason,
			Err:    &TransportError{Method: http.MethodPost, URL: c.tokenURL, Err: urlErr.Err},
		}
	}

	return &AuthenticationError{Reason: reason, Err: err}
}
