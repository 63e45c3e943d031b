package monzo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baely/monzo/internal/common/logger"
	"github.com/baely/monzo/pkg/model"
)

// recordedRequest is what the fake API saw of one call
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	Header http.Header
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	server   *httptest.Server
}

// newFakeAPI starts a server that records each request before handing it to
// handler.
func newFakeAPI(t *testing.T, handler http.HandlerFunc) *fakeAPI {
	t.Helper()

	api := &fakeAPI{}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		api.mu.Lock()
		api.requests = append(api.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Form:   r.PostForm,
			Header: r.Header.Clone(),
		})
		api.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) Requests() []recordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]recordedRequest(nil), a.requests...)
}

func (a *fakeAPI) Last(t *testing.T) recordedRequest {
	t.Helper()
	requests := a.Requests()
	require.NotEmpty(t, requests, "no request reached the fake API")
	return requests[len(requests)-1]
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(api *fakeAPI, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(api.server.URL),
		WithLogger(logger.Discard()),
		WithSession(Session{AccessToken: "token"}),
	}
	return New(Credentials{ClientID: "client", ClientSecret: "secret"}, append(base, opts...)...)
}

func TestNew_Defaults(t *testing.T) {
	c := New(Credentials{ClientID: "id", OwnerID: "owner", ClientSecret: "secret"})

	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultRedirectURI, c.RedirectURI())
	assert.Equal(t, DefaultCallbackTimeout, c.callbackTimeout)
	assert.Equal(t, "owner", c.Credentials().OwnerID)
	assert.Empty(t, c.AccessToken())
}

func TestClient_SessionAccessors(t *testing.T) {
	c := New(Credentials{}, WithLogger(logger.Discard()))

	c.SetAccessToken("abc")
	assert.Equal(t, "abc", c.AccessToken())

	c.SetSession(Session{AccessToken: "a", RefreshToken: "r"})
	assert.Equal(t, Session{AccessToken: "a", RefreshToken: "r"}, c.Session())

	c.ClearSession()
	assert.Equal(t, Session{}, c.Session())
}

func TestRequest_NoTokenSendsNothing(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusOK, `{"accounts":[]}`))
	c := newTestClient(api, WithSession(Session{}))

	_, err := c.Accounts(context.Background())

	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Empty(t, api.Requests())
}

func TestRequest_GetSendsQueryAndBearer(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusOK, `{"balance":5000,"currency":"GBP","spend_today":-200}`))
	c := newTestClient(api)

	balance, err := c.Balance(context.Background(), "acc_1")
	require.NoError(t, err)

	assert.Equal(t, model.Balance{Balance: 5000, Currency: "GBP", SpendToday: -200}, balance)

	req := api.Last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/balance", req.Path)
	assert.Equal(t, "acc_1", req.Query.Get("account_id"))
	assert.Equal(t, "Bearer token", req.Header.Get("Authorization"))
	assert.Empty(t, req.Form)
}

func TestRequest_PostSendsFormBody(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusOK, `{}`))
	c := newTestClient(api)

	_, err := c.Request(context.Background(), http.MethodPost, "/feed", url.Values{"account_id": {"acc_1"}})
	require.NoError(t, err)

	req := api.Last(t)
	assert.Equal(t, "/feed", req.Path)
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
	assert.Equal(t, "acc_1", req.Form.Get("account_id"))
	assert.Empty(t, req.Query)
}

func TestRequest_EmptyBodyIsEmptyObject(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusOK, ""))
	c := newTestClient(api)

	body, err := c.Request(context.Background(), http.MethodDelete, "webhooks/wh_1", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(body))
}

func TestRequest_Unauthorized(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusUnauthorized, `{"code":"unauthorized.bad_access_token","message":"expired"}`))
	c := newTestClient(api)

	_, err := c.Accounts(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "unauthorized.bad_access_token", apiErr.Code)
	assert.Equal(t, "expired", apiErr.Message)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrAuthenticationRequired)
	assert.Contains(t, err.Error(), "401")
}

func TestRequest_StatusSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrTooManyRequests},
		{http.StatusInternalServerError, ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			api := newFakeAPI(t, respond(tt.status, `{}`))
			c := newTestClient(api)

			_, err := c.WhoAmI(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRequest_TransportError(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusOK, `{}`))
	c := newTestClient(api)
	api.server.Close()

	_, err := c.Accounts(context.Background())

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.MethodGet, transportErr.Method)
	assert.NotContains(t, transportErr.URL, "?")
}

func TestRequest_MalformedBody(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusOK, `<html>oops</html>`))
	c := newTestClient(api)

	_, err := c.Accounts(context.Background())

	var malformed *MalformedResponseError
	assert.True(t, errors.As(err, &malformed))
}

func TestAccounts(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusOK, `{"accounts":[{"id":"acc_1","description":"test","owners":[{"user_id":"u1","preferred_name":"Alice"}]}]}`))
	c := newTestClient(api)

	accounts, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acc_1", accounts[0].ID)
	assert.Equal(t, "Alice", accounts[0].Owners[0].PreferredName)
	assert.Equal(t, "/accounts", api.Last(t).Path)
}

func TestWhoAmI(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusOK, `{"authenticated":true,"client_id":"oauth2client_1","user_id":"user_1"}`))
	c := newTestClient(api)

	who, err := c.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.WhoAmI{Authenticated: true, ClientID: "oauth2client_1", UserID: "user_1"}, who)
	assert.Equal(t, "/ping/whoami", api.Last(t).Path)
}

func TestBalance_RequiresAccountID(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusOK, `{}`))
	c := newTestClient(api)

	_, err := c.Balance(context.Background(), "")

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "account_id", validationErr.Field)
	assert.Empty(t, api.Requests())
}

func TestBalance_MissingBalanceField(t *testing.T) {
	api := newFakeAPI(t, respond(http.StatusOK, `{"currency":"GBP"}`))
	c := newTestClient(api)

	_, err := c.Balance(context.Background(), "acc_1")

	var malformed *MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "balance", malformed.Field)
}
