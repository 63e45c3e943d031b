package monzo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/baely/monzo/pkg/model"
)

var (
	// ErrAuthenticationRequired is returned by every API call made while the
	// session holds no access token. No request is sent in that case.
	ErrAuthenticationRequired = errors.New("monzo: access token required, authenticate first")

	// ErrCallbackTimeout is returned when no OAuth redirect reaches the local
	// callback listener before the callback timeout elapses.
	ErrCallbackTimeout = errors.New("monzo: timed out waiting for the authorization callback")

	// ErrStateMismatch is returned when the state echoed by the redirect does
	// not match the one sent to the provider.
	ErrStateMismatch = errors.New("monzo: authorization state mismatch")
)

// Provider status sentinels, matched by APIError.Is
var (
	ErrBadRequest       = errors.New("monzo: bad request")
	ErrUnauthorized     = errors.New("monzo: unauthorized")
	ErrForbidden        = errors.New("monzo: forbidden")
	ErrNotFound         = errors.New("monzo: not found")
	ErrMethodNotAllowed = errors.New("monzo: method not allowed")
	ErrNotAcceptable    = errors.New("monzo: not acceptable")
	ErrTooManyRequests  = errors.New("monzo: too many requests")
	ErrInternalServer   = errors.New("monzo: internal server error")
	ErrGatewayTimeout   = errors.New("monzo: gateway timeout")
)

var statusSentinels = map[int]error{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrForbidden,
	http.StatusNotFound:            ErrNotFound,
	http.StatusMethodNotAllowed:    ErrMethodNotAllowed,
	http.StatusNotAcceptable:       ErrNotAcceptable,
	http.StatusTooManyRequests:     ErrTooManyRequests,
	http.StatusInternalServerError: ErrInternalServer,
	http.StatusGatewayTimeout:      ErrGatewayTimeout,
}

// MalformedResponseError reports a response missing a required field or
// carrying a body that is not JSON.
type MalformedResponseError = model.MalformedResponseError

// APIError is returned when the provider answers with a non-2xx status.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string // Provider error code, e.g. "unauthorized.bad_access_token"
	Message    string // Provider error message
	Body       []byte // Raw response body
}

func newAPIError(method, path string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Body:       body,
	}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		if apiErr.Code == "" {
			apiErr.Code = payload.Error
		}
	}
	return apiErr
}

func (e *APIError) Error() string {
	detail := e.Message
	if detail == "" {
		detail = string(e.Body)
	}
	if e.Code != "" {
		detail = e.Code + ": " + detail
	}
	return fmt.Sprintf("monzo: %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, detail)
}

// Is lets callers match an APIError against the status sentinels, e.g.
// errors.Is(err, monzo.ErrUnauthorized).
func (e *APIError) Is(target error) bool {
	sentinel, ok := statusSentinels[e.StatusCode]
	return ok && sentinel == target
}

// TransportError is returned when the provider could not be reached at all.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("monzo: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthenticationError is returned when the OAuth flow fails.
type AuthenticationError struct {
	Reason     string
	StatusCode int    // Token endpoint status, when the exchange was rejected
	Body       string // Token endpoint error body, when the exchange was rejected
	Err        error
}

func (e *AuthenticationError) Error() string {
	msg := "monzo: authentication failed: " + e.Reason
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d: %s)", e.StatusCode, e.Body)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ValidationError reports an invalid argument, detected before any request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("monzo: invalid %s: %s", e.Field, e.Reason)
}

func required(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// StartupError is returned when the local callback listener cannot bind.
type StartupError struct {
	Addr string
	Err  error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("monzo: start callback listener on %s: %v", e.Addr, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
