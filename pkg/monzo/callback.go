package monzo

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	commonHttp "github.com/baely/monzo/internal/common/http"
)

const callbackShutdownTimeout = 5 * time.Second

// callbackResult is what the provider's redirect carried
type callbackResult struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// callbackListener is a single-use HTTP listener that captures the first
// request made to the redirect path.
type callbackListener struct {
	server      *http.Server
	listener    net.Listener
	redirectURI string
	results     chan callbackResult
	once        sync.Once
	done        chan struct{}
	logger      *slog.Logger
}

// startCallbackListener binds the host and port of redirectURI and starts
// serving in the background. The returned listener must be closed.
func startCallbackListener(redirectURI string, logger *slog.Logger) (*callbackListener, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, &StartupError{Addr: redirectURI, Err: err}
	}

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &StartupError{Addr: addr, Err: err}
	}

	// The bound port replaces a requested port of 0
	if _, port, err := net.SplitHostPort(ln.Addr().String()); err == nil {
		u.Host = net.JoinHostPort(u.Hostname(), port)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	l := &callbackListener{
		listener:    ln,
		redirectURI: u.String(),
		results:     make(chan callbackResult, 1),
		done:        make(chan struct{}),
		logger:      logger,
	}

	r := commonHttp.NewQuietRouter()
	r.Get(path, l.handleCallback)

	l.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(l.done)
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("Callback listener failed", "error", err)
		}
	}()

	logger.Debug("Callback listener started", "addr", ln.Addr().String(), "path", path)

	return l, nil
}

// RedirectURI is the redirect URI served by this listener
func (l *callbackListener) RedirectURI() string {
	return l.redirectURI
}

// handleCallback captures the first redirect and refuses every later one
func (l *callbackListener) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result := callbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	captured := false
	l.once.Do(func() {
		captured = true
		l.results <- result
	})

	if !captured {
		commonHttp.HTML(w, http.StatusGone, "Monzo", "This authorization request has already been handled.")
		return
	}

	if result.Error != "" {
		commonHttp.HTML(w, http.StatusOK, "Monzo", "Authorization failed. You can close this window.")
		return
	}
	commonHttp.HTML(w, http.StatusOK, "Monzo", "Done. Please go back to the app.")
}

// Wait blocks until the redirect arrives, the timeout elapses or ctx ends
func (l *callbackListener) Wait(ctx context.Context, timeout time.Duration) (callbackResult, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-l.results:
		return result, nil
	case <-timer.C:
		return callbackResult{}, ErrCallbackTimeout
	case <-ctx.Done():
		return callbackResult{}, ctx.Err()
	}
}

// Close shuts the listener down and waits for the serve loop to exit
func (l *callbackListener) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), callbackShutdownTimeout)
	defer cancel()

	err := l.server.Shutdown(ctx)
	if err != nil {
		err = l.server.Close()
	}
	<-l.done

	l.logger.Debug("Callback listener stopped")
	return err
}
