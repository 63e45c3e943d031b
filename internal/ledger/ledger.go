// Package ledger records received Monzo transactions and serves them back
package ledger

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/baely/monzo/internal/common/errors"
	"github.com/baely/monzo/internal/config"
	"github.com/baely/monzo/internal/ledger/database"
	"github.com/baely/monzo/internal/ledger/server"
	"github.com/baely/monzo/internal/webhook"
)

// Ledger stores transaction events
type Ledger struct {
	store  server.Store
	router chi.Router
	logger *slog.Logger
}

// Config contains configuration for the Ledger
type Config struct {
	Store  server.Store
	Logger *slog.Logger
}

// New creates a Ledger over a store
func New(cfg *Config) *Ledger {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Ledger{
		store:  cfg.Store,
		router: server.NewServer(cfg.Store),
		logger: logger,
	}
}

// Open connects to Postgres and prepares the ledger table
func Open(ctx context.Context, cfg config.DatabaseConfig) (*database.Client, error) {
	if !cfg.Enabled() {
		return nil, errors.Wrap(errors.ErrNotConfigured, "database")
	}

	db, err := database.NewClient(cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Chi returns the router for this service
func (l *Ledger) Chi() chi.Router {
	return l.router
}

// HandleEvent records the transaction of an event.
// It implements the webhook.TransactionEventHandler interface.
func (l *Ledger) HandleEvent(ctx context.Context, event webhook.TransactionEvent) error {
	l.logger.Info("Recording transaction",
		"transaction_id", event.Transaction.ID,
		"description", event.Transaction.Description,
		"amount", event.Transaction.Amount)

	return server.ProcessEvent(ctx, l.store, event)
}
