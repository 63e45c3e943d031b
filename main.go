// Package main is the entry point for the Monzo webhook service
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/baely/monzo/internal/common/errors"
	"github.com/baely/monzo/internal/common/logger"
	"github.com/baely/monzo/internal/config"
	"github.com/baely/monzo/internal/ledger"
	"github.com/baely/monzo/internal/ledger/database"
	ledgerServer "github.com/baely/monzo/internal/ledger/server"
	"github.com/baely/monzo/internal/server"
	"github.com/baely/monzo/internal/webhook"
	"github.com/baely/monzo/pkg/monzo"
)

func main() {
	cfg, err := config.Load()
	errors.Must(err)

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.Log.Level)),
		logger.WithFormat(cfg.Log.Format),
	)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	client := monzo.New(cfg.Monzo.Credentials(), append(cfg.Monzo.Options(), monzo.WithLogger(log))...)
	if client.AccessToken() == "" {
		log.Warn("No access token configured, events will not be enriched")
	}

	// Initialize services
	webhookService := webhook.New(&webhook.Config{
		Client:     client,
		WebhookURL: cfg.Webhook.URL,
		Secret:     cfg.Webhook.Secret,
		Logger:     log,
	})
	defer webhookService.Close()

	router := webhookService.Chi()

	var store ledgerServer.Store
	db, err := ledger.Open(ctx, cfg.Database)
	switch {
	case errors.Is(err, errors.ErrNotConfigured):
		log.Warn("No database configured, keeping the ledger in memory")
		store = database.NewMemory()
	case err != nil:
		return err
	default:
		defer db.Close()
		store = db
	}

	ledgerService := ledger.New(&ledger.Config{Store: store, Logger: log})
	webhookService.RegisterHandler(ledgerService)
	router.NotFound(ledgerService.Chi().ServeHTTP)

	// Initialize server
	s := server.New(cfg.ListenAddr, log)
	for _, domain := range cfg.Webhook.Domains {
		s.RegisterDomain(domain, router)
	}

	if cfg.Webhook.URL != "" {
		go func() {
			if err := webhookService.EnsureWebhooks(ctx); err != nil {
				log.Error("Failed to register webhooks", "error", err)
			}
		}()
	}

	return s.Run(ctx)
}
