// Package webhook receives Monzo webhook deliveries and fans transaction
// events out to registered handlers
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baely/monzo/internal/common/errors"
	commonHttp "github.com/baely/monzo/internal/common/http"
	"github.com/baely/monzo/pkg/model"
	"github.com/baely/monzo/pkg/monzo"
)

const (
	defaultQueueSize = 100
	handlerTimeout   = 30 * time.Second
	maxPayloadBytes  = 1 << 20
)

// API is the part of the Monzo client the service needs
type API interface {
	Accounts(ctx context.Context) ([]model.Account, error)
	Transaction(ctx context.Context, transactionID string, expand ...string) (model.Transaction, error)
	Webhooks(ctx context.Context, accountID string) ([]model.Webhook, error)
	RegisterWebhook(ctx context.Context, accountID, webhookURL string) (model.Webhook, error)
	DeleteWebhook(ctx context.Context, webhookID string) error
}

// Config contains configuration for the Service
type Config struct {
	Client     API
	WebhookURL string // URL registered by EnsureWebhooks
	Secret     string // HMAC secret, signature checks are off when empty
	QueueSize  int
	Logger     *slog.Logger
}

// Service handles webhook events from Monzo
type Service struct {
	client     API
	clientMu   sync.Mutex // The Monzo client is not safe for concurrent use
	webhookURL string
	secret     string
	rawChan    chan []byte
	router     chi.Router
	logger     *slog.Logger

	handlersMu sync.RWMutex
	handlers   []TransactionEventHandler

	done      chan struct{}
	closeOnce sync.Once
	processor sync.WaitGroup
	inflight  sync.WaitGroup
}

// New creates a Service and starts its event processor
func New(cfg *Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	s := &Service{
		client:     cfg.Client,
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		secret:     cfg.Secret,
		rawChan:    make(chan []byte, queueSize),
		logger:     logger,
		done:       make(chan struct{}),
	}

	r := commonHttp.NewRouter()
	r.Post("/monzo/event", s.handleWebhook)
	r.Post("/event", s.handleWebhook)
	r.Get("/webhooks", s.listWebhooks)
	r.Post("/webhooks/register", s.registerWebhook)
	r.Delete("/webhooks/{id}", s.deleteWebhook)
	s.router = r

	s.processor.Add(1)
	go s.processEvents()

	return s
}

// Chi returns the router for this service
func (s *Service) Chi() chi.Router {
	return s.router
}

// RegisterHandler registers a handler for transaction events
func (s *Service) RegisterHandler(handler TransactionEventHandler) {
	s.logger.Info("Registering transaction handler", "handler", handler)

	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Close stops the event processor and waits for running handlers to return.
// Events still queued are dropped.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.processor.Wait()
	s.inflight.Wait()
}

// handleWebhook queues an incoming delivery for processing
func (s *Service) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		s.logger.Error("Failed to read request body", "error", err)
		commonHttp.Error(w, errors.Wrap(err, "failed to read request body"), http.StatusInternalServerError)
		return
	}
	if len(body) > maxPayloadBytes {
		s.logger.Warn("Rejecting oversized webhook event", "limit", maxPayloadBytes)
		commonHttp.Error(w, errors.New("request body too large"), http.StatusRequestEntityTooLarge)
		return
	}

	if s.secret != "" {
		signature := r.Header.Get("X-Monzo-Signature")
		if !ValidateSignature(body, signature, s.secret) {
			s.logger.Warn("Invalid webhook signature", "signature", signature)
			commonHttp.HandleError(w, errors.ErrInvalidSignature)
			return
		}
	}

	if _, err := parseEvent(body); err != nil {
		s.logger.Warn("Rejecting webhook event", "error", err)
		commonHttp.HandleError(w, err)
		return
	}

	select {
	case s.rawChan <- body:
	case <-s.done:
		commonHttp.Error(w, errors.New("webhook service is shutting down"), http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	commonHttp.Success(w, map[string]string{"status": "accepted"})
}

// processEvents handles queued events one at a time until Close
func (s *Service) processEvents() {
	defer s.processor.Done()

	s.logger.Info("Starting webhook event processor")
	for {
		select {
		case raw := <-s.rawChan:
			s.processEvent(raw)
		case <-s.done:
			s.logger.Info("Stopping webhook event processor", "dropped", len(s.rawChan))
			return
		}
	}
}

// processEvent enriches a transaction.created event and notifies the
// handlers
func (s *Service) processEvent(raw []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	event, err := parseEvent(raw)
	if err != nil {
		s.logger.Error("Failed to parse webhook event", "error", err)
		return
	}
	s.logger.Info("Processing event", "type", event.Type)

	if event.Type != EventTransactionCreated {
		s.logger.Info("Ignoring non-transaction event", "type", event.Type)
		return
	}

	var data eventTransaction
	if err := json.Unmarshal(event.Data, &data); err != nil || data.ID == "" {
		s.logger.Error("Failed to parse transaction data", "error", err)
		return
	}

	txEvent, err := s.enrich(ctx, data)
	if err != nil {
		s.logger.Error("Failed to enrich transaction event", "transaction_id", data.ID, "error", err)
		return
	}

	s.handlersMu.RLock()
	handlers := append([]TransactionEventHandler(nil), s.handlers...)
	s.handlersMu.RUnlock()

	for _, handler := range handlers {
		s.inflight.Add(1)
		go func(h TransactionEventHandler) {
			defer s.inflight.Done()

			hctx, hcancel := context.WithTimeout(context.Background(), handlerTimeout)
			defer hcancel()

			if err := h.HandleEvent(hctx, txEvent); err != nil {
				s.logger.Error("Handler failed to process event", "handler", h, "error", err)
			}
		}(handler)
	}
}

// enrich fetches the full transaction, merchant expanded, and its account
func (s *Service) enrich(ctx context.Context, data eventTransaction) (TransactionEvent, error) {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	transaction, err := s.client.Transaction(ctx, data.ID, monzo.ExpandMerchant)
	if err != nil {
		return TransactionEvent{}, errors.Wrap(err, "failed to retrieve transaction")
	}

	accountID := transaction.AccountID
	if accountID == "" {
		accountID = data.AccountID
	}

	accounts, err := s.client.Accounts(ctx)
	if err != nil {
		return TransactionEvent{}, errors.Wrap(err, "failed to retrieve accounts")
	}

	for _, account := range accounts {
		if account.ID == accountID {
			return TransactionEvent{Account: account, Transaction: transaction}, nil
		}
	}
	return TransactionEvent{}, errors.Wrap(errors.ErrNotFound, "account %s", accountID)
}

// EnsureWebhooks registers the configured URL on every open account that
// does not have it yet
func (s *Service) EnsureWebhooks(ctx context.Context) error {
	if s.webhookURL == "" {
		return errors.Wrap(errors.ErrNotConfigured, "webhook URL")
	}

	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	accounts, err := s.client.Accounts(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to fetch accounts")
	}

	var errs []error
	for _, account := range accounts {
		if account.Closed {
			continue
		}
		if err := s.ensureWebhookForAccount(ctx, account.ID); err != nil {
			s.logger.Error("Failed to set up webhook for account", "account_id", account.ID, "error", err)
			errs = append(errs, errors.Wrap(err, "account %s", account.ID))
			continue
		}
		s.logger.Info("Webhook configured for account", "account_id", account.ID)
	}
	return errors.Join(errs...)
}

// ensureWebhookForAccount ensures the account has our webhook registered.
// Callers hold clientMu.
func (s *Service) ensureWebhookForAccount(ctx context.Context, accountID string) error {
	webhooks, err := s.client.Webhooks(ctx, accountID)
	if err != nil {
		return errors.Wrap(err, "failed to list webhooks")
	}

	for _, webhook := range webhooks {
		if webhook.URL == s.webhookURL {
			s.logger.Info("Webhook already registered", "webhook_id", webhook.ID, "url", webhook.URL)
			return nil
		}
	}

	webhook, err := s.client.RegisterWebhook(ctx, accountID, s.webhookURL)
	if err != nil {
		return errors.Wrap(err, "failed to register webhook")
	}

	s.logger.Info("New webhook registered", "webhook_id", webhook.ID, "url", webhook.URL)
	return nil
}

// listWebhooks handles requests to list all webhooks for an account
func (s *Service) listWebhooks(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		commonHttp.HandleError(w, errors.Wrap(errors.ErrInvalidInput, "account_id query parameter is required"))
		return
	}

	s.clientMu.Lock()
	webhooks, err := s.client.Webhooks(r.Context(), accountID)
	s.clientMu.Unlock()
	if err != nil {
		s.logger.Error("Failed to list webhooks", "account_id", accountID, "error", err)
		s.clientError(w, err)
		return
	}

	commonHttp.Success(w, map[string]interface{}{
		"webhooks": webhooks,
	})
}

// registerWebhook handles requests to register a new webhook
func (s *Service) registerWebhook(w http.ResponseWriter, r *http.Request) {
	var request struct {
		AccountID string `json:"account_id"`
		URL       string `json:"url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		commonHttp.HandleError(w, errors.Wrap(errors.ErrInvalidInput, "invalid request body: %v", err))
		return
	}
	if request.AccountID == "" || request.URL == "" {
		commonHttp.HandleError(w, errors.Wrap(errors.ErrInvalidInput, "account_id and url are required"))
		return
	}

	s.clientMu.Lock()
	webhook, err := s.client.RegisterWebhook(r.Context(), request.AccountID, request.URL)
	s.clientMu.Unlock()
	if err != nil {
		s.logger.Error("Failed to register webhook", "account_id", request.AccountID, "url", request.URL, "error", err)
		s.clientError(w, err)
		return
	}

	commonHttp.Success(w, map[string]interface{}{
		"webhook": webhook,
	})
}

// deleteWebhook handles requests to delete a webhook
func (s *Service) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	webhookID := chi.URLParam(r, "id")

	s.clientMu.Lock()
	err := s.client.DeleteWebhook(r.Context(), webhookID)
	s.clientMu.Unlock()
	if err != nil {
		s.logger.Error("Failed to delete webhook", "webhook_id", webhookID, "error", err)
		s.clientError(w, err)
		return
	}

	commonHttp.Success(w, map[string]string{
		"status": "webhook deleted",
	})
}

// clientError maps a Monzo client error onto a response status
func (s *Service) clientError(w http.ResponseWriter, err error) {
	var validationErr *monzo.ValidationError
	var apiErr *monzo.APIError
	switch {
	case errors.As(err, &validationErr):
		commonHttp.Error(w, err, http.StatusBadRequest)
	case errors.Is(err, monzo.ErrAuthenticationRequired):
		commonHttp.Error(w, err, http.StatusServiceUnavailable)
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		commonHttp.Error(w, err, http.StatusNotFound)
	default:
		commonHttp.Error(w, err, http.StatusBadGateway)
	}
}
