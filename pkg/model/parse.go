package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type accountWire struct {
	ID            string  `json:"id"`
	Description   string  `json:"description"`
	Created       string  `json:"created"`
	Closed        bool    `json:"closed"`
	Type          string  `json:"type"`
	Currency      string  `json:"currency"`
	Owners        []Owner `json:"owners"`
	AccountNumber string  `json:"account_number"`
	SortCode      string  `json:"sort_code"`
}

type balanceWire struct {
	Balance      *int64 `json:"balance"`
	TotalBalance int64  `json:"total_balance"`
	Currency     string `json:"currency"`
	SpendToday   int64  `json:"spend_today"`
}

type potWire struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Style    string `json:"style"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
	RoundUp  bool   `json:"round_up"`
	Created  string `json:"created"`
	Updated  string `json:"updated"`
	Deleted  bool   `json:"deleted"`
}

type attachmentWire struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	FileType   string `json:"file_type"`
	FileURL    string `json:"file_url"`
	UserID     string `json:"user_id"`
	Created    string `json:"created"`
}

type transactionWire struct {
	ID             string            `json:"id"`
	AccountID      string            `json:"account_id"`
	UserID         string            `json:"user_id"`
	Description    string            `json:"description"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	LocalAmount    int64             `json:"local_amount"`
	LocalCurrency  string            `json:"local_currency"`
	AccountBalance int64             `json:"account_balance"`
	Category       string            `json:"category"`
	Notes          string            `json:"notes"`
	DeclineReason  string            `json:"decline_reason"`
	Created        string            `json:"created"`
	Updated        string            `json:"updated"`
	Settled        string            `json:"settled"`
	Merchant       json.RawMessage   `json:"merchant"`
	Metadata       map[string]string `json:"metadata"`
	Attachments    []attachmentWire  `json:"attachments"`
}

type whoAmIWire struct {
	Authenticated *bool  `json:"authenticated"`
	ClientID      string `json:"client_id"`
	UserID        string `json:"user_id"`
}

type uploadWire struct {
	FileURL   string `json:"file_url"`
	UploadURL string `json:"upload_url"`
}

// ParseAccounts maps an accounts response onto accounts. Both the list
// envelope ({"accounts": [...]}) and a bare account object are accepted.
func ParseAccounts(data []byte) ([]Account, error) {
	items, err := unwrap(data, "account", "accounts", "account")
	if err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(items))
	for _, item := range items {
		account, err := mapAccount(item)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// ParseAccount maps a single account object
func ParseAccount(data []byte) (Account, error) {
	return first(ParseAccounts(data))
}

func mapAccount(raw json.RawMessage) (Account, error) {
	var w accountWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Account{}, decodeFailed("account", err)
	}
	if w.ID == "" {
		return Account{}, missingField("account", "id")
	}

	created, err := parseTime("account", "created", w.Created)
	if err != nil {
		return Account{}, err
	}

	owners := w.Owners
	if owners == nil {
		owners = []Owner{}
	}

	return Account{
		ID:            w.ID,
		Description:   w.Description,
		Created:       created,
		Closed:        w.Closed,
		Type:          AccountType(w.Type),
		Currency:      w.Currency,
		Owners:        owners,
		AccountNumber: w.AccountNumber,
		SortCode:      w.SortCode,
	}, nil
}

// ParseBalance maps a balance response
func ParseBalance(data []byte) (Balance, error) {
	var w balanceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Balance{}, decodeFailed("balance", err)
	}
	if w.Balance == nil {
		return Balance{}, missingField("balance", "balance")
	}

	return Balance{
		Balance:      *w.Balance,
		TotalBalance: w.TotalBalance,
		Currency:     w.Currency,
		SpendToday:   w.SpendToday,
	}, nil
}

// ParsePots maps a pots response. Deleted pots are included.
func ParsePots(data []byte) ([]Pot, error) {
	items, err := unwrap(data, "pot", "pots", "pot")
	if err != nil {
		return nil, err
	}

	pots := make([]Pot, 0, len(items))
	for _, item := range items {
		pot, err := mapPot(item)
		if err != nil {
			return nil, err
		}
		pots = append(pots, pot)
	}
	return pots, nil
}

// ParsePot maps a single pot, as returned by deposits and withdrawals
func ParsePot(data []byte) (Pot, error) {
	return first(ParsePots(data))
}

func mapPot(raw json.RawMessage) (Pot, error) {
	var w potWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Pot{}, decodeFailed("pot", err)
	}
	if w.ID == "" {
		return Pot{}, missingField("pot", "id")
	}

	created, err := parseTime("pot", "created", w.Created)
	if err != nil {
		return Pot{}, err
	}
	updated, err := parseTime("pot", "updated", w.Updated)
	if err != nil {
		return Pot{}, err
	}

	return Pot{
		ID:       w.ID,
		Name:     w.Name,
		Style:    w.Style,
		Balance:  w.Balance,
		Currency: w.Currency,
		RoundUp:  w.RoundUp,
		Created:  created,
		Updated:  updated,
		Deleted:  w.Deleted,
	}, nil
}

// ParseTransactions maps a transactions response. It accepts the list
// envelope, the single {"transaction": {...}} envelope and a bare object.
func ParseTransactions(data []byte) ([]Transaction, error) {
	items, err := unwrap(data, "transaction", "transactions", "transaction")
	if err != nil {
		return nil, err
	}

	transactions := make([]Transaction, 0, len(items))
	for _, item := range items {
		transaction, err := mapTransaction(item)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, nil
}

// ParseTransaction maps a single transaction
func ParseTransaction(data []byte) (Transaction, error) {
	return first(ParseTransactions(data))
}

func mapTransaction(raw json.RawMessage) (Transaction, error) {
	var w transactionWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Transaction{}, decodeFailed("transaction", err)
	}
	if w.ID == "" {
		return Transaction{}, missingField("transaction", "id")
	}

	created, err := parseTime("transaction", "created", w.Created)
	if err != nil {
		return Transaction{}, err
	}
	updated, err := parseTime("transaction", "updated", w.Updated)
	if err != nil {
		return Transaction{}, err
	}
	settled, err := parseTime("transaction", "settled", w.Settled)
	if err != nil {
		return Transaction{}, err
	}

	merchantID, merchant, err := decodeMerchant(w.Merchant)
	if err != nil {
		return Transaction{}, err
	}

	attachments := make([]Attachment, 0, len(w.Attachments))
	for _, a := range w.Attachments {
		attachment, err := attachmentFromWire(a)
		if err != nil {
			return Transaction{}, err
		}
		attachments = append(attachments, attachment)
	}

	metadata := w.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	return Transaction{
		ID:             w.ID,
		AccountID:      w.AccountID,
		UserID:         w.UserID,
		Description:    w.Description,
		Amount:         w.Amount,
		Currency:       w.Currency,
		LocalAmount:    w.LocalAmount,
		LocalCurrency:  w.LocalCurrency,
		AccountBalance: w.AccountBalance,
		Category:       w.Category,
		Notes:          w.Notes,
		DeclineReason:  w.DeclineReason,
		Created:        created,
		Updated:        updated,
		Settled:        settled,
		MerchantID:     merchantID,
		Merchant:       merchant,
		Metadata:       metadata,
		Attachments:    attachments,
	}, nil
}

// decodeMerchant handles both forms of the merchant field: a bare id
// string, or the full object when the request asked for expand[]=merchant.
func decodeMerchant(raw json.RawMessage) (string, *Merchant, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil, nil
	}

	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", nil, decodeFailed("merchant", err)
		}
		return id, nil, nil
	}

	var merchant Merchant
	if err := json.Unmarshal(raw, &merchant); err != nil {
		return "", nil, decodeFailed("merchant", err)
	}
	if merchant.ID == "" {
		return "", nil, missingField("merchant", "id")
	}
	return merchant.ID, &merchant, nil
}

// ParseAttachment maps an attachment response, with or without the
// {"attachment": {...}} envelope.
func ParseAttachment(data []byte) (Attachment, error) {
	items, err := unwrap(data, "attachment", "", "attachment")
	if err != nil {
		return Attachment{}, err
	}

	if len(items) == 0 {
		return Attachment{}, missingField("attachment", "id")
	}

	var w attachmentWire
	if err := json.Unmarshal(items[0], &w); err != nil {
		return Attachment{}, decodeFailed("attachment", err)
	}
	return attachmentFromWire(w)
}

func attachmentFromWire(w attachmentWire) (Attachment, error) {
	if w.ID == "" {
		return Attachment{}, missingField("attachment", "id")
	}

	created, err := parseTime("attachment", "created", w.Created)
	if err != nil {
		return Attachment{}, err
	}

	return Attachment{
		ID:         w.ID,
		ExternalID: w.ExternalID,
		FileType:   w.FileType,
		FileURL:    w.FileURL,
		UserID:     w.UserID,
		Created:    created,
	}, nil
}

// ParseWebhooks maps a webhooks response
func ParseWebhooks(data []byte) ([]Webhook, error) {
	items, err := unwrap(data, "webhook", "webhooks", "webhook")
	if err != nil {
		return nil, err
	}

	webhooks := make([]Webhook, 0, len(items))
	for _, item := range items {
		var webhook Webhook
		if err := json.Unmarshal(item, &webhook); err != nil {
			return nil, decodeFailed("webhook", err)
		}
		if webhook.ID == "" {
			return nil, missingField("webhook", "id")
		}
		webhooks = append(webhooks, webhook)
	}
	return webhooks, nil
}

// ParseWebhook maps a single webhook
func ParseWebhook(data []byte) (Webhook, error) {
	return first(ParseWebhooks(data))
}

// ParseWhoAmI maps a /ping/whoami response
func ParseWhoAmI(data []byte) (WhoAmI, error) {
	var w whoAmIWire
	if err := json.Unmarshal(data, &w); err != nil {
		return WhoAmI{}, decodeFailed("whoami", err)
	}
	if w.Authenticated == nil {
		return WhoAmI{}, missingField("whoami", "authenticated")
	}

	return WhoAmI{
		Authenticated: *w.Authenticated,
		ClientID:      w.ClientID,
		UserID:        w.UserID,
	}, nil
}

// ParseUpload maps an /attachment/upload response
func ParseUpload(data []byte) (Upload, error) {
	var w uploadWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Upload{}, decodeFailed("upload", err)
	}
	if w.UploadURL == "" {
		return Upload{}, missingField("upload", "upload_url")
	}
	if w.FileURL == "" {
		return Upload{}, missingField("upload", "file_url")
	}

	return Upload{FileURL: w.FileURL, UploadURL: w.UploadURL}, nil
}

// unwrap returns the resource objects contained in a response body. A
// top-level array, the list envelope, the single-item envelope and a bare
// object are all recognised.
func unwrap(data []byte, resource, listKey, itemKey string) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, decodeFailed(resource, errors.New("empty body"))
	}

	if data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, decodeFailed(resource, err)
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, decodeFailed(resource, err)
	}

	if listKey != "" {
		if raw, ok := envelope[listKey]; ok {
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, decodeFailed(resource, err)
			}
			return items, nil
		}
	}
	if itemKey != "" {
		if raw, ok := envelope[itemKey]; ok {
			return []json.RawMessage{raw}, nil
		}
	}

	return []json.RawMessage{data}, nil
}

func first[T any](items []T, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, &MalformedResponseError{Resource: fmt.Sprintf("%T", zero), Err: errors.New("no items in response")}
	}
	return items[0], nil
}

// parseTime accepts the provider's RFC 3339 timestamps, with or without
// fractional seconds. An empty value yields the zero time.
func parseTime(resource, field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, decodeFailed(resource, fmt.Errorf("field %q: %w", field, err))
	}
	return t, nil
}
