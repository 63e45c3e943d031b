// Package model contains the typed representations of Monzo API resources
// and the mappers that build them from raw JSON responses.
//
// All monetary values are integers in minor currency units (pence for GBP).
package model

import (
	"time"
)

// AccountType is the kind of Monzo account
type AccountType string

// Known account types
const (
	AccountTypeRetail      AccountType = "uk_retail"
	AccountTypeRetailJoint AccountType = "uk_retail_joint"
	AccountTypePrepaid     AccountType = "uk_prepaid"
	AccountTypeBusiness    AccountType = "uk_business"
)

// Owner is a person who owns a Monzo account
type Owner struct {
	UserID             string `json:"user_id"`
	PreferredName      string `json:"preferred_name"`
	PreferredFirstName string `json:"preferred_first_name"`
}

// Account represents a Monzo account
type Account struct {
	ID            string      // Account ID
	Description   string      // Account description
	Created       time.Time   // Account creation time
	Closed        bool        // Whether the account is closed
	Type          AccountType // Account type
	Currency      string      // ISO 4217 currency code
	Owners        []Owner     // Account owners, in provider order
	AccountNumber string      // UK account number, if any
	SortCode      string      // UK sort code, if any
}

// Balance is the balance of a single account
type Balance struct {
	Balance      int64  // Available balance in minor units
	TotalBalance int64  // Balance including pots
	Currency     string // ISO 4217 currency code
	SpendToday   int64  // Amount spent today, usually negative
}

// Pot is a savings container attached to an account
type Pot struct {
	ID       string
	Name     string
	Style    string
	Balance  int64
	Currency string
	RoundUp  bool
	Created  time.Time
	Updated  time.Time
	Deleted  bool
}

// ActivePots returns the pots that have not been deleted
func ActivePots(pots []Pot) []Pot {
	active := make([]Pot, 0, len(pots))
	for _, pot := range pots {
		if !pot.Deleted {
			active = append(active, pot)
		}
	}
	return active
}

// Address is a merchant's postal location
type Address struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Postcode  string  `json:"postcode"`
	Region    string  `json:"region"`
}

// Merchant represents a merchant in a Monzo transaction
type Merchant struct {
	ID       string  `json:"id"`
	GroupID  string  `json:"group_id"`
	Name     string  `json:"name"`
	Logo     string  `json:"logo"`
	Emoji    string  `json:"emoji"`
	Category string  `json:"category"`
	Online   bool    `json:"online"`
	ATM      bool    `json:"atm"`
	Address  Address `json:"address"`
}

// Attachment is a file attached to a transaction
type Attachment struct {
	ID         string
	ExternalID string // Transaction the attachment belongs to
	FileType   string
	FileURL    string
	UserID     string
	Created    time.Time
}

// Transaction represents a Monzo bank transaction
type Transaction struct {
	ID             string
	AccountID      string
	UserID         string
	Description    string
	Amount         int64 // Amount in minor units (negative for debit)
	Currency       string
	LocalAmount    int64
	LocalCurrency  string
	AccountBalance int64
	Category       string
	Notes          string
	DeclineReason  string
	Created        time.Time
	Updated        time.Time
	Settled        time.Time // Zero until the transaction settles
	MerchantID     string
	Merchant       *Merchant // Set only when the merchant was expanded
	Metadata       map[string]string
	Attachments    []Attachment
}

// IsSettled reports whether the transaction has settled
func (t Transaction) IsSettled() bool {
	return !t.Settled.IsZero()
}

// Webhook is a URL registered to receive account events
type Webhook struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	URL       string `json:"url"`
}

// WhoAmI describes the identity behind an access token
type WhoAmI struct {
	Authenticated bool
	ClientID      string
	UserID        string
}

// Upload is an attachment upload slot issued by the provider
type Upload struct {
	FileURL   string // Where the file will be served once uploaded
	UploadURL string // Pre-signed URL the bytes are sent to
}
