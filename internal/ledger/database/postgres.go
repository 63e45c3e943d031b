package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/baely/monzo/internal/common/errors"
	"github.com/baely/monzo/internal/ledger/models"
)

const DefaultTable = "monzo_transaction"

type Client struct {
	db    *sql.DB
	table string
}

func NewClient(user, password, host, port, db string) (*Client, error) {
	connString := fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable", user, password, host, port, db)
	driver, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	return &Client{
		db:    driver,
		table: pq.QuoteIdentifier(DefaultTable),
	}, nil
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Migrate creates the ledger table if it does not exist
func (c *Client) Migrate(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		transaction_id TEXT PRIMARY KEY,
		account_id     TEXT NOT NULL,
		timestamp      BIGINT NOT NULL,
		description    TEXT NOT NULL,
		merchant       TEXT NOT NULL DEFAULT '',
		category       TEXT NOT NULL DEFAULT '',
		amount         BIGINT NOT NULL,
		currency       TEXT NOT NULL
	)`, c.table)
	if _, err := c.db.ExecContext(ctx, q); err != nil {
		return errors.Wrap(err, "failed to create ledger table")
	}
	return nil
}

// AddTransaction records an entry. Recording the same transaction twice
// keeps the first entry.
func (c *Client) AddTransaction(ctx context.Context, entry models.Entry) error {
	q := fmt.Sprintf(`INSERT INTO %s (transaction_id, account_id, timestamp, description, merchant, category, amount, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (transaction_id) DO NOTHING`, c.table)
	_, err := c.db.ExecContext(ctx, q,
		entry.TransactionID,
		entry.AccountID,
		entry.Timestamp.Unix(),
		entry.Description,
		entry.Merchant,
		entry.Category,
		entry.Amount,
		entry.Currency,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return errors.Wrap(err, "failed to add transaction (%s)", pqErr.Code.Name())
		}
		return errors.Wrap(err, "failed to add transaction")
	}
	return nil
}

// Transactions returns the entries with start <= timestamp < end, oldest
// first
func (c *Client) Transactions(ctx context.Context, start, end time.Time) ([]models.Entry, error) {
	q := fmt.Sprintf(`SELECT transaction_id, account_id, timestamp, description, merchant, category, amount, currency
		FROM %s WHERE timestamp >= $1 AND timestamp < $2 ORDER BY timestamp ASC`, c.table)
	rows, err := c.db.QueryContext(ctx, q, clampUnix(start), end.Unix())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query transactions")
	}
	defer rows.Close()

	entries := make([]models.Entry, 0)
	for rows.Next() {
		var row models.EntryRow
		err = rows.Scan(&row.TransactionID, &row.AccountID, &row.Timestamp, &row.Description,
			&row.Merchant, &row.Category, &row.Amount, &row.Currency)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan transaction")
		}
		entries = append(entries, models.ToEntry(row))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read transactions")
	}
	return entries, nil
}

// Summary totals the entries with start <= timestamp < end
func (c *Client) Summary(ctx context.Context, start, end time.Time) (models.Summary, error) {
	q := fmt.Sprintf(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0),
		COALESCE(SUM(amount), 0)
		FROM %s WHERE timestamp >= $1 AND timestamp < $2`, c.table)

	var s models.Summary
	err := c.db.QueryRowContext(ctx, q, clampUnix(start), end.Unix()).Scan(&s.Count, &s.Spent, &s.Received, &s.Net)
	if err != nil {
		return models.Summary{}, errors.Wrap(err, "failed to summarise transactions")
	}
	return s, nil
}

// Close closes the connection pool
func (c *Client) Close() error {
	return c.db.Close()
}

func clampUnix(t time.Time) int64 {
	if s := t.Unix(); s > 0 {
		return s
	}
	return 0
}
