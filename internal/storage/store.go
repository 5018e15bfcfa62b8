// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/pocketledger/internal/models"
)

// Store defines the interface for the relational ledger store.
// This abstraction keeps the service and backup layers independent of SQLite.
type Store interface {
	// AddTransaction persists a new transaction and returns the assigned ID.
	// Returns an error if no row was written.
	AddTransaction(ctx context.Context, tx *models.Transaction) (int64, error)

	// UpdateTransaction replaces every field of an existing transaction.
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error

	// DeleteTransaction removes a transaction. Missing IDs are not an error.
	DeleteTransaction(ctx context.Context, id int64) error

	// ListTransactions returns all transactions, newest first.
	ListTransactions(ctx context.Context) ([]models.Transaction, error)

	// Summary returns balance, total income and total expense.
	Summary(ctx context.Context) (*models.Summary, error)

	// SpendingByCategory sums expenses per category, largest first.
	SpendingByCategory(ctx context.Context) ([]models.CategoryTotal, error)

	// Reset drops and recreates every table.
	Reset(ctx context.Context) error

	CredentialStore
	BackupTables

	// Close releases any resources held by the store.
	Close() error
}

// CredentialStore holds the single password record.
type CredentialStore interface {
	IsPasswordSet(ctx context.Context) (bool, error)
	SetPassword(ctx context.Context, value string) error
	// StoredPassword returns the raw stored value, or "" when unset.
	StoredPassword(ctx context.Context) (string, error)
}

// BackupTables manages the relational side of snapshots.
type BackupTables interface {
	BackupTransactions(ctx context.Context, id string) error
	TransactionBackupIDs(ctx context.Context) ([]string, error)
	HasTransactionBackup(ctx context.Context, id string) (bool, error)
	RestoreTransactions(ctx context.Context, id string) error
	DropTransactionBackup(ctx context.Context, id string) error
}

// Provider hands out the process-wide Store, opening it on first use.
type Provider interface {
	Store(ctx context.Context) (Store, error)
}

// KeyValue is the local store of string blobs.
type KeyValue interface {
	// Get returns the value and whether the key exists.
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
	// Keys returns every key, sorted.
	Keys() []string
}

// Static returns a Provider that always yields s.
func Static(s Store) Provider {
	return staticProvider{s}
}

type staticProvider struct{ s Store }

func (p staticProvider) Store(context.Context) (Store, error) { return p.s, nil }

// Credentials returns a CredentialStore that resolves the Store from p on every call,
// so callers do not force the database open at startup.
func Credentials(p Provider) CredentialStore {
	return providerCredentials{p}
}

type providerCredentials struct{ p Provider }

func (c providerCredentials) IsPasswordSet(ctx context.Context) (bool, error) {
	s, err := c.p.Store(ctx)
	if err != nil {
		return false, err
	}
	return s.IsPasswordSet(ctx)
}

func (c providerCredentials) SetPassword(ctx context.Context, value string) error {
	s, err := c.p.Store(ctx)
	if err != nil {
		return err
	}
	return s.SetPassword(ctx, value)
}

func (c providerCredentials) StoredPassword(ctx context.Context) (string, error) {
	s, err := c.p.Store(ctx)
	if err != nil {
		return "", err
	}
	return s.StoredPassword(ctx)
}
