// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/pocketledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

var (
	// ErrNotFound is returned when a row or backup table does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoRowsAffected is returned when a write reports zero affected rows.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrBackupExists is returned when a backup table already exists for an ID.
	ErrBackupExists = errors.New("backup already exists")
)

// dsnPragmas are applied by the driver to every pooled connection.
const dsnPragmas = "?_pragma=busy_timeout(5000)"

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Lazy owns the process-wide store and opens it on first use.
// Callers that arrive while the first open is running wait for that open and
// share its result. A failed open is forgotten so the next caller retries.
type Lazy struct {
	path string

	mu      sync.Mutex
	pending *openCall
}

type openCall struct {
	done  chan struct{}
	store *SQLiteStore
	err   error
}

var _ storage.Provider = (*Lazy)(nil)

// NewLazy returns a Lazy for dbPath. Nothing is opened yet.
func NewLazy(dbPath string) *Lazy {
	return &Lazy{path: dbPath}
}

// Open returns the shared store, opening and migrating it if needed.
func (l *Lazy) Open(ctx context.Context) (*SQLiteStore, error) {
	l.mu.Lock()
	call := l.pending
	if call == nil {
		call = &openCall{done: make(chan struct{})}
		l.pending = call
		l.mu.Unlock()

		call.store, call.err = New(l.path)
		if call.err != nil {
			l.mu.Lock()
			l.pending = nil
			l.mu.Unlock()
		}
		close(call.done)
	} else {
		l.mu.Unlock()
	}

	select {
	case <-call.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if call.err != nil {
		return nil, fmt.Errorf("open ledger database %s: %w", l.path, call.err)
	}
	return call.store, nil
}

// Store implements storage.Provider.
func (l *Lazy) Store(ctx context.Context) (storage.Store, error) {
	s, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the store if it was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	call := l.pending
	l.pending = nil
	l.mu.Unlock()

	if call == nil {
		return nil
	}
	<-call.done
	if call.store == nil {
		return nil
	}
	return call.store.Close()
}
