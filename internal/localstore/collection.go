package localstore

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mmynk/pocketledger/internal/models"
	"github.com/mmynk/pocketledger/internal/storage"
)

// Collection is a JSON array persisted whole under one key.
type Collection[T any] struct {
	kv  storage.KeyValue
	key string
}

// NewCollection binds a collection to key in kv.
func NewCollection[T any](kv storage.KeyValue, key string) *Collection[T] {
	return &Collection[T]{kv: kv, key: key}
}

// Key returns the key the collection is stored under.
func (c *Collection[T]) Key() string {
	return c.key
}

// Load returns the stored items. A missing key or a value that does not
// parse yields an empty slice; parse failures are logged, never returned.
func (c *Collection[T]) Load() []T {
	raw, ok := c.kv.Get(c.key)
	if !ok || raw == "" {
		return []T{}
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.Warn("Discarding unreadable collection", "key", c.key, "error", err)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

// Save overwrites the stored collection with items.
func (c *Collection[T]) Save(items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.kv.Set(c.key, string(raw)); err != nil {
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	return nil
}

// Notes returns the notes collection.
func Notes(kv storage.KeyValue) *Collection[models.Note] {
	return NewCollection[models.Note](kv, NotesKey)
}

// Debts returns the debts collection.
func Debts(kv storage.KeyValue) *Collection[models.Debt] {
	return NewCollection[models.Debt](kv, DebtsKey)
}

// Todos returns the todos collection.
func Todos(kv storage.KeyValue) *Collection[models.Todo] {
	return NewCollection[models.Todo](kv, TodosKey)
}
