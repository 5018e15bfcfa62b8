// Package localstore is a file-backed key-value store of string blobs.
//
// The whole map is held in memory and the file is rewritten on every Set or
// Delete, so it suits a handful of small collections and preferences.
package localstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mmynk/pocketledger/internal/storage"
)

// Keys of the live collections and preferences.
const (
	NotesKey    = "financialNotes"
	DebtsKey    = "pocketLedgerDebts"
	TodosKey    = "pocketLedgerTodos"
	ThemeKey    = "pocketLedgerTheme"
	CurrencyKey = "pocketLedgerCurrency"
)

var _ storage.KeyValue = (*Store)(nil)

// Store is a key-value store persisted as one JSON object on disk.
type Store struct {
	mu   sync.RWMutex
	path string
	data map[string]string
}

// Open loads the store at path, creating parent directories as needed.
// A missing file yields an empty store. A file that is not a JSON object is
// moved aside and the store starts empty.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create local store directory: %w", err)
	}

	s := &Store{path: path, data: map[string]string{}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read local store: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		aside := path + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
		slog.Warn("Local store is unreadable, starting empty", "path", path, "moved_to", aside, "error", err)
		if err := os.Rename(path, aside); err != nil {
			return nil, fmt.Errorf("move corrupt local store aside: %w", err)
		}
		s.data = map[string]string{}
	}
	if s.data == nil {
		s.data = map[string]string{}
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value for key and whether it exists.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key and rewrites the file.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.flushLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Delete removes key and rewrites the file. Missing keys are ignored.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.flushLocked(); err != nil {
		s.data[key] = prev
		return err
	}
	return nil
}

// Keys returns every key in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// flushLocked writes the map to a temp file and renames it over the store.
func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode local store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write local store: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write local store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync local store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close local store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace local store: %w", err)
	}
	return nil
}
