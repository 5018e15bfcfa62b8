// Package backup snapshots, lists, restores and deletes backups that span the
// SQLite ledger and the local store.
//
// A snapshot has no index. It exists because a transactions_backup_<id> table
// or a <key>_backup_<id> local key exists, and any subset of its artifacts may
// be present. Restore and delete touch two stores without a shared
// transaction, so they report the outcome of every artifact separately.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mmynk/pocketledger/internal/localstore"
	"github.com/mmynk/pocketledger/internal/models"
	"github.com/mmynk/pocketledger/internal/storage"
)

var (
	// ErrSnapshotNotFound is returned when no artifact exists for an ID.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidID is returned for an empty snapshot ID.
	ErrInvalidID = errors.New("invalid snapshot id")
)

// backupInfix joins a live key or table name to a snapshot ID.
const backupInfix = "_backup_"

// localArtifacts maps local store artifacts to their live keys.
var localArtifacts = []struct {
	artifact models.Artifact
	key      string
}{
	{models.ArtifactNotes, localstore.NotesKey},
	{models.ArtifactDebts, localstore.DebtsKey},
	{models.ArtifactTodos, localstore.TodosKey},
}

// BackupKey returns the local store key holding key's backup for id.
func BackupKey(key, id string) string {
	return key + backupInfix + id
}

// Clearer empties the live local collections.
type Clearer interface {
	Clear() error
}

// Coordinator manages snapshots across both stores.
type Coordinator struct {
	provider storage.Provider
	kv       storage.KeyValue
	clearer  Clearer
	now      func() time.Time
}

// NewCoordinator creates a Coordinator. clearer is used by ResetAll.
func NewCoordinator(provider storage.Provider, kv storage.KeyValue, clearer Clearer) *Coordinator {
	return &Coordinator{
		provider: provider,
		kv:       kv,
		clearer:  clearer,
		now:      time.Now,
	}
}

// Result is the outcome of one artifact in a restore or delete.
type Result struct {
	Artifact models.Artifact `json:"artifact"`
	Present  bool            `json:"present"`
	Done     bool            `json:"done"`
	Error    string          `json:"error,omitempty"`
}

// Report lists per-artifact outcomes for one snapshot.
type Report struct {
	ID      string   `json:"id"`
	Results []Result `json:"results"`
}

// Failed returns the artifacts whose step failed.
func (r *Report) Failed() []models.Artifact {
	var out []models.Artifact
	for _, res := range r.Results {
		if res.Error != "" {
			out = append(out, res.Artifact)
		}
	}
	return out
}

// Done returns the artifacts that were applied.
func (r *Report) Done() []models.Artifact {
	var out []models.Artifact
	for _, res := range r.Results {
		if res.Done {
			out = append(out, res.Artifact)
		}
	}
	return out
}

func (r *Report) record(artifact models.Artifact, present bool, err error) error {
	res := Result{Artifact: artifact, Present: present, Done: present && err == nil}
	if err != nil {
		res.Error = err.Error()
		err = fmt.Errorf("%s: %w", artifact, err)
	}
	r.Results = append(r.Results, res)
	return err
}

func (r *Report) anyPresent() bool {
	for _, res := range r.Results {
		if res.Present || res.Error != "" {
			return true
		}
	}
	return false
}

// Create writes a snapshot of transactions and, when present, notes and debts.
// The transactions backup must succeed; failures on local artifacts are
// returned alongside the snapshot.
func (c *Coordinator) Create(ctx context.Context) (models.Snapshot, error) {
	now := c.now()
	snap := models.Snapshot{ID: NewID(now), CreatedAt: now}

	store, err := c.provider.Store(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}
	if err := store.BackupTransactions(ctx, snap.ID); err != nil {
		return models.Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}
	snap.HasTransactions = true

	var errs []error
	for _, la := range localArtifacts {
		raw, ok := c.kv.Get(la.key)
		if !ok {
			continue
		}
		if err := c.kv.Set(BackupKey(la.key, snap.ID), raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", la.artifact, err))
			continue
		}
		snap.Mark(la.artifact)
	}

	slog.Info("Snapshot created", "snapshot_id", snap.ID, "artifacts", snap.Artifacts())
	return snap, errors.Join(errs...)
}

// List returns every snapshot found in either store, newest first.
// IDs that do not parse are listed with the current time and a warning.
func (c *Coordinator) List(ctx context.Context) ([]models.Snapshot, error) {
	store, err := c.provider.Store(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	txIDs, err := store.TransactionBackupIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	found := make(map[string]*models.Snapshot)
	get := func(id string) *models.Snapshot {
		s, ok := found[id]
		if !ok {
			s = &models.Snapshot{ID: id}
			found[id] = s
		}
		return s
	}

	for _, id := range txIDs {
		get(id).HasTransactions = true
	}
	for _, key := range c.kv.Keys() {
		for _, la := range localArtifacts {
			id, ok := strings.CutPrefix(key, la.key+backupInfix)
			if !ok || id == "" {
				continue
			}
			get(id).Mark(la.artifact)
		}
	}

	now := c.now()
	snaps := make([]models.Snapshot, 0, len(found))
	for id, s := range found {
		t, err := ParseID(id)
		if err != nil {
			slog.Warn("Unparsable snapshot id, using current time", "snapshot_id", id, "error", err)
			t = now
		}
		s.CreatedAt = t
		snaps = append(snaps, *s)
	}

	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
		}
		return snaps[i].ID > snaps[j].ID
	})
	return snaps, nil
}

// Restore copies every artifact present for id over the live data.
// Absent artifacts are left untouched. The returned error joins every
// per-artifact failure; the report is returned either way.
func (c *Coordinator) Restore(ctx context.Context, id string) (*Report, error) {
	return c.apply(ctx, id, "restore",
		func(store storage.Store) error { return store.RestoreTransactions(ctx, id) },
		func(liveKey, backupKey, raw string) error { return c.kv.Set(liveKey, raw) },
	)
}

// Delete removes every artifact present for id.
func (c *Coordinator) Delete(ctx context.Context, id string) (*Report, error) {
	return c.apply(ctx, id, "delete",
		func(store storage.Store) error { return store.DropTransactionBackup(ctx, id) },
		func(liveKey, backupKey, raw string) error { return c.kv.Delete(backupKey) },
	)
}

func (c *Coordinator) apply(
	ctx context.Context,
	id, op string,
	onTable func(storage.Store) error,
	onKey func(liveKey, backupKey, raw string) error,
) (*Report, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	report := &Report{ID: id}
	var errs []error

	if store, err := c.provider.Store(ctx); err != nil {
		errs = append(errs, report.record(models.ArtifactTransactions, false, err))
	} else if has, err := store.HasTransactionBackup(ctx, id); err != nil {
		errs = append(errs, report.record(models.ArtifactTransactions, false, err))
	} else if has {
		if err := report.record(models.ArtifactTransactions, true, onTable(store)); err != nil {
			errs = append(errs, err)
		}
	} else {
		report.record(models.ArtifactTransactions, false, nil)
	}

	for _, la := range localArtifacts {
		backupKey := BackupKey(la.key, id)
		raw, ok := c.kv.Get(backupKey)
		if !ok {
			report.record(la.artifact, false, nil)
			continue
		}
		if err := report.record(la.artifact, true, onKey(la.key, backupKey, raw)); err != nil {
			errs = append(errs, err)
		}
	}

	if !report.anyPresent() {
		return report, fmt.Errorf("%s %s: %w", op, id, ErrSnapshotNotFound)
	}

	err := errors.Join(errs...)
	if err != nil {
		slog.Warn("Snapshot "+op+" incomplete", "snapshot_id", id, "done", report.Done(), "failed", report.Failed(), "error", err)
		return report, fmt.Errorf("%s %s: %w", op, id, err)
	}
	slog.Info("Snapshot "+op+" complete", "snapshot_id", id, "artifacts", report.Done())
	return report, nil
}

// ResetAll snapshots everything, then wipes the ledger and the local
// collections. Nothing is wiped if the transactions backup fails.
func (c *Coordinator) ResetAll(ctx context.Context) (models.Snapshot, error) {
	snap, err := c.Create(ctx)
	if snap.ID == "" {
		return models.Snapshot{}, fmt.Errorf("reset aborted, backup failed: %w", err)
	}
	if err != nil {
		return snap, fmt.Errorf("reset aborted, backup %s incomplete: %w", snap.ID, err)
	}

	store, err := c.provider.Store(ctx)
	if err != nil {
		return snap, fmt.Errorf("reset: %w", err)
	}
	if err := store.Reset(ctx); err != nil {
		return snap, fmt.Errorf("reset ledger: %w", err)
	}
	if c.clearer != nil {
		if err := c.clearer.Clear(); err != nil {
			return snap, fmt.Errorf("reset local data: %w", err)
		}
	}

	slog.Info("All data reset", "snapshot_id", snap.ID)
	return snap, nil
}
