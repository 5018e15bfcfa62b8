package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/pocketledger/internal/backup"
	"github.com/mmynk/pocketledger/internal/models"
	"github.com/mmynk/pocketledger/internal/storage/sqlite"
)

type testEnv struct {
	dir    string
	dbPath string
	kvPath string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	return testEnv{
		dir:    dir,
		dbPath: filepath.Join(dir, "ledger.db"),
		kvPath: filepath.Join(dir, "local.json"),
	}
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(e.dir, "missing.toml"),
		"--env-file", filepath.Join(e.dir, "missing.env"),
		"--db", e.dbPath,
		"--local-store", e.kvPath,
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e testEnv) transactionCount(t *testing.T) int {
	t.Helper()
	store, err := sqlite.New(e.dbPath)
	require.NoError(t, err)
	defer store.Close()

	txs, err := store.ListTransactions(context.Background())
	require.NoError(t, err)
	return len(txs)
}

func TestResetBackupLifecycle(t *testing.T) {
	env := newTestEnv(t)

	store, err := sqlite.New(env.dbPath)
	require.NoError(t, err)
	_, err = store.AddTransaction(context.Background(), &models.Transaction{
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Category: "Salary",
		Amount:   decimal.NewFromInt(1000),
		Kind:     models.KindIncome,
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err := env.run(t, "backup", "list")
	require.NoError(t, err)
	require.Contains(t, out, "no backups")

	_, err = env.run(t, "reset")
	require.Error(t, err)
	require.Equal(t, 1, env.transactionCount(t))

	out, err = env.run(t, "--json", "reset", "--yes")
	require.NoError(t, err)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.True(t, snap.HasTransactions)
	require.Equal(t, 0, env.transactionCount(t))

	out, err = env.run(t, "backup", "list")
	require.NoError(t, err)
	require.Contains(t, out, snap.ID)
	require.Contains(t, out, "transactions")

	out, err = env.run(t, "backup", "restore", snap.ID)
	require.NoError(t, err)
	require.Contains(t, out, "restored")
	require.Equal(t, 1, env.transactionCount(t))

	out, err = env.run(t, "--json", "backup", "delete", snap.ID)
	require.NoError(t, err)
	var report backup.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Equal(t, []models.Artifact{models.ArtifactTransactions}, report.Done())

	_, err = env.run(t, "backup", "restore", snap.ID)
	require.ErrorIs(t, err, backup.ErrSnapshotNotFound)
}

func TestBackupRestoreRequiresID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "backup", "restore")
	require.Error(t, err)
}
