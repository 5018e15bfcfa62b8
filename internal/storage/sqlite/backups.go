package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// TransactionBackupPrefix starts the name of every transactions backup table.
const TransactionBackupPrefix = "transactions_backup_"

func backupTable(id string) string {
	return TransactionBackupPrefix + id
}

// quoteIdent quotes a table name for interpolation into SQL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func tableExists(ctx context.Context, q rowQueryer, name string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return count > 0, nil
}

// BackupTransactions copies the live transactions into transactions_backup_<id>.
func (s *SQLiteStore) BackupTransactions(ctx context.Context, id string) error {
	name := backupTable(id)
	exists, err := tableExists(ctx, s.db, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", name, ErrBackupExists)
	}

	if _, err := s.db.ExecContext(ctx,
		"CREATE TABLE "+quoteIdent(name)+" AS SELECT id, date, category, amount, type, notes FROM transactions",
	); err != nil {
		return fmt.Errorf("failed to back up transactions: %w", err)
	}
	return nil
}

// TransactionBackupIDs lists the IDs of every transactions backup table.
func (s *SQLiteStore) TransactionBackupIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ? ESCAPE '\' ORDER BY name`,
		strings.ReplaceAll(TransactionBackupPrefix, "_", `\_`)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup tables: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan backup table: %w", err)
		}
		// LIKE is case-insensitive; keep exact prefix matches only.
		if id, ok := strings.CutPrefix(name, TransactionBackupPrefix); ok && id != "" {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backup tables: %w", err)
	}
	return ids, nil
}

// HasTransactionBackup reports whether transactions_backup_<id> exists.
func (s *SQLiteStore) HasTransactionBackup(ctx context.Context, id string) (bool, error) {
	return tableExists(ctx, s.db, backupTable(id))
}

// RestoreTransactions replaces the live rows with the rows of the backup.
// The live table keeps its structure; on error it is left unchanged.
func (s *SQLiteStore) RestoreTransactions(ctx context.Context, id string) error {
	name := backupTable(id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback()

	exists, err := tableExists(ctx, tx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO transactions (id, date, category, amount, type, notes) SELECT id, date, category, amount, type, notes FROM "+quoteIdent(name),
	); err != nil {
		return fmt.Errorf("copy rows from %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}
	return nil
}

// DropTransactionBackup drops transactions_backup_<id> if it exists.
func (s *SQLiteStore) DropTransactionBackup(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(backupTable(id))); err != nil {
		return fmt.Errorf("failed to drop backup %s: %w", id, err)
	}
	return nil
}
