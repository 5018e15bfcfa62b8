package sqlite

import (
	"context"
	"fmt"
	"log/slog"
)

// Reset drops and recreates both tables. If that fails it falls back to
// deleting every row, which leaves the existing schema in place.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	err := s.recreateTables(ctx)
	if err == nil {
		slog.Info("Database reset", "mode", "recreate")
		return nil
	}

	slog.Warn("Reset: drop and recreate failed, deleting rows instead", "error", err)
	if err := s.deleteAllRows(ctx); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	slog.Warn("Database reset by row deletion; schema was not recreated")
	return nil
}

func (s *SQLiteStore) recreateTables(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DROP TABLE IF EXISTS transactions",
		"DROP TABLE IF EXISTS users",
		schema,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

func (s *SQLiteStore) deleteAllRows(ctx context.Context) error {
	for _, table := range []string{"transactions", "users"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)); err != nil {
			return fmt.Errorf("delete rows from %s: %w", table, err)
		}
	}
	return nil
}
