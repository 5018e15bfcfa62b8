package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// schema contains the SQL statements to set up the database schema.
// These run on startup and on reset to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL,
    category TEXT NOT NULL,
    amount REAL NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
    notes TEXT
);

CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY,
    password TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
`

// legacyCurrencyColumn was dropped when display currency moved to a client preference.
const legacyCurrencyColumn = "currency"

const rebuildWithoutCurrency = `
CREATE TABLE transactions_new (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL,
    category TEXT NOT NULL,
    amount REAL NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
    notes TEXT
);
INSERT INTO transactions_new (id, date, category, amount, type, notes)
    SELECT id, date, category, amount, type, notes FROM transactions;
DROP TABLE transactions;
ALTER TABLE transactions_new RENAME TO transactions;
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
`

// widenSecondDates rewrites whole-second dates to the nanosecond layout so
// they sort correctly against newer rows.
const widenSecondDates = `
UPDATE transactions
SET date = substr(date, 1, 19) || '.000000000Z'
WHERE length(date) = 20 AND substr(date, 20, 1) = 'Z'
`

// runMigrations executes the schema setup and the legacy rewrites.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	if err := dropLegacyCurrency(context.Background(), db); err != nil {
		return err
	}
	if _, err := db.Exec(widenSecondDates); err != nil {
		return fmt.Errorf("widen transaction dates: %w", err)
	}
	return nil
}

// dropLegacyCurrency rebuilds transactions without the currency column.
// It is a no-op when the column is absent.
func dropLegacyCurrency(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin currency migration: %w", err)
	}
	defer tx.Rollback()

	exists, err := columnExists(ctx, tx, "transactions", legacyCurrencyColumn)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	slog.Info("Migrating transactions table", "drop_column", legacyCurrencyColumn)
	if _, err := tx.ExecContext(ctx, rebuildWithoutCurrency); err != nil {
		return fmt.Errorf("rebuild transactions without %s: %w", legacyCurrencyColumn, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit currency migration: %w", err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func columnExists(ctx context.Context, q queryer, table, column string) (bool, error) {
	rows, err := q.QueryContext(ctx, `PRAGMA table_info(`+quoteIdent(table)+`)`)
	if err != nil {
		return false, fmt.Errorf("query table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dfltVal sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dfltVal, &pk); err != nil {
			return false, fmt.Errorf("scan table info %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate table info %s: %w", table, err)
	}
	return false, nil
}
