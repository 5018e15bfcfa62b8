package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pocketledger/internal/models"
)

// dateLayout is how dates are written. Fixed width with nanoseconds so text
// order is date order and a stored date reads back unchanged.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

// secondsLayout was written by older versions; migrations widen it to dateLayout.
const secondsLayout = "2006-01-02T15:04:05Z"

// readLayouts are accepted when reading rows written by older versions.
var readLayouts = []string{
	dateLayout,
	secondsLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// amountScale trims float noise from REAL sums.
const amountScale = 8

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func nullableNotes(notes string) interface{} {
	if notes == "" {
		return nil
	}
	return notes
}

// AddTransaction inserts a transaction and returns its new ID.
// tx.ID is populated on success.
func (s *SQLiteStore) AddTransaction(ctx context.Context, tx *models.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, fmt.Errorf("invalid transaction: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO transactions (date, category, amount, type, notes) VALUES (?, ?, ?, ?, ?)",
		formatDate(tx.Date), tx.Category, tx.Amount.InexactFloat64(), string(tx.Kind), nullableNotes(tx.Notes),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("failed to insert transaction: %w", ErrNoRowsAffected)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read transaction id: %w", err)
	}
	tx.ID = id
	return id, nil
}

// UpdateTransaction replaces all fields of the transaction with tx.ID.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET date = ?, category = ?, amount = ?, type = ?, notes = ? WHERE id = ?",
		formatDate(tx.Date), tx.Category, tx.Amount.InexactFloat64(), string(tx.Kind), nullableNotes(tx.Notes), tx.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %d: %w", tx.ID, ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction by ID.
// A missing ID is logged, not returned.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if affected == 0 {
		slog.Warn("DeleteTransaction: no transaction with id", "id", id)
	}
	return nil
}

// ListTransactions returns every transaction ordered by date then ID, newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, date, category, amount, type, notes FROM transactions ORDER BY date DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var (
			t     models.Transaction
			date  string
			kind  string
			notes sql.NullString
		)
		if err := rows.Scan(&t.ID, &date, &t.Category, &t.Amount, &kind, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		t.Date, err = parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		t.Amount = t.Amount.Round(amountScale)
		t.Kind = models.Kind(kind)
		if notes.Valid {
			t.Notes = notes.String
		}

		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// Balance returns total income minus total expense.
func (s *SQLiteStore) Balance(ctx context.Context) (decimal.Decimal, error) {
	return s.sum(ctx,
		"SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END), 0) FROM transactions",
	)
}

// TotalIncome sums all income.
func (s *SQLiteStore) TotalIncome(ctx context.Context) (decimal.Decimal, error) {
	return s.sum(ctx, "SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = ?", string(models.KindIncome))
}

// TotalExpense sums all expenses.
func (s *SQLiteStore) TotalExpense(ctx context.Context) (decimal.Decimal, error) {
	return s.sum(ctx, "SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE type = ?", string(models.KindExpense))
}

// Summary returns the three headline aggregates.
func (s *SQLiteStore) Summary(ctx context.Context) (*models.Summary, error) {
	balance, err := s.Balance(ctx)
	if err != nil {
		return nil, err
	}
	income, err := s.TotalIncome(ctx)
	if err != nil {
		return nil, err
	}
	expense, err := s.TotalExpense(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Summary{Balance: balance, TotalIncome: income, TotalExpense: expense}, nil
}

// SpendingByCategory sums expenses per category ordered by total, largest first.
// An empty ledger yields an empty slice.
func (s *SQLiteStore) SpendingByCategory(ctx context.Context) ([]models.CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, SUM(amount) AS total FROM transactions
		 WHERE type = ? GROUP BY category ORDER BY total DESC, category`,
		string(models.KindExpense),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query spending by category: %w", err)
	}
	defer rows.Close()

	totals := []models.CategoryTotal{}
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		ct.Total = ct.Total.Round(amountScale)
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}

	return totals, nil
}

func (s *SQLiteStore) sum(ctx context.Context, query string, args ...interface{}) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute total: %w", err)
	}
	return total.Round(amountScale), nil
}
