package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells whether a transaction adds to or subtracts from the balance.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindIncome, KindExpense:
		return Kind(s), nil
	}
	return "", fmt.Errorf("invalid transaction kind %q", s)
}

// SuggestedCategories are offered by the front end; the store accepts any label.
var SuggestedCategories = []string{
	"Food", "Transport", "Housing", "Utilities", "Entertainment",
	"Healthcare", "Shopping", "Education", "Salary", "Freelance",
	"Investment", "Other",
}

// Transaction represents one ledger entry.
type Transaction struct {
	// ID is assigned by the store (autoincrement).
	ID int64 `json:"id"`

	// Date is the calendar date of the entry.
	Date time.Time `json:"date"`

	// Category is a free-text label.
	Category string `json:"category"`

	// Amount is always positive. Use Signed for balance math.
	Amount decimal.Decimal `json:"amount"`

	// Kind is income or expense.
	Kind Kind `json:"type"`

	// Notes is optional; stored as NULL when empty.
	Notes string `json:"notes,omitempty"`
}

// MaxAmountPlaces is the number of decimal places an amount may carry.
const MaxAmountPlaces = 8

// ErrAmountPrecision is returned for amounts the ledger cannot store exactly.
var ErrAmountPrecision = errors.New("amount has too much precision")

// Signed returns the amount with the sign derived from the kind.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == KindExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Validate checks the invariants enforced before a write.
func (t Transaction) Validate() error {
	if _, err := ParseKind(string(t.Kind)); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", t.Amount)
	}
	if !t.Amount.Equal(t.Amount.Round(MaxAmountPlaces)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrAmountPrecision, t.Amount, MaxAmountPlaces)
	}
	// Amounts are kept in a REAL column.
	if !decimal.NewFromFloat(t.Amount.InexactFloat64()).Equal(t.Amount) {
		return fmt.Errorf("%w: %s has too many significant digits", ErrAmountPrecision, t.Amount)
	}
	if t.Category == "" {
		return fmt.Errorf("category is required")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return nil
}

// CategoryTotal is one row of the spending-by-category report.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Summary holds the headline aggregates of the ledger.
type Summary struct {
	Balance      decimal.Decimal `json:"balance"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
}
