package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Note is a free-form financial note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Debt represents a repayment plan.
// Payments are embedded and rewritten together with the debt.
type Debt struct {
	// ID is a time-ordered identifier generated on creation.
	ID string `json:"id"`

	// Name is what the debt is called (e.g., "Car loan").
	Name string `json:"name"`

	// Lender is who the money is owed to.
	Lender string `json:"lender,omitempty"`

	// Principal is the original amount owed.
	Principal decimal.Decimal `json:"principal"`

	// InterestRate is the annual rate in percent (e.g., 5.5).
	InterestRate decimal.Decimal `json:"interestRate"`

	// MinimumPayment is the planned monthly payment.
	MinimumPayment decimal.Decimal `json:"minimumPayment"`

	// DueDate is optional.
	DueDate *time.Time `json:"dueDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	Payments []Payment `json:"payments"`
}

// Payment is a repayment recorded against a debt.
type Payment struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Note   string          `json:"note,omitempty"`
}

// Priority of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Todo is a task.
type Todo struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Priority  Priority   `json:"priority"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Preferences are the scalar client settings.
type Preferences struct {
	DarkMode bool   `json:"darkMode"`
	Currency string `json:"currency"`
}
