// Package calculator holds the money math that does not need a database:
// debt repayment progress and in-memory ledger totals.
package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pocketledger/internal/models"
)

// ErrNeverPaidOff is returned when the payment does not cover the monthly interest.
var ErrNeverPaidOff = errors.New("payment does not cover interest")

// maxPayoffMonths bounds the simulation (100 years).
const maxPayoffMonths = 1200

var hundred = decimal.NewFromInt(100)

// DebtProgress summarizes how far a debt has been repaid.
type DebtProgress struct {
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   decimal.Decimal `json:"percent"` // 0-100, two decimals
	PaidOff   bool            `json:"paidOff"`
}

// Progress sums the payments of a debt.
// Remaining never goes below zero and Percent is capped at 100.
func Progress(debt models.Debt) DebtProgress {
	paid := decimal.Zero
	for _, p := range debt.Payments {
		paid = paid.Add(p.Amount)
	}

	remaining := debt.Principal.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	percent := decimal.Zero
	if debt.Principal.IsPositive() {
		percent = decimal.Min(paid.Div(debt.Principal).Mul(hundred), hundred).Round(2)
	} else if paid.IsPositive() {
		percent = hundred
	}

	return DebtProgress{
		Paid:      paid,
		Remaining: remaining,
		Percent:   percent,
		PaidOff:   remaining.IsZero(),
	}
}

// PayoffMonths estimates how many monthly payments clear remaining.
//
// Algorithm:
// - Each month: balance += balance * (annualRate / 12 / 100), then balance -= payment
// - Count months until the balance reaches zero
// - A payment at or below the first month's interest never pays the debt off
func PayoffMonths(remaining, annualRate, payment decimal.Decimal) (int, error) {
	if !remaining.IsPositive() {
		return 0, nil
	}
	if !payment.IsPositive() {
		return 0, ErrNeverPaidOff
	}

	monthlyRate := annualRate.Div(decimal.NewFromInt(12)).Div(hundred)
	if !payment.GreaterThan(remaining.Mul(monthlyRate)) {
		return 0, ErrNeverPaidOff
	}

	balance := remaining
	for month := 1; month <= maxPayoffMonths; month++ {
		balance = balance.Add(balance.Mul(monthlyRate)).Sub(payment)
		if !balance.IsPositive() {
			return month, nil
		}
	}
	return 0, ErrNeverPaidOff
}
