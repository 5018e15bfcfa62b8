package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/pocketledger/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	require.True(t, d(want).Equal(got), "%s = %s, want %s", field, got, want)
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name          string
		principal     string
		payments      []string
		wantPaid      string
		wantRemaining string
		wantPercent   string
		wantPaidOff   bool
	}{
		{"no payments", "1000", nil, "0", "1000", "0", false},
		{"partial", "1000", []string{"250", "125.50"}, "375.5", "624.5", "37.55", false},
		{"exact", "300", []string{"100", "200"}, "300", "0", "100", true},
		{"overpaid", "300", []string{"400"}, "400", "0", "100", true},
		{"zero principal", "0", nil, "0", "0", "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debt := models.Debt{Principal: d(tt.principal)}
			for _, p := range tt.payments {
				debt.Payments = append(debt.Payments, models.Payment{Amount: d(p), Date: time.Now()})
			}

			got := Progress(debt)
			requireDecimal(t, tt.wantPaid, got.Paid, "Paid")
			requireDecimal(t, tt.wantRemaining, got.Remaining, "Remaining")
			requireDecimal(t, tt.wantPercent, got.Percent, "Percent")
			require.Equal(t, tt.wantPaidOff, got.PaidOff)
		})
	}
}

func TestPayoffMonths(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		rate      string
		payment   string
		want      int
		wantErr   bool
	}{
		{"no interest", "1000", "0", "100", 10, false},
		{"no interest with remainder", "1050", "0", "100", 11, false},
		{"with interest", "1000", "12", "100", 11, false},
		{"nothing left", "0", "5", "100", 0, false},
		{"payment equals interest", "1000", "12", "10", 0, true},
		{"zero payment", "1000", "0", "0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PayoffMonths(d(tt.remaining), d(tt.rate), d(tt.payment))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTotals(t *testing.T) {
	txs := []models.Transaction{
		{Category: "Food", Amount: d("50"), Kind: models.KindExpense},
		{Category: "Salary", Amount: d("1000"), Kind: models.KindIncome},
		{Category: "Rent", Amount: d("400"), Kind: models.KindExpense},
		{Category: "Food", Amount: d("0.10"), Kind: models.KindExpense},
	}

	s := Totals(txs)
	requireDecimal(t, "549.9", s.Balance, "Balance")
	requireDecimal(t, "450.1", s.TotalExpense, "TotalExpense")

	// Balance is always income minus expense.
	var signed decimal.Decimal
	for _, tx := range txs {
		signed = signed.Add(tx.Signed())
	}
	requireDecimal(t, s.Balance.String(), signed, "sum of signed amounts")

	cats := SpendingByCategory(txs)
	require.Len(t, cats, 2)
	require.Equal(t, "Rent", cats[0].Category)
	requireDecimal(t, "50.1", cats[1].Total, "Food total")

	got := SpendingByCategory(nil)
	require.NotNil(t, got)
	require.Empty(t, got)
}
