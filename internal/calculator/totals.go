package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pocketledger/internal/models"
)

// Totals computes the ledger summary of txs in memory.
// It matches the SQL aggregates and is used for filtered views.
func Totals(txs []models.Transaction) models.Summary {
	s := models.Summary{
		Balance:      decimal.Zero,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, tx := range txs {
		switch tx.Kind {
		case models.KindIncome:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case models.KindExpense:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// SpendingByCategory groups expenses by category, largest first.
func SpendingByCategory(txs []models.Transaction) []models.CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Kind != models.KindExpense {
			continue
		}
		sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
	}

	out := make([]models.CategoryTotal, 0, len(sums))
	for category, total := range sums {
		out = append(out, models.CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
