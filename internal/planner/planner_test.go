package planner

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/pocketledger/internal/localstore"
	"github.com/mmynk/pocketledger/internal/models"
)

func newTestPlanner(t *testing.T) (*Planner, *localstore.Store) {
	t.Helper()
	kv, err := localstore.Open(filepath.Join(t.TempDir(), "local.json"))
	require.NoError(t, err)

	p := New(kv)
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return p, kv
}

func TestNotes(t *testing.T) {
	p, _ := newTestPlanner(t)

	_, err := p.SaveNote(models.Note{})
	require.ErrorIs(t, err, ErrValidation)

	first, err := p.SaveNote(models.Note{Title: "Budget", Content: "cut takeout"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := p.SaveNote(models.Note{Title: "Taxes"})
	require.NoError(t, err)

	first.Content = "cook at home"
	updated, err := p.SaveNote(first)
	require.NoError(t, err)
	require.True(t, updated.CreatedAt.Equal(first.CreatedAt))
	require.True(t, updated.UpdatedAt.After(second.UpdatedAt))

	notes := p.ListNotes()
	require.Len(t, notes, 2)
	require.Equal(t, first.ID, notes[0].ID)
	require.Equal(t, "cook at home", notes[0].Content)

	_, err = p.SaveNote(models.Note{ID: "missing", Title: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, p.DeleteNote(second.ID))
	require.NoError(t, p.DeleteNote("missing"))
	require.Len(t, p.ListNotes(), 1)
}

func TestDebtsAndPayments(t *testing.T) {
	p, _ := newTestPlanner(t)

	_, err := p.SaveDebt(models.Debt{Name: "Loan"})
	require.ErrorIs(t, err, ErrValidation)

	view, err := p.SaveDebt(models.Debt{
		Name:           "Car loan",
		Principal:      decimal.NewFromInt(1000),
		MinimumPayment: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.NotNil(t, view.PayoffMonths)
	require.Equal(t, 10, *view.PayoffMonths)

	view, err = p.AddPayment(view.ID, decimal.NewFromInt(400), time.Time{}, "bonus")
	require.NoError(t, err)
	require.True(t, view.Progress.Remaining.Equal(decimal.NewFromInt(600)))
	require.Len(t, view.Payments, 1)
	paymentID := view.Payments[0].ID

	_, err = p.AddPayment(view.ID, decimal.Zero, time.Time{}, "")
	require.ErrorIs(t, err, ErrValidation)
	_, err = p.AddPayment("missing", decimal.NewFromInt(1), time.Time{}, "")
	require.ErrorIs(t, err, ErrNotFound)

	// Updating the terms keeps payments.
	terms := view.Debt
	terms.Name = "Car loan (refinanced)"
	terms.Payments = nil
	view, err = p.SaveDebt(terms)
	require.NoError(t, err)
	require.Len(t, view.Payments, 1)

	view, err = p.DeletePayment(view.ID, paymentID)
	require.NoError(t, err)
	require.Empty(t, view.Payments)
	_, err = p.DeletePayment(view.ID, paymentID)
	require.ErrorIs(t, err, ErrNotFound)

	debts := p.ListDebts()
	require.Len(t, debts, 1)
	require.Equal(t, "Car loan (refinanced)", debts[0].Name)

	require.NoError(t, p.DeleteDebt(view.ID))
	require.Empty(t, p.ListDebts())
}

func TestTodos(t *testing.T) {
	p, _ := newTestPlanner(t)

	_, err := p.AddTodo("  ", "", nil)
	require.ErrorIs(t, err, ErrValidation)
	_, err = p.AddTodo("x", "urgent", nil)
	require.ErrorIs(t, err, ErrValidation)

	low, err := p.AddTodo("file receipts", models.PriorityLow, nil)
	require.NoError(t, err)
	high, err := p.AddTodo("pay rent", models.PriorityHigh, nil)
	require.NoError(t, err)
	medium, err := p.AddTodo("review budget", "", nil)
	require.NoError(t, err)
	require.Equal(t, models.PriorityMedium, medium.Priority)

	toggled, err := p.ToggleTodo(high.ID)
	require.NoError(t, err)
	require.True(t, toggled.Completed)

	todos := p.ListTodos()
	require.Equal(t, []string{medium.ID, low.ID, high.ID}, []string{todos[0].ID, todos[1].ID, todos[2].ID})

	removed, err := p.ClearCompletedTodos()
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	require.NoError(t, p.DeleteTodo(low.ID))
	require.Len(t, p.ListTodos(), 1)

	_, err = p.ToggleTodo("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClearKeepsPreferences(t *testing.T) {
	p, kv := newTestPlanner(t)

	_, err := p.SaveNote(models.Note{Title: "n"})
	require.NoError(t, err)
	_, err = p.AddTodo("t", "", nil)
	require.NoError(t, err)
	_, err = p.SetPreferences(models.Preferences{DarkMode: true, Currency: "GBP"})
	require.NoError(t, err)

	require.NoError(t, p.Clear())

	require.Empty(t, p.ListNotes())
	require.Empty(t, p.ListTodos())
	_, ok := kv.Get(localstore.NotesKey)
	require.False(t, ok)
	require.Equal(t, models.Preferences{DarkMode: true, Currency: "GBP"}, p.Preferences())
}
