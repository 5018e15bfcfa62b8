// Package planner manages notes, debts, todos and preferences in the local store.
//
// Every mutation loads the whole collection, changes it in memory and writes
// it back. A mutex serializes mutations within the process.
package planner

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/pocketledger/internal/calculator"
	"github.com/mmynk/pocketledger/internal/localstore"
	"github.com/mmynk/pocketledger/internal/models"
	"github.com/mmynk/pocketledger/internal/storage"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// Planner owns the local collections.
type Planner struct {
	mu  sync.Mutex
	kv  storage.KeyValue
	now func() time.Time

	notes *localstore.Collection[models.Note]
	debts *localstore.Collection[models.Debt]
	todos *localstore.Collection[models.Todo]
}

// New creates a Planner over kv.
func New(kv storage.KeyValue) *Planner {
	return &Planner{
		kv:    kv,
		now:   time.Now,
		notes: localstore.Notes(kv),
		debts: localstore.Debts(kv),
		todos: localstore.Todos(kv),
	}
}

// newID returns a time-ordered identifier.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Notes

// ListNotes returns notes, most recently updated first.
func (p *Planner) ListNotes() []models.Note {
	notes := p.notes.Load()
	sortByTimeDesc(notes, func(n models.Note) time.Time { return n.UpdatedAt })
	return notes
}

// SaveNote creates the note when ID is empty and replaces it otherwise.
func (p *Planner) SaveNote(note models.Note) (models.Note, error) {
	if strings.TrimSpace(note.Title) == "" && strings.TrimSpace(note.Content) == "" {
		return models.Note{}, fmt.Errorf("%w: note needs a title or content", ErrValidation)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	notes := p.notes.Load()
	now := p.now()
	if note.ID == "" {
		note.ID = newID()
		note.CreatedAt = now
		note.UpdatedAt = now
		notes = append(notes, note)
		return note, p.notes.Save(notes)
	}

	i := indexOf(notes, func(n models.Note) bool { return n.ID == note.ID })
	if i < 0 {
		return models.Note{}, fmt.Errorf("note %s: %w", note.ID, ErrNotFound)
	}
	note.CreatedAt = notes[i].CreatedAt
	note.UpdatedAt = now
	notes[i] = note
	return note, p.notes.Save(notes)
}

// DeleteNote removes a note. Missing IDs are not an error.
func (p *Planner) DeleteNote(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	notes := p.notes.Load()
	kept := removeWhere(notes, func(n models.Note) bool { return n.ID == id })
	if len(kept) == len(notes) {
		return nil
	}
	return p.notes.Save(kept)
}

// Debts

// DebtView is a debt with its derived repayment figures.
type DebtView struct {
	models.Debt
	Progress     calculator.DebtProgress `json:"progress"`
	PayoffMonths *int                    `json:"payoffMonths,omitempty"`
}

func viewOf(d models.Debt) DebtView {
	v := DebtView{Debt: d, Progress: calculator.Progress(d)}
	if months, err := calculator.PayoffMonths(v.Progress.Remaining, d.InterestRate, d.MinimumPayment); err == nil {
		v.PayoffMonths = &months
	}
	return v
}

// ListDebts returns debts, newest first, with progress.
func (p *Planner) ListDebts() []DebtView {
	debts := p.debts.Load()
	sortByTimeDesc(debts, func(d models.Debt) time.Time { return d.CreatedAt })

	views := make([]DebtView, len(debts))
	for i, d := range debts {
		views[i] = viewOf(d)
	}
	return views
}

func validateDebt(d models.Debt) error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: debt name is required", ErrValidation)
	case !d.Principal.IsPositive():
		return fmt.Errorf("%w: principal must be positive", ErrValidation)
	case d.InterestRate.IsNegative():
		return fmt.Errorf("%w: interest rate must not be negative", ErrValidation)
	case d.MinimumPayment.IsNegative():
		return fmt.Errorf("%w: minimum payment must not be negative", ErrValidation)
	}
	return nil
}

// SaveDebt creates the debt when ID is empty and replaces its terms otherwise.
// Existing payments are kept; the payments field of the argument is ignored on update.
func (p *Planner) SaveDebt(debt models.Debt) (DebtView, error) {
	if err := validateDebt(debt); err != nil {
		return DebtView{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	debts := p.debts.Load()
	if debt.ID == "" {
		debt.ID = newID()
		debt.CreatedAt = p.now()
		if debt.Payments == nil {
			debt.Payments = []models.Payment{}
		}
		for i := range debt.Payments {
			if debt.Payments[i].ID == "" {
				debt.Payments[i].ID = newID()
			}
		}
		debts = append(debts, debt)
		return viewOf(debt), p.debts.Save(debts)
	}

	i := indexOf(debts, func(d models.Debt) bool { return d.ID == debt.ID })
	if i < 0 {
		return DebtView{}, fmt.Errorf("debt %s: %w", debt.ID, ErrNotFound)
	}
	debt.CreatedAt = debts[i].CreatedAt
	debt.Payments = debts[i].Payments
	debts[i] = debt
	return viewOf(debt), p.debts.Save(debts)
}

// DeleteDebt removes a debt and its payments. Missing IDs are not an error.
func (p *Planner) DeleteDebt(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	debts := p.debts.Load()
	kept := removeWhere(debts, func(d models.Debt) bool { return d.ID == id })
	if len(kept) == len(debts) {
		return nil
	}
	return p.debts.Save(kept)
}

// AddPayment records a payment against a debt.
func (p *Planner) AddPayment(debtID string, amount decimal.Decimal, date time.Time, note string) (DebtView, error) {
	if !amount.IsPositive() {
		return DebtView{}, fmt.Errorf("%w: payment must be positive", ErrValidation)
	}
	if date.IsZero() {
		date = p.now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	debts := p.debts.Load()
	i := indexOf(debts, func(d models.Debt) bool { return d.ID == debtID })
	if i < 0 {
		return DebtView{}, fmt.Errorf("debt %s: %w", debtID, ErrNotFound)
	}

	debts[i].Payments = append(debts[i].Payments, models.Payment{
		ID:     newID(),
		Amount: amount,
		Date:   date,
		Note:   note,
	})
	return viewOf(debts[i]), p.debts.Save(debts)
}

// DeletePayment removes one payment from a debt.
func (p *Planner) DeletePayment(debtID, paymentID string) (DebtView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	debts := p.debts.Load()
	i := indexOf(debts, func(d models.Debt) bool { return d.ID == debtID })
	if i < 0 {
		return DebtView{}, fmt.Errorf("debt %s: %w", debtID, ErrNotFound)
	}

	before := len(debts[i].Payments)
	debts[i].Payments = removeWhere(debts[i].Payments, func(pm models.Payment) bool { return pm.ID == paymentID })
	if len(debts[i].Payments) == before {
		return DebtView{}, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	return viewOf(debts[i]), p.debts.Save(debts)
}

// Todos

// ListTodos returns open todos first, then by priority and age.
func (p *Planner) ListTodos() []models.Todo {
	todos := p.todos.Load()
	sortTodos(todos)
	return todos
}

// AddTodo creates a todo.
func (p *Planner) AddTodo(text string, priority models.Priority, due *time.Time) (models.Todo, error) {
	if strings.TrimSpace(text) == "" {
		return models.Todo{}, fmt.Errorf("%w: todo text is required", ErrValidation)
	}
	switch priority {
	case "":
		priority = models.PriorityMedium
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		return models.Todo{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, priority)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	todo := models.Todo{
		ID:        newID(),
		Text:      strings.TrimSpace(text),
		Priority:  priority,
		DueDate:   due,
		CreatedAt: p.now(),
	}
	todos := append(p.todos.Load(), todo)
	return todo, p.todos.Save(todos)
}

// ToggleTodo flips the completed flag.
func (p *Planner) ToggleTodo(id string) (models.Todo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	todos := p.todos.Load()
	i := indexOf(todos, func(t models.Todo) bool { return t.ID == id })
	if i < 0 {
		return models.Todo{}, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	todos[i].Completed = !todos[i].Completed
	return todos[i], p.todos.Save(todos)
}

// DeleteTodo removes a todo. Missing IDs are not an error.
func (p *Planner) DeleteTodo(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	todos := p.todos.Load()
	kept := removeWhere(todos, func(t models.Todo) bool { return t.ID == id })
	if len(kept) == len(todos) {
		return nil
	}
	return p.todos.Save(kept)
}

// ClearCompletedTodos removes every completed todo and returns how many were removed.
func (p *Planner) ClearCompletedTodos() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	todos := p.todos.Load()
	kept := removeWhere(todos, func(t models.Todo) bool { return t.Completed })
	removed := len(todos) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, p.todos.Save(kept)
}

// Preferences

// Preferences returns the stored preferences.
func (p *Planner) Preferences() models.Preferences {
	return localstore.LoadPreferences(p.kv)
}

// SetPreferences stores the preferences.
func (p *Planner) SetPreferences(prefs models.Preferences) (models.Preferences, error) {
	if err := localstore.SavePreferences(p.kv, prefs); err != nil {
		if errors.Is(err, localstore.ErrInvalidCurrency) {
			return models.Preferences{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return models.Preferences{}, err
	}
	return localstore.LoadPreferences(p.kv), nil
}

// Clear empties notes, debts and todos. Preferences are kept.
func (p *Planner) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, key := range []string{p.notes.Key(), p.debts.Key(), p.todos.Key()} {
		if err := p.kv.Delete(key); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
