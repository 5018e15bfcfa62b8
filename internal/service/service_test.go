package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/pocketledger/internal/auth"
	"github.com/mmynk/pocketledger/internal/backup"
	"github.com/mmynk/pocketledger/internal/ledger"
	"github.com/mmynk/pocketledger/internal/localstore"
	"github.com/mmynk/pocketledger/internal/middleware"
	"github.com/mmynk/pocketledger/internal/models"
	"github.com/mmynk/pocketledger/internal/planner"
	"github.com/mmynk/pocketledger/internal/storage"
	"github.com/mmynk/pocketledger/internal/storage/sqlite"
)

// setupTestServer serves every service over httptest, wired like cmd/server.
func setupTestServer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	lazy := sqlite.NewLazy(filepath.Join(dir, "ledger.db"))
	t.Cleanup(func() { lazy.Close() })

	kv, err := localstore.Open(filepath.Join(dir, "local.json"))
	require.NoError(t, err)

	plan := planner.New(kv)
	coordinator := backup.NewCoordinator(lazy, kv, plan)
	authenticator := auth.NewPasswordAuthenticator(storage.Credentials(lazy))
	jwtManager := auth.NewJWTManager("test-secret-key-with-enough-bytes", time.Hour)

	public := connect.WithInterceptors(middleware.LoggingInterceptor())
	protected := connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.RequireAuth(jwtManager, authenticator))

	mux := http.NewServeMux()
	NewAuthService(authenticator, jwtManager, slog.Default()).Register(mux, public)
	NewLedgerService(lazy).Register(mux, protected)
	NewPlannerService(plan).Register(mux, protected)
	NewBackupService(coordinator).Register(mux, protected)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func call[Req, Res any](t *testing.T, url, procedure, token string, msg *Req) (*Res, error) {
	t.Helper()
	client := NewClient[Req, Res](http.DefaultClient, url, procedure)
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	resp, err := client.CallUnary(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func addTx(t *testing.T, url string, kind models.Kind, category string, amount int64, date time.Time) models.Transaction {
	t.Helper()
	resp, err := call[TransactionRequest, TransactionResponse](t, url, AddTransactionProcedure, "", &TransactionRequest{
		Transaction: models.Transaction{Date: date, Category: category, Amount: decimal.NewFromInt(amount), Kind: kind},
	})
	require.NoError(t, err)
	require.NotZero(t, resp.Transaction.ID)
	return resp.Transaction
}

func summary(t *testing.T, url string) models.Summary {
	t.Helper()
	resp, err := call[Empty, SummaryResponse](t, url, GetSummaryProcedure, "", &Empty{})
	require.NoError(t, err)
	return resp.Summary
}

func TestLedgerScenario(t *testing.T) {
	url := setupTestServer(t)

	food := addTx(t, url, models.KindExpense, "Food", 50, day(1))
	addTx(t, url, models.KindIncome, "Salary", 1000, day(2))

	s := summary(t, url)
	require.True(t, s.Balance.Equal(decimal.NewFromInt(950)), s.Balance.String())

	_, err := call[DeleteTransactionRequest, Empty](t, url, DeleteTransactionProcedure, "", &DeleteTransactionRequest{ID: food.ID})
	require.NoError(t, err)

	s = summary(t, url)
	require.True(t, s.Balance.Equal(decimal.NewFromInt(1000)), s.Balance.String())
	require.True(t, s.TotalExpense.IsZero())

	// Deleting again is tolerated.
	_, err = call[DeleteTransactionRequest, Empty](t, url, DeleteTransactionProcedure, "", &DeleteTransactionRequest{ID: food.ID})
	require.NoError(t, err)
}

func TestListAndUpdateTransactions(t *testing.T) {
	url := setupTestServer(t)

	addTx(t, url, models.KindExpense, "Food", 20, day(1))
	rent := addTx(t, url, models.KindExpense, "Housing", 800, day(2))
	addTx(t, url, models.KindIncome, "Salary", 1500, day(3))
	addTx(t, url, models.KindExpense, "Food", 35, day(4))

	list, err := call[ListTransactionsRequest, ListTransactionsResponse](t, url, ListTransactionsProcedure, "", &ListTransactionsRequest{
		Query: queryExpensesByDate(),
	})
	require.NoError(t, err)
	require.Equal(t, 3, list.Page.Total)
	require.Len(t, list.Page.Items, 2)
	require.Equal(t, 2, list.Page.TotalPages)
	require.Equal(t, "Food", list.Page.Items[0].Category)
	require.True(t, list.Page.Items[0].Amount.Equal(decimal.NewFromInt(35)))

	rent.Amount = decimal.NewFromInt(850)
	rent.Notes = "new lease"
	updated, err := call[TransactionRequest, TransactionResponse](t, url, UpdateTransactionProcedure, "", &TransactionRequest{Transaction: rent})
	require.NoError(t, err)
	require.Equal(t, "new lease", updated.Transaction.Notes)

	spending, err := call[Empty, SpendingByCategoryResponse](t, url, GetSpendingByCategoryProcedure, "", &Empty{})
	require.NoError(t, err)
	require.Len(t, spending.Categories, 2)
	require.Equal(t, "Housing", spending.Categories[0].Category)
	require.True(t, spending.Categories[0].Total.Equal(decimal.NewFromInt(850)))
	require.True(t, spending.Categories[1].Total.Equal(decimal.NewFromInt(55)))
}

func queryExpensesByDate() ledger.Query {
	q := ledger.Query{SortBy: "date", Page: 1, PageSize: 2}
	q.Filter.Kind = models.KindExpense
	return q
}

func TestLedgerErrors(t *testing.T) {
	url := setupTestServer(t)

	_, err := call[TransactionRequest, TransactionResponse](t, url, AddTransactionProcedure, "", &TransactionRequest{
		Transaction: models.Transaction{Date: day(1), Category: "Food", Amount: decimal.NewFromInt(-5), Kind: models.KindExpense},
	})
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = call[TransactionRequest, TransactionResponse](t, url, AddTransactionProcedure, "", &TransactionRequest{
		Transaction: models.Transaction{Date: day(1), Category: "Food", Amount: decimal.NewFromInt(5), Kind: "refund"},
	})
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = call[TransactionRequest, TransactionResponse](t, url, AddTransactionProcedure, "", &TransactionRequest{
		Transaction: models.Transaction{Date: day(1), Category: "Food", Amount: decimal.RequireFromString("0.123456789"), Kind: models.KindExpense},
	})
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = call[TransactionRequest, TransactionResponse](t, url, UpdateTransactionProcedure, "", &TransactionRequest{
		Transaction: models.Transaction{ID: 99, Date: day(1), Category: "Food", Amount: decimal.NewFromInt(5), Kind: models.KindExpense},
	})
	require.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = call[ListTransactionsRequest, ListTransactionsResponse](t, url, ListTransactionsProcedure, "", &ListTransactionsRequest{
		Query: ledger.Query{SortBy: "colour"},
	})
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestPlannerService(t *testing.T) {
	url := setupTestServer(t)

	note, err := call[NoteMessage, NoteMessage](t, url, SaveNoteProcedure, "", &NoteMessage{Note: models.Note{Title: "Budget", Content: "Cut takeout"}})
	require.NoError(t, err)
	require.NotEmpty(t, note.Note.ID)

	notes, err := call[Empty, NotesResponse](t, url, ListNotesProcedure, "", &Empty{})
	require.NoError(t, err)
	require.Len(t, notes.Notes, 1)

	debt, err := call[SaveDebtRequest, DebtResponse](t, url, SaveDebtProcedure, "", &SaveDebtRequest{Debt: models.Debt{
		Name:           "Car loan",
		Principal:      decimal.NewFromInt(1000),
		MinimumPayment: decimal.NewFromInt(100),
	}})
	require.NoError(t, err)

	paid, err := call[AddPaymentRequest, DebtResponse](t, url, AddPaymentProcedure, "", &AddPaymentRequest{
		DebtID: debt.Debt.ID,
		Amount: decimal.NewFromInt(250),
		Date:   day(5),
	})
	require.NoError(t, err)
	require.Len(t, paid.Debt.Payments, 1)
	require.True(t, paid.Debt.Progress.Remaining.Equal(decimal.NewFromInt(750)))

	_, err = call[AddPaymentRequest, DebtResponse](t, url, AddPaymentProcedure, "", &AddPaymentRequest{DebtID: "missing", Amount: decimal.NewFromInt(1)})
	require.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	todo, err := call[AddTodoRequest, TodoResponse](t, url, AddTodoProcedure, "", &AddTodoRequest{Text: "Call the bank"})
	require.NoError(t, err)
	require.Equal(t, models.PriorityMedium, todo.Todo.Priority)

	toggled, err := call[IDRequest, TodoResponse](t, url, ToggleTodoProcedure, "", &IDRequest{ID: todo.Todo.ID})
	require.NoError(t, err)
	require.True(t, toggled.Todo.Completed)

	_, err = call[PreferencesMessage, PreferencesMessage](t, url, SetPreferencesProcedure, "", &PreferencesMessage{Preferences: models.Preferences{Currency: "euro"}})
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	prefs, err := call[PreferencesMessage, PreferencesMessage](t, url, SetPreferencesProcedure, "", &PreferencesMessage{Preferences: models.Preferences{DarkMode: true, Currency: "eur"}})
	require.NoError(t, err)
	require.Equal(t, "EUR", prefs.Preferences.Currency)
	require.True(t, prefs.Preferences.DarkMode)
}

func TestBackupService(t *testing.T) {
	url := setupTestServer(t)

	addTx(t, url, models.KindIncome, "Salary", 1000, day(1))
	_, err := call[NoteMessage, NoteMessage](t, url, SaveNoteProcedure, "", &NoteMessage{Note: models.Note{Title: "Keep"}})
	require.NoError(t, err)

	_, err = call[ResetAllDataRequest, ResetAllDataResponse](t, url, ResetAllDataProcedure, "", &ResetAllDataRequest{})
	require.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	reset, err := call[ResetAllDataRequest, ResetAllDataResponse](t, url, ResetAllDataProcedure, "", &ResetAllDataRequest{Confirm: true})
	require.NoError(t, err)
	require.True(t, reset.Backup.HasTransactions)
	require.True(t, reset.Backup.HasNotes)
	require.True(t, summary(t, url).Balance.IsZero())

	list, err := call[Empty, ListBackupsResponse](t, url, ListBackupsProcedure, "", &Empty{})
	require.NoError(t, err)
	require.Len(t, list.Backups, 1)
	require.Equal(t, reset.Backup.ID, list.Backups[0].ID)

	restored, err := call[BackupRequest, BackupReportResponse](t, url, RestoreBackupProcedure, "", &BackupRequest{ID: reset.Backup.ID})
	require.NoError(t, err)
	require.True(t, restored.Complete)
	require.True(t, summary(t, url).Balance.Equal(decimal.NewFromInt(1000)))

	notes, err := call[Empty, NotesResponse](t, url, ListNotesProcedure, "", &Empty{})
	require.NoError(t, err)
	require.Len(t, notes.Notes, 1)

	_, err = call[BackupRequest, BackupReportResponse](t, url, DeleteBackupProcedure, "", &BackupRequest{ID: reset.Backup.ID})
	require.NoError(t, err)

	_, err = call[BackupRequest, BackupReportResponse](t, url, RestoreBackupProcedure, "", &BackupRequest{ID: reset.Backup.ID})
	require.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = call[BackupRequest, BackupReportResponse](t, url, DeleteBackupProcedure, "", &BackupRequest{ID: " "})
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestAuthLocksDataServices(t *testing.T) {
	url := setupTestServer(t)

	status, err := call[Empty, StatusResponse](t, url, GetStatusProcedure, "", &Empty{})
	require.NoError(t, err)
	require.False(t, status.PasswordSet)

	// Open until a password is set.
	summary(t, url)

	_, err = call[SetPasswordRequest, SessionResponse](t, url, SetPasswordProcedure, "", &SetPasswordRequest{Password: "abc"})
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	session, err := call[SetPasswordRequest, SessionResponse](t, url, SetPasswordProcedure, "", &SetPasswordRequest{Password: "hunter2"})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)

	_, err = call[Empty, SummaryResponse](t, url, GetSummaryProcedure, "", &Empty{})
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = call[Empty, SummaryResponse](t, url, GetSummaryProcedure, session.Token, &Empty{})
	require.NoError(t, err)

	_, err = call[LoginRequest, SessionResponse](t, url, LoginProcedure, "", &LoginRequest{Password: "wrong"})
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	login, err := call[LoginRequest, SessionResponse](t, url, LoginProcedure, "", &LoginRequest{Password: "hunter2"})
	require.NoError(t, err)
	require.True(t, login.ExpiresAt.After(time.Now()))

	_, err = call[SetPasswordRequest, SessionResponse](t, url, SetPasswordProcedure, "", &SetPasswordRequest{Current: "nope", Password: "better-one"})
	require.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	status, err = call[Empty, StatusResponse](t, url, GetStatusProcedure, "", &Empty{})
	require.NoError(t, err)
	require.True(t, status.PasswordSet)
}

func TestListTransactionsDefaultsToNewestFirst(t *testing.T) {
	url := setupTestServer(t)

	older := addTx(t, url, models.KindExpense, "Food", 20, day(1))
	newer := addTx(t, url, models.KindIncome, "Salary", 1500, day(2))
	sameDay := addTx(t, url, models.KindExpense, "Transport", 5, day(2))

	list, err := call[ListTransactionsRequest, ListTransactionsResponse](t, url, ListTransactionsProcedure, "", &ListTransactionsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Page.Items, 3)
	require.Equal(t, sameDay.ID, list.Page.Items[0].ID)
	require.Equal(t, newer.ID, list.Page.Items[1].ID)
	require.Equal(t, older.ID, list.Page.Items[2].ID)
}
