package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mmynk/pocketledger/internal/ledger"
	"github.com/mmynk/pocketledger/internal/models"
	"github.com/mmynk/pocketledger/internal/storage"
)

const ledgerServiceName = "/pocketledger.v1.LedgerService/"

// Ledger procedures.
const (
	AddTransactionProcedure        = ledgerServiceName + "AddTransaction"
	UpdateTransactionProcedure     = ledgerServiceName + "UpdateTransaction"
	DeleteTransactionProcedure     = ledgerServiceName + "DeleteTransaction"
	ListTransactionsProcedure      = ledgerServiceName + "ListTransactions"
	GetSummaryProcedure            = ledgerServiceName + "GetSummary"
	GetSpendingByCategoryProcedure = ledgerServiceName + "GetSpendingByCategory"
)

type TransactionRequest struct {
	Transaction models.Transaction `json:"transaction"`
}

type TransactionResponse struct {
	Transaction models.Transaction `json:"transaction"`
}

type DeleteTransactionRequest struct {
	ID int64 `json:"id"`
}

type ListTransactionsRequest struct {
	Query ledger.Query `json:"query"`
}

type ListTransactionsResponse struct {
	Page ledger.Page `json:"page"`
}

type SummaryResponse struct {
	Summary models.Summary `json:"summary"`
}

type SpendingByCategoryResponse struct {
	Categories []models.CategoryTotal `json:"categories"`
}

// LedgerService implements the LedgerService RPC interface.
type LedgerService struct {
	provider storage.Provider
}

// NewLedgerService creates a new LedgerService backed by the given store provider.
func NewLedgerService(provider storage.Provider) *LedgerService {
	return &LedgerService{provider: provider}
}

// Register mounts the service's procedures on mux.
func (s *LedgerService) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	handle(mux, AddTransactionProcedure, s.AddTransaction, opts...)
	handle(mux, UpdateTransactionProcedure, s.UpdateTransaction, opts...)
	handle(mux, DeleteTransactionProcedure, s.DeleteTransaction, opts...)
	handle(mux, ListTransactionsProcedure, s.ListTransactions, opts...)
	handle(mux, GetSummaryProcedure, s.GetSummary, opts...)
	handle(mux, GetSpendingByCategoryProcedure, s.GetSpendingByCategory, opts...)
}

// AddTransaction records a new income or expense.
func (s *LedgerService) AddTransaction(ctx context.Context, req *connect.Request[TransactionRequest]) (*connect.Response[TransactionResponse], error) {
	tx := req.Msg.Transaction
	tx.ID = 0
	if err := tx.Validate(); err != nil {
		return nil, invalidArgument(err)
	}

	store, err := s.provider.Store(ctx)
	if err != nil {
		return nil, toConnectError("AddTransaction", err)
	}
	if _, err := store.AddTransaction(ctx, &tx); err != nil {
		return nil, toConnectError("AddTransaction", err)
	}

	slog.Info("Transaction added", "transaction_id", tx.ID, "type", tx.Kind, "category", tx.Category)
	return connect.NewResponse(&TransactionResponse{Transaction: tx}), nil
}

// UpdateTransaction replaces an existing transaction.
func (s *LedgerService) UpdateTransaction(ctx context.Context, req *connect.Request[TransactionRequest]) (*connect.Response[TransactionResponse], error) {
	tx := req.Msg.Transaction
	if tx.ID <= 0 {
		return nil, invalidArgument(errMissingID)
	}
	if err := tx.Validate(); err != nil {
		return nil, invalidArgument(err)
	}

	store, err := s.provider.Store(ctx)
	if err != nil {
		return nil, toConnectError("UpdateTransaction", err)
	}
	if err := store.UpdateTransaction(ctx, &tx); err != nil {
		return nil, toConnectError("UpdateTransaction", err)
	}

	slog.Info("Transaction updated", "transaction_id", tx.ID)
	return connect.NewResponse(&TransactionResponse{Transaction: tx}), nil
}

// DeleteTransaction removes a transaction. Deleting a missing ID succeeds.
func (s *LedgerService) DeleteTransaction(ctx context.Context, req *connect.Request[DeleteTransactionRequest]) (*connect.Response[Empty], error) {
	store, err := s.provider.Store(ctx)
	if err != nil {
		return nil, toConnectError("DeleteTransaction", err)
	}
	if err := store.DeleteTransaction(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteTransaction", err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// ListTransactions returns one filtered, sorted page of the ledger.
func (s *LedgerService) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	q := req.Msg.Query
	if q.Filter.Kind != "" {
		if _, err := models.ParseKind(string(q.Filter.Kind)); err != nil {
			return nil, invalidArgument(err)
		}
	}
	switch q.SortBy {
	case "", ledger.SortByDate, ledger.SortByAmount, ledger.SortByCategory:
	default:
		return nil, invalidArgument(errUnknownSortField(q.SortBy))
	}

	store, err := s.provider.Store(ctx)
	if err != nil {
		return nil, toConnectError("ListTransactions", err)
	}
	txs, err := store.ListTransactions(ctx)
	if err != nil {
		return nil, toConnectError("ListTransactions", err)
	}

	return connect.NewResponse(&ListTransactionsResponse{Page: ledger.Apply(txs, q)}), nil
}

// GetSummary returns balance, total income and total expense.
func (s *LedgerService) GetSummary(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SummaryResponse], error) {
	store, err := s.provider.Store(ctx)
	if err != nil {
		return nil, toConnectError("GetSummary", err)
	}
	summary, err := store.Summary(ctx)
	if err != nil {
		return nil, toConnectError("GetSummary", err)
	}
	return connect.NewResponse(&SummaryResponse{Summary: *summary}), nil
}

// GetSpendingByCategory returns expense totals per category, largest first.
func (s *LedgerService) GetSpendingByCategory(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SpendingByCategoryResponse], error) {
	store, err := s.provider.Store(ctx)
	if err != nil {
		return nil, toConnectError("GetSpendingByCategory", err)
	}
	totals, err := store.SpendingByCategory(ctx)
	if err != nil {
		return nil, toConnectError("GetSpendingByCategory", err)
	}
	return connect.NewResponse(&SpendingByCategoryResponse{Categories: totals}), nil
}
