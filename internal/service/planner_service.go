package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/pocketledger/internal/models"
	"github.com/mmynk/pocketledger/internal/planner"
)

const plannerServiceName = "/pocketledger.v1.PlannerService/"

// Planner procedures.
const (
	ListNotesProcedure      = plannerServiceName + "ListNotes"
	SaveNoteProcedure       = plannerServiceName + "SaveNote"
	DeleteNoteProcedure     = plannerServiceName + "DeleteNote"
	ListDebtsProcedure      = plannerServiceName + "ListDebts"
	SaveDebtProcedure       = plannerServiceName + "SaveDebt"
	DeleteDebtProcedure     = plannerServiceName + "DeleteDebt"
	AddPaymentProcedure     = plannerServiceName + "AddPayment"
	DeletePaymentProcedure  = plannerServiceName + "DeletePayment"
	ListTodosProcedure      = plannerServiceName + "ListTodos"
	AddTodoProcedure        = plannerServiceName + "AddTodo"
	ToggleTodoProcedure     = plannerServiceName + "ToggleTodo"
	DeleteTodoProcedure     = plannerServiceName + "DeleteTodo"
	GetPreferencesProcedure = plannerServiceName + "GetPreferences"
	SetPreferencesProcedure = plannerServiceName + "SetPreferences"
)

// IDRequest addresses a note, debt or todo.
type IDRequest struct {
	ID string `json:"id"`
}

type NotesResponse struct {
	Notes []models.Note `json:"notes"`
}

type NoteMessage struct {
	Note models.Note `json:"note"`
}

type DebtsResponse struct {
	Debts []planner.DebtView `json:"debts"`
}

type SaveDebtRequest struct {
	Debt models.Debt `json:"debt"`
}

type DebtResponse struct {
	Debt planner.DebtView `json:"debt"`
}

type AddPaymentRequest struct {
	DebtID string          `json:"debtId"`
	Amount decimal.Decimal `json:"amount"`
	// Date defaults to now.
	Date time.Time `json:"date"`
	Note string    `json:"note,omitempty"`
}

type DeletePaymentRequest struct {
	DebtID    string `json:"debtId"`
	PaymentID string `json:"paymentId"`
}

type TodosResponse struct {
	Todos []models.Todo `json:"todos"`
}

type AddTodoRequest struct {
	Text     string          `json:"text"`
	Priority models.Priority `json:"priority,omitempty"`
	DueDate  *time.Time      `json:"dueDate,omitempty"`
}

type TodoResponse struct {
	Todo models.Todo `json:"todo"`
}

type PreferencesMessage struct {
	Preferences models.Preferences `json:"preferences"`
}

// PlannerService implements the PlannerService RPC interface.
type PlannerService struct {
	planner *planner.Planner
}

// NewPlannerService creates a new PlannerService.
func NewPlannerService(p *planner.Planner) *PlannerService {
	return &PlannerService{planner: p}
}

// Register mounts the service's procedures on mux.
func (s *PlannerService) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	handle(mux, ListNotesProcedure, s.ListNotes, opts...)
	handle(mux, SaveNoteProcedure, s.SaveNote, opts...)
	handle(mux, DeleteNoteProcedure, s.DeleteNote, opts...)
	handle(mux, ListDebtsProcedure, s.ListDebts, opts...)
	handle(mux, SaveDebtProcedure, s.SaveDebt, opts...)
	handle(mux, DeleteDebtProcedure, s.DeleteDebt, opts...)
	handle(mux, AddPaymentProcedure, s.AddPayment, opts...)
	handle(mux, DeletePaymentProcedure, s.DeletePayment, opts...)
	handle(mux, ListTodosProcedure, s.ListTodos, opts...)
	handle(mux, AddTodoProcedure, s.AddTodo, opts...)
	handle(mux, ToggleTodoProcedure, s.ToggleTodo, opts...)
	handle(mux, DeleteTodoProcedure, s.DeleteTodo, opts...)
	handle(mux, GetPreferencesProcedure, s.GetPreferences, opts...)
	handle(mux, SetPreferencesProcedure, s.SetPreferences, opts...)
}

// Notes

func (s *PlannerService) ListNotes(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[NotesResponse], error) {
	return connect.NewResponse(&NotesResponse{Notes: s.planner.ListNotes()}), nil
}

// SaveNote creates a note when its ID is empty and updates it otherwise.
func (s *PlannerService) SaveNote(ctx context.Context, req *connect.Request[NoteMessage]) (*connect.Response[NoteMessage], error) {
	note, err := s.planner.SaveNote(req.Msg.Note)
	if err != nil {
		return nil, toConnectError("SaveNote", err)
	}
	slog.Info("Note saved", "note_id", note.ID)
	return connect.NewResponse(&NoteMessage{Note: note}), nil
}

func (s *PlannerService) DeleteNote(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	if err := s.planner.DeleteNote(req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteNote", err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// Debts

func (s *PlannerService) ListDebts(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[DebtsResponse], error) {
	return connect.NewResponse(&DebtsResponse{Debts: s.planner.ListDebts()}), nil
}

// SaveDebt creates a debt when its ID is empty and replaces its terms otherwise.
func (s *PlannerService) SaveDebt(ctx context.Context, req *connect.Request[SaveDebtRequest]) (*connect.Response[DebtResponse], error) {
	view, err := s.planner.SaveDebt(req.Msg.Debt)
	if err != nil {
		return nil, toConnectError("SaveDebt", err)
	}
	slog.Info("Debt saved", "debt_id", view.ID)
	return connect.NewResponse(&DebtResponse{Debt: view}), nil
}

func (s *PlannerService) DeleteDebt(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	if err := s.planner.DeleteDebt(req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteDebt", err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *PlannerService) AddPayment(ctx context.Context, req *connect.Request[AddPaymentRequest]) (*connect.Response[DebtResponse], error) {
	view, err := s.planner.AddPayment(req.Msg.DebtID, req.Msg.Amount, req.Msg.Date, req.Msg.Note)
	if err != nil {
		return nil, toConnectError("AddPayment", err)
	}
	slog.Info("Payment recorded", "debt_id", view.ID, "amount", req.Msg.Amount.String())
	return connect.NewResponse(&DebtResponse{Debt: view}), nil
}

func (s *PlannerService) DeletePayment(ctx context.Context, req *connect.Request[DeletePaymentRequest]) (*connect.Response[DebtResponse], error) {
	view, err := s.planner.DeletePayment(req.Msg.DebtID, req.Msg.PaymentID)
	if err != nil {
		return nil, toConnectError("DeletePayment", err)
	}
	return connect.NewResponse(&DebtResponse{Debt: view}), nil
}

// Todos

func (s *PlannerService) ListTodos(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[TodosResponse], error) {
	return connect.NewResponse(&TodosResponse{Todos: s.planner.ListTodos()}), nil
}

func (s *PlannerService) AddTodo(ctx context.Context, req *connect.Request[AddTodoRequest]) (*connect.Response[TodoResponse], error) {
	todo, err := s.planner.AddTodo(req.Msg.Text, req.Msg.Priority, req.Msg.DueDate)
	if err != nil {
		return nil, toConnectError("AddTodo", err)
	}
	return connect.NewResponse(&TodoResponse{Todo: todo}), nil
}

func (s *PlannerService) ToggleTodo(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[TodoResponse], error) {
	todo, err := s.planner.ToggleTodo(req.Msg.ID)
	if err != nil {
		return nil, toConnectError("ToggleTodo", err)
	}
	return connect.NewResponse(&TodoResponse{Todo: todo}), nil
}

func (s *PlannerService) DeleteTodo(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	if err := s.planner.DeleteTodo(req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteTodo", err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// Preferences

func (s *PlannerService) GetPreferences(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[PreferencesMessage], error) {
	return connect.NewResponse(&PreferencesMessage{Preferences: s.planner.Preferences()}), nil
}

func (s *PlannerService) SetPreferences(ctx context.Context, req *connect.Request[PreferencesMessage]) (*connect.Response[PreferencesMessage], error) {
	prefs, err := s.planner.SetPreferences(req.Msg.Preferences)
	if err != nil {
		return nil, toConnectError("SetPreferences", err)
	}
	return connect.NewResponse(&PreferencesMessage{Preferences: prefs}), nil
}
