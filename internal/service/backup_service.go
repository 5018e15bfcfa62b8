package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/pocketledger/internal/backup"
	"github.com/mmynk/pocketledger/internal/models"
)

const backupServiceName = "/pocketledger.v1.BackupService/"

// Backup procedures.
const (
	ListBackupsProcedure   = backupServiceName + "ListBackups"
	RestoreBackupProcedure = backupServiceName + "RestoreBackup"
	DeleteBackupProcedure  = backupServiceName + "DeleteBackup"
	ResetAllDataProcedure  = backupServiceName + "ResetAllData"
)

// ErrNotConfirmed is returned when a destructive call lacks confirm: true.
var ErrNotConfirmed = errors.New("reset requires confirmation")

type ListBackupsResponse struct {
	Backups []models.Snapshot `json:"backups"`
}

type BackupRequest struct {
	ID string `json:"id"`
}

// BackupReportResponse carries per-artifact outcomes. Complete is false when
// some artifact failed; the failures are listed in Report.
type BackupReportResponse struct {
	Report   backup.Report `json:"report"`
	Complete bool          `json:"complete"`
}

type ResetAllDataRequest struct {
	Confirm bool `json:"confirm"`
}

type ResetAllDataResponse struct {
	Backup models.Snapshot `json:"backup"`
}

// BackupService implements the BackupService RPC interface.
type BackupService struct {
	coordinator *backup.Coordinator
}

// NewBackupService creates a new BackupService.
func NewBackupService(c *backup.Coordinator) *BackupService {
	return &BackupService{coordinator: c}
}

// Register mounts the service's procedures on mux.
func (s *BackupService) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	handle(mux, ListBackupsProcedure, s.ListBackups, opts...)
	handle(mux, RestoreBackupProcedure, s.RestoreBackup, opts...)
	handle(mux, DeleteBackupProcedure, s.DeleteBackup, opts...)
	handle(mux, ResetAllDataProcedure, s.ResetAllData, opts...)
}

// ListBackups returns every snapshot, newest first.
func (s *BackupService) ListBackups(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListBackupsResponse], error) {
	snaps, err := s.coordinator.List(ctx)
	if err != nil {
		return nil, toConnectError("ListBackups", err)
	}
	return connect.NewResponse(&ListBackupsResponse{Backups: snaps}), nil
}

// RestoreBackup copies a snapshot over the live data.
func (s *BackupService) RestoreBackup(ctx context.Context, req *connect.Request[BackupRequest]) (*connect.Response[BackupReportResponse], error) {
	return s.reportCall(ctx, "RestoreBackup", req.Msg.ID, s.coordinator.Restore)
}

// DeleteBackup removes every artifact of a snapshot.
func (s *BackupService) DeleteBackup(ctx context.Context, req *connect.Request[BackupRequest]) (*connect.Response[BackupReportResponse], error) {
	return s.reportCall(ctx, "DeleteBackup", req.Msg.ID, s.coordinator.Delete)
}

func (s *BackupService) reportCall(
	ctx context.Context,
	op, id string,
	fn func(context.Context, string) (*backup.Report, error),
) (*connect.Response[BackupReportResponse], error) {
	report, err := fn(ctx, id)
	if err != nil && (report == nil || errors.Is(err, backup.ErrSnapshotNotFound)) {
		return nil, toConnectError(op, err)
	}
	if err != nil {
		slog.Warn(op+" partially failed", "snapshot_id", id, "failed", report.Failed(), "error", err)
	}
	return connect.NewResponse(&BackupReportResponse{Report: *report, Complete: err == nil}), nil
}

// ResetAllData snapshots everything and then wipes the ledger, notes, debts and todos.
func (s *BackupService) ResetAllData(ctx context.Context, req *connect.Request[ResetAllDataRequest]) (*connect.Response[ResetAllDataResponse], error) {
	if !req.Msg.Confirm {
		return nil, connect.NewError(connect.CodeFailedPrecondition, ErrNotConfirmed)
	}

	snap, err := s.coordinator.ResetAll(ctx)
	if err != nil {
		return nil, toConnectError("ResetAllData", err)
	}
	return connect.NewResponse(&ResetAllDataResponse{Backup: snap}), nil
}
