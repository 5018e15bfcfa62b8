package service

import (
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/mmynk/pocketledger/internal/auth"
	"github.com/mmynk/pocketledger/internal/backup"
	"github.com/mmynk/pocketledger/internal/ledger"
	"github.com/mmynk/pocketledger/internal/planner"
	"github.com/mmynk/pocketledger/internal/storage/sqlite"
)

// toConnectError maps package sentinel errors to Connect codes.
func toConnectError(op string, err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, sqlite.ErrNotFound),
		errors.Is(err, planner.ErrNotFound),
		errors.Is(err, backup.ErrSnapshotNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, planner.ErrValidation),
		errors.Is(err, backup.ErrInvalidID),
		errors.Is(err, auth.ErrWeakPassword):
		code = connect.CodeInvalidArgument
	case errors.Is(err, sqlite.ErrBackupExists):
		code = connect.CodeAlreadyExists
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrPasswordNotSet):
		code = connect.CodeUnauthenticated
	}

	if code == connect.CodeInternal {
		slog.Error(op+" failed", "error", err)
	}
	return connect.NewError(code, err)
}

func invalidArgument(err error) error {
	return connect.NewError(connect.CodeInvalidArgument, err)
}

var errMissingID = errors.New("id is required")

func errUnknownSortField(f ledger.SortField) error {
	return fmt.Errorf("unknown sort field %q", f)
}
