// Package cli implements ledgerctl, the operator command line for snapshots
// and data reset. It works on the same files as the server and should not be
// run against a database the server is writing to.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/pocketledger/internal/backup"
	"github.com/mmynk/pocketledger/internal/config"
	"github.com/mmynk/pocketledger/internal/localstore"
	"github.com/mmynk/pocketledger/internal/planner"
	"github.com/mmynk/pocketledger/internal/storage/sqlite"
)

type globalFlags struct {
	ConfigPath     string
	EnvFile        string
	DBPath         string
	LocalStorePath string
	JSON           bool
}

type commandDeps struct {
	out     io.Writer
	globals *globalFlags
}

func NewRootCommand(out io.Writer) *cobra.Command {
	globals := &globalFlags{}
	deps := commandDeps{out: out, globals: globals}

	cmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "PocketLedger backup and maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&globals.ConfigPath, "config", "pocketledger.toml", "Path to TOML config file")
	flags.StringVar(&globals.EnvFile, "env-file", ".env", "Path to dotenv file")
	flags.StringVar(&globals.DBPath, "db", "", "SQLite database path (overrides config)")
	flags.StringVar(&globals.LocalStorePath, "local-store", "", "Local store file path (overrides config)")
	flags.BoolVar(&globals.JSON, "json", false, "Print results as JSON")

	cmd.AddCommand(
		newBackupCommand(deps),
		newResetCommand(deps),
	)
	return cmd
}

// stores is everything a command needs, opened from config.
type stores struct {
	db          *sqlite.Lazy
	coordinator *backup.Coordinator
}

func (s *stores) Close() error {
	return s.db.Close()
}

func openStores(deps commandDeps) (*stores, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: deps.globals.ConfigPath,
		EnvFile:    deps.globals.EnvFile,
	})
	if err != nil {
		return nil, err
	}
	if deps.globals.DBPath != "" {
		cfg.Storage.DBPath = deps.globals.DBPath
	}
	if deps.globals.LocalStorePath != "" {
		cfg.Storage.LocalStorePath = deps.globals.LocalStorePath
	}

	kv, err := localstore.Open(cfg.Storage.LocalStorePath)
	if err != nil {
		return nil, err
	}
	db := sqlite.NewLazy(cfg.Storage.DBPath)
	return &stores{
		db:          db,
		coordinator: backup.NewCoordinator(db, kv, planner.New(kv)),
	}, nil
}

func withStores(ctx context.Context, deps commandDeps, fn func(context.Context, *stores) error) (err error) {
	s, err := openStores(deps)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()
	return fn(ctx, s)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("usage: "+format, args...)
}
