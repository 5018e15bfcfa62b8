package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/pocketledger/internal/backup"
	"github.com/mmynk/pocketledger/internal/models"
)

func newBackupCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot operations",
		Example: "  ledgerctl backup list\n" +
			"  ledgerctl backup restore 20240301120000",
	}
	cmd.AddCommand(
		newBackupListCommand(deps),
		newBackupCreateCommand(deps),
		newBackupRestoreCommand(deps),
		newBackupDeleteCommand(deps),
	)
	return cmd
}

func newBackupListCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), deps, func(ctx context.Context, s *stores) error {
				snaps, err := s.coordinator.List(ctx)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, snaps)
				}
				if len(snaps) == 0 {
					_, err := fmt.Fprintln(deps.out, "no backups")
					return err
				}
				for _, snap := range snaps {
					if _, err := fmt.Fprintf(deps.out, "%s  %s  %s\n",
						snap.ID,
						snap.CreatedAt.Format(time.DateTime),
						artifactList(snap.Artifacts()),
					); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newBackupCreateCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Snapshot transactions, notes and debts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), deps, func(ctx context.Context, s *stores) error {
				snap, err := s.coordinator.Create(ctx)
				if snap.ID == "" {
					return err
				}
				if deps.globals.JSON {
					if perr := printJSON(deps.out, snap); perr != nil {
						return perr
					}
					return err
				}
				if _, perr := fmt.Fprintf(deps.out, "created %s (%s)\n", snap.ID, artifactList(snap.Artifacts())); perr != nil {
					return perr
				}
				return err
			})
		},
	}
}

func newBackupRestoreCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Copy a snapshot over the live data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, deps, "restored", args[0], func(ctx context.Context, c *backup.Coordinator, id string) (*backup.Report, error) {
				return c.Restore(ctx, id)
			})
		},
	}
}

func newBackupDeleteCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete every artifact of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, deps, "deleted", args[0], func(ctx context.Context, c *backup.Coordinator, id string) (*backup.Report, error) {
				return c.Delete(ctx, id)
			})
		},
	}
}

func runReport(
	cmd *cobra.Command,
	deps commandDeps,
	verb, id string,
	fn func(context.Context, *backup.Coordinator, string) (*backup.Report, error),
) error {
	if strings.TrimSpace(id) == "" {
		return usageErrorf("snapshot id must not be empty")
	}
	return withStores(cmd.Context(), deps, func(ctx context.Context, s *stores) error {
		report, err := fn(ctx, s.coordinator, id)
		if report == nil {
			return err
		}
		if deps.globals.JSON {
			if perr := printJSON(deps.out, report); perr != nil {
				return perr
			}
			return err
		}
		for _, res := range report.Results {
			status := "absent"
			switch {
			case res.Error != "":
				status = "failed: " + res.Error
			case res.Done:
				status = verb
			}
			if _, perr := fmt.Fprintf(deps.out, "%-12s %s\n", res.Artifact, status); perr != nil {
				return perr
			}
		}
		return err
	})
}

func artifactList(artifacts []models.Artifact) string {
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = string(a)
	}
	return strings.Join(names, ",")
}
