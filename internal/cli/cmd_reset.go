package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCommand(deps commandDeps) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "reset",
		Short:   "Back up, then delete all transactions, notes, debts and todos",
		Example: "  ledgerctl reset --yes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usageErrorf("reset deletes all data; pass --yes to confirm")
			}
			return withStores(cmd.Context(), deps, func(ctx context.Context, s *stores) error {
				snap, err := s.coordinator.ResetAll(ctx)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, snap)
				}
				_, err = fmt.Fprintf(deps.out, "all data reset, backup %s\n", snap.ID)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting all data")
	return cmd
}
