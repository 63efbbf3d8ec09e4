package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evolvedb/evolve/internal/ui"
)

// rollbackCmd rolls back to a target revision.
func rollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <revision>",
		Short: "Roll back to a revision",
		Long: `Reverse every applied migration after the target revision, newest first.

The target revision itself stays applied. Each reversed unit runs in its own
transaction and its ledger row is deleted alongside. A unit containing an
irreversible operation (dropped model, removed field, raw SQL without a down
statement) aborts the rollback.`,
		Example: `  # Roll back to a full revision
  evolve rollback 20260101120000

  # A unique revision prefix also works
  evolve rollback 20260101`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			rolledBack, err := client.RollbackTo(args[0])
			for _, rev := range rolledBack {
				fmt.Printf("%s %s\n", ui.Revision(rev), ui.Warning("rolled back"))
			}
			if err != nil {
				return err
			}
			if len(rolledBack) == 0 {
				fmt.Println(ui.Success("nothing to roll back"))
				return nil
			}
			fmt.Println(ui.Success(fmt.Sprintf("rolled back %d migration(s)", len(rolledBack))))
			return nil
		},
	}
}
