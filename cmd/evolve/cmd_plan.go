package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evolvedb/evolve/internal/ui"
)

// planCmd shows the SQL for pending migrations without executing anything.
func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show SQL for pending migrations",
		Long: `Render the forward SQL of every pending migration unit.

Nothing is executed and nothing is recorded; the database is only read to
determine which units are already applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			stmts, err := client.Plan()
			if err != nil {
				return err
			}
			if len(stmts) == 0 {
				fmt.Println(ui.Success("up to date"))
				return nil
			}
			for _, s := range stmts {
				fmt.Println(s + ";")
			}
			return nil
		},
	}
}
