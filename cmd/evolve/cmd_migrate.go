package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/evolvedb/evolve/internal/ui"
)

// migrateCmd applies pending migrations.
func migrateCmd() *cobra.Command {
	var fake, dry bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		Long: `Apply every pending migration unit in revision order.

Each unit runs in its own transaction together with its ledger row, so a
failing unit leaves no trace. Use --dry to preview the SQL without executing,
or --fake to record units as applied without running their statements.`,
		Example: `  # Apply all pending migrations
  evolve migrate

  # Preview SQL without applying
  evolve migrate --dry

  # Adopt an already-current database
  evolve migrate --fake`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if dry {
				stmts, err := client.Plan()
				if err != nil {
					return err
				}
				if len(stmts) == 0 {
					fmt.Println(ui.Success("nothing to migrate"))
					return nil
				}
				for _, s := range stmts {
					fmt.Println(s + ";")
				}
				return nil
			}

			if fake {
				faked, err := client.FakeMigrate()
				if err != nil {
					return err
				}
				for _, rev := range faked {
					fmt.Printf("%s %s\n", ui.Revision(rev), ui.Dim("(faked)"))
				}
				fmt.Println(ui.Success(fmt.Sprintf("faked %d migration(s)", len(faked))))
				return nil
			}

			start := time.Now()
			applied, err := client.Migrate()
			for _, rev := range applied {
				fmt.Printf("%s %s\n", ui.Revision(rev), ui.Applied())
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Println(ui.Success("nothing to migrate"))
				return nil
			}
			fmt.Println(ui.Success(fmt.Sprintf("applied %d migration(s) in %s",
				len(applied), time.Since(start).Round(time.Millisecond))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&fake, "fake", false, "Record pending migrations without executing their SQL")
	cmd.Flags().BoolVar(&dry, "dry", false, "Show SQL without executing it")
	return cmd
}
