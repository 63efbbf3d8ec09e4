package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evolvedb/evolve/internal/ui"
)

// statusCmd shows every known revision with its applied state.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			statuses, err := client.Status()
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Println(ui.Dim("no migrations"))
				return nil
			}

			for _, s := range statuses {
				state := ui.Pending()
				detail := ""
				if s.Applied {
					state = ui.Applied()
					detail = ui.Dim(s.AppliedAt.Format("2006-01-02 15:04:05"))
				}
				if s.MissingFile {
					detail = ui.Error("unit file missing")
				}
				fmt.Printf("%s  %-10s %-24s %s\n", ui.Revision(s.Revision), state, s.Slug, detail)
			}
			return nil
		},
	}
}
