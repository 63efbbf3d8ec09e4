package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sqlCmd shows the forward SQL of a single migration unit.
func sqlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sql <revision>",
		Short: "Show the SQL of one migration",
		Long:  `Render the forward SQL of a single migration unit, resolved by revision or unique revision prefix. Nothing is executed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			stmts, err := client.SQLForRevision(args[0])
			if err != nil {
				return err
			}
			for _, s := range stmts {
				fmt.Println(s + ";")
			}
			return nil
		},
	}
}
