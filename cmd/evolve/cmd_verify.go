package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evolvedb/evolve/internal/ui"
)

// verifyCmd compares ledger checksums against the unit files on disk.
func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify migration file checksums against the ledger",
		Long: `Compare the checksum the ledger recorded for each applied migration against
the unit file currently on disk. A mismatch means the file was edited after it
was applied; a missing file means the ledger references a unit that no longer
exists. Findings are reported but never auto-corrected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			findings, err := client.VerifyChecksums()
			if err != nil {
				return err
			}
			if len(findings) == 0 {
				fmt.Println(ui.Success("all checksums match"))
				return nil
			}

			for _, f := range findings {
				if f.MissingFile {
					fmt.Printf("%s %s\n", ui.Revision(f.Revision), ui.Error("unit file missing"))
					continue
				}
				fmt.Printf("%s %s\n", ui.Revision(f.Revision), ui.Warning("checksum mismatch"))
				fmt.Printf("  ledger: %s\n", ui.Dim(f.LedgerChecksum))
				fmt.Printf("  file:   %s\n", ui.Dim(f.FileChecksum))
			}
			// Returning an error keeps the deferred Close and exits non-zero.
			return fmt.Errorf("%d checksum finding(s)", len(findings))
		},
	}
}
