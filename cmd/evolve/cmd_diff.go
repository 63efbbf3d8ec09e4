package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evolvedb/evolve/internal/dialect"
	"github.com/evolvedb/evolve/internal/diff"
	"github.com/evolvedb/evolve/internal/schema"
	"github.com/evolvedb/evolve/internal/ui"
)

// diffCmd diffs two schema snapshot files.
func diffCmd() *cobra.Command {
	var dialectName string
	var showSQL bool

	cmd := &cobra.Command{
		Use:   "diff <old-snapshot> <new-snapshot>",
		Short: "Diff two schema snapshot files",
		Long: `Compare two schema snapshot files and report added, removed, renamed, and
changed models. With --sql the generated migration statements are printed for
the chosen dialect.`,
		Example: `  # Structural summary
  evolve diff migrations/schema_snapshot.yaml next.yaml

  # Generated SQL for postgres
  evolve diff old.yaml new.yaml --sql --dialect postgres`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := schema.LoadSnapshot(args[0])
			if err != nil {
				return err
			}
			next, err := schema.LoadSnapshot(args[1])
			if err != nil {
				return err
			}
			if old == nil {
				old = schema.Empty()
			}
			if next == nil {
				next = schema.Empty()
			}

			d := diff.Diff(old, next, diff.Options{})
			if d.Empty() {
				fmt.Println(ui.Success("snapshots are identical"))
				return nil
			}

			for _, r := range d.ModelRenames {
				fmt.Printf("%s %s -> %s\n", ui.Info("renamed"), r.OldModel, r.NewModel)
			}
			for _, table := range d.AddedModels {
				fmt.Printf("%s %s\n", ui.Success("added"), table)
			}
			for _, table := range d.RemovedModels {
				fmt.Printf("%s %s\n", ui.Error("removed"), table)
			}
			for _, md := range d.ChangedModels {
				fmt.Printf("%s %s\n", ui.Warning("changed"), md.Table)
				for _, fr := range md.FieldRenames {
					fmt.Printf("  renamed %s -> %s\n", fr.Old, fr.New)
				}
				for _, f := range md.AddedFields {
					fmt.Printf("  added %s\n", f)
				}
				for _, f := range md.RemovedFields {
					fmt.Printf("  removed %s\n", f)
				}
				for _, f := range md.AlteredFields {
					fmt.Printf("  altered %s\n", f)
				}
				for _, ix := range md.AddedIndexes {
					fmt.Printf("  added index %s\n", ix)
				}
				for _, ix := range md.RemovedIndexes {
					fmt.Printf("  removed index %s\n", ix)
				}
			}

			if !showSQL {
				return nil
			}

			dl := dialect.Get(dialectName)
			if dl == nil {
				return fmt.Errorf("unsupported dialect %q", dialectName)
			}
			fmt.Println()
			for _, op := range diff.Generate(d, old, next) {
				stmts, err := op.Forward(dl)
				if err != nil {
					return err
				}
				for _, s := range stmts {
					fmt.Println(s + ";")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dialectName, "dialect", "sqlite", "Dialect for generated SQL (sqlite, postgres, mysql)")
	cmd.Flags().BoolVar(&showSQL, "sql", false, "Print the migration SQL for the diff")
	return cmd
}
