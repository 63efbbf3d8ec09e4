// Package main provides the CLI for the evolve schema migration engine.
//
// Usage:
//
//	evolve plan                  # Show SQL for pending migrations
//	evolve migrate               # Apply pending migrations
//	evolve migrate --fake        # Record pending migrations without executing
//	evolve status                # Show applied/pending migrations
//	evolve rollback <revision>   # Roll back to a revision
//	evolve sql <revision>        # Show SQL for one migration
//	evolve verify                # Compare ledger checksums against files
//	evolve diff <old> <new>      # Diff two schema snapshot files
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

// Global flags
var (
	databaseURL string
	configFile  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "evolve",
		Short:         "Declarative schema migration engine",
		Long:          `Evolve derives migrations by diffing declarative model snapshots, compiles them to dialect SQL, and applies them transactionally with a checksum-verified ledger.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&databaseURL, "database-url", "d", "", "Database connection URL")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "evolve.yaml", "Path to config file")

	rootCmd.AddCommand(
		migrateCmd(),
		planCmd(),
		rollbackCmd(),
		statusCmd(),
		sqlCmd(),
		verifyCmd(),
		diffCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
