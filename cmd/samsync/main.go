package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sbn-software/samsync/internal/interfaces/cli/app"
	"github.com/sbn-software/samsync/internal/interfaces/cli/catalog"
	"github.com/sbn-software/samsync/internal/interfaces/cli/definitions"
	"github.com/sbn-software/samsync/internal/interfaces/cli/files"
	"github.com/sbn-software/samsync/internal/interfaces/cli/locations"
	"github.com/sbn-software/samsync/internal/interfaces/cli/users"
)

func main() {
	flags := &app.GlobalFlags{}

	rootCmd := &cobra.Command{
		Use:   "samsync",
		Short: "samsync - migrate an experiment SAM catalog into the shared SBN catalog",
		Long: `samsync copies file metadata, locations, dataset definitions and user
accounts from an experiment's SAM catalog into the shared SBN catalog. Every run
is idempotent: entities already present in the target are only completed, and
migrated files are flagged in the source so later runs skip them.`,
		SilenceUsage: true,
	}
	flags.Register(rootCmd)

	rootCmd.AddCommand(
		files.NewCommand(flags),
		locations.NewCommand(flags),
		definitions.NewCommand(flags),
		users.NewCommand(flags),
		catalog.NewCommand(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
