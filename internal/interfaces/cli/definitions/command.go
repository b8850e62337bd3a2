package definitions

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sbn-software/samsync/internal/application/migration"
	"github.com/sbn-software/samsync/internal/interfaces/cli/app"
)

var (
	definition   string
	ndefinitions int
)

func NewCommand(flags *app.GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "definitions",
		Short: "Migrate dataset definitions",
		Long: `Create the source definitions the target catalog lacks, after the
definitions they reference. Definitions using catalog-internal identifiers are
skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&definition, "definition", "d", "", "Only migrate this definition (and the ones it references)")
	cmd.Flags().IntVarP(&ndefinitions, "ndefinitions", "n", 0, "Maximum number of definitions to add (0: no limit)")

	return cmd
}

func run(cmd *cobra.Command, flags *app.GlobalFlags) error {
	rt, err := app.Setup(flags)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := app.SignalContext()
	defer stop()

	release, err := rt.Lock(ctx, migration.KindDefinitions)
	if err != nil {
		return err
	}
	defer release()

	session, err := rt.NewSession("")
	if err != nil {
		return err
	}

	migrator := migration.NewDefinitionMigrator(session, rt.Component("migration.definitions"))
	runErr := migrator.Run(ctx, migration.DefinitionSelection{Name: definition, Limit: ndefinitions})
	flushErr := rt.Finish(session)
	if err := rt.Report(cmd.OutOrStdout(), migration.KindDefinitions, session.Stats()); err != nil {
		return err
	}
	return errors.Join(runErr, flushErr)
}
