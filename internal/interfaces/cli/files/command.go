package files

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sbn-software/samsync/internal/application/migration"
	"github.com/sbn-software/samsync/internal/interfaces/cli/app"
	"github.com/sbn-software/samsync/internal/shared/query"
)

var (
	nfiles     int
	definition string
	fileName   string
	niter      int
	invalidLog string
)

func NewCommand(flags *app.GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Migrate file metadata and locations",
		Long: `Copy the metadata of every not yet migrated source file, parents first,
into the target catalog, reconcile its locations, and flag it as migrated in
the source catalog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}

	cmd.Flags().IntVarP(&nfiles, "nfiles", "n", 0, "Maximum number of files per iteration (0: no limit)")
	cmd.Flags().StringVar(&definition, "def", "", "Only migrate files of this source definition")
	cmd.Flags().StringVar(&fileName, "file", "", "Only migrate this file (and its parents)")
	cmd.Flags().IntVar(&niter, "niter", 1, "Number of query iterations")
	cmd.Flags().StringVar(&invalidLog, "invalid", "", "Write files whose locations could not be checked to this file")

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

	release, err := rt.Lock(ctx, migration.KindFiles)
	if err != nil {
		return err
	}
	defer release()

	session, err := rt.NewSession(invalidLog)
	if err != nil {
		return err
	}

	sel := query.NewSelection(
		query.WithFile(fileName),
		query.WithDefinition(definition),
		query.WithLimit(nfiles),
		query.WithIterations(niter),
	)
	locations := migration.NewLocationReconciler(session, rt.Component("migration.locations"))
	migrator := migration.NewFileMigrator(session, locations, rt.Component("migration.files"))

	runErr := migrator.Run(ctx, sel)
	flushErr := rt.Finish(session)
	if err := rt.Report(cmd.OutOrStdout(), migration.KindFiles, session.Stats()); err != nil {
		return err
	}
	return errors.Join(runErr, flushErr)
}
