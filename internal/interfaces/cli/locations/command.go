package locations

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
	scratch    bool
)

func NewCommand(flags *app.GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "Add missing file locations to the target catalog",
		Long: `For every source file with a physical location, add the locations the
target catalog does not know yet. Scratch locations are skipped unless
--scratch is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}

	cmd.Flags().IntVarP(&nfiles, "nfiles", "n", 0, "Maximum number of files per iteration (0: no limit)")
	cmd.Flags().StringVar(&definition, "def", "", "Only check files of this source definition")
	cmd.Flags().StringVar(&fileName, "file", "", "Only check this file")
	cmd.Flags().IntVar(&niter, "niter", 1, "Number of query iterations")
	cmd.Flags().StringVar(&invalidLog, "invalid", "", "Write files not declared in the target to this file")
	cmd.Flags().BoolVar(&scratch, "scratch", false, "Also migrate scratch locations")

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

	release, err := rt.Lock(ctx, migration.KindLocations)
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
	reconciler := migration.NewLocationReconciler(session, rt.Component("migration.locations"))

	runErr := reconciler.Run(ctx, sel, scratch)
	flushErr := rt.Finish(session)
	if err := rt.Report(cmd.OutOrStdout(), migration.KindLocations, session.Stats()); err != nil {
		return err
	}
	return errors.Join(runErr, flushErr)
}
