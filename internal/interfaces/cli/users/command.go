package users

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sbn-software/samsync/internal/application/migration"
	"github.com/sbn-software/samsync/internal/interfaces/cli/app"
)

var username string

func NewCommand(flags *app.GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Migrate users, groups and grid subjects",
		Long: `Create the source users the target catalog lacks, then add the groups and
grid subjects each target account is missing. Nothing is ever removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "Only migrate this user")

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

	release, err := rt.Lock(ctx, migration.KindUsers)
	if err != nil {
		return err
	}
	defer release()

	session, err := rt.NewSession("")
	if err != nil {
		return err
	}

	migrator := migration.NewUserMigrator(session, rt.Component("migration.users"))
	runErr := migrator.Run(ctx, username)
	flushErr := rt.Finish(session)
	if err := rt.Report(cmd.OutOrStdout(), migration.KindUsers, session.Stats()); err != nil {
		return err
	}
	return errors.Join(runErr, flushErr)
}
