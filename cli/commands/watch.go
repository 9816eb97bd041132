package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-rls/cli/internal/config"
	"github.com/satishbabariya/prisma-rls/cli/internal/ui"
	"github.com/satishbabariya/prisma-rls/cli/internal/watch"
	"github.com/satishbabariya/prisma-rls/rls"
)

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Augment migrations whenever the schema or a migration.sql changes",
		Long: `Runs once over every migration, then again whenever the schema file or a
migration.sql below the migrations directory is created or written.
Stops on Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd.Context())
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func (a *app) runWatch(ctx context.Context) error {
	opts, err := a.options()
	if err != nil {
		return err
	}
	opts.Mode = rls.ModeAll

	callback := func() error {
		_, err := a.augment(ctx, opts)
		return err
	}

	w, err := watch.NewWatcher(a.cfg.SchemaPath, a.cfg.MigrationsDir, callback, a.logger)
	if err != nil {
		return err
	}
	w.OnError = func(err error) {
		ui.PrintError("%v", err)
	}

	if err := w.Start(); err != nil {
		_ = w.Stop()
		return err
	}
	ui.PrintSuccess("Watching %s and %s for changes... (Press Ctrl+C to stop)", a.cfg.SchemaPath, a.cfg.MigrationsDir)

	<-ctx.Done()

	ui.PrintInfo("Stopping watch mode...")
	return w.Stop()
}
