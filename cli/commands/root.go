// Package commands implements the prisma-rls command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-rls/cli/internal/config"
	"github.com/satishbabariya/prisma-rls/cli/internal/ui"
	"github.com/satishbabariya/prisma-rls/cli/internal/version"
	"github.com/satishbabariya/prisma-rls/internal/debug"
	"github.com/satishbabariya/prisma-rls/rls"
)

// app is the state shared by the commands of one invocation.
type app struct {
	fs      afero.Fs
	cfg     *config.Config
	logger  *slog.Logger
	confirm rls.ConfirmFunc
}

// Execute runs the CLI and reports a returned error on stderr.
func Execute(ctx context.Context) error {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}

// NewRootCommand creates the root command. Without a subcommand it behaves
// like apply.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{fs: config.AppFs, confirm: surveyConfirm})
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prisma-rls",
		Short: "Add PostgreSQL row level security to Prisma migrations",
		Long: `prisma-rls reads @RLS annotations from a Prisma schema and appends the
matching ALTER TABLE ... ENABLE ROW LEVEL SECURITY and CREATE POLICY
statements to the generated migration.sql files.

Annotate a field with a comment before it or on the same line:

  model User {
    id       Int    @id
    tenantId String /// @RLS
  }

Optional overrides: /// @RLS table: "users" column: "tenant_id"`,
		Version:           version.Get().String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(cmd.Context())
		},
	}

	config.RegisterPersistentFlags(cmd.PersistentFlags())
	config.RegisterFlags(cmd.Flags())

	cmd.AddCommand(newApplyCommand(a))
	cmd.AddCommand(newWatchCommand(a))
	cmd.AddCommand(newStatusCommand(a))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// load resolves the configuration and sets up logging and output.
func (a *app) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.fs, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	debug.Init(cfg.Debug)
	ui.SetPlain(cfg.NoColor)
	a.logger = debug.Logger()

	if cfg.ConfigFile != "" {
		a.logger.Debug("loaded config file", "path", cfg.ConfigFile)
	}
	return nil
}

func (a *app) options() (rls.Options, error) {
	o, err := a.cfg.Options()
	if err != nil {
		return rls.Options{}, fmt.Errorf("invalid options: %w", err)
	}
	return o, nil
}
