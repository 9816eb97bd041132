package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-rls/cli/internal/config"
	"github.com/satishbabariya/prisma-rls/cli/internal/ui"
	"github.com/satishbabariya/prisma-rls/migrate/tables"
	"github.com/satishbabariya/prisma-rls/rls"
)

func newApplyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Append RLS statements to the latest migration (or all with --all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(cmd.Context())
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func (a *app) runApply(ctx context.Context) error {
	opts, err := a.options()
	if err != nil {
		return err
	}
	_, err = a.augment(ctx, opts)
	return err
}

// augment extracts the annotated models and runs the augmenter once.
func (a *app) augment(ctx context.Context, opts rls.Options) ([]rls.Result, error) {
	models, err := rls.ExtractFile(a.fs, a.cfg.SchemaPath)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		ui.PrintInfo("No RLS fields found")
		return nil, nil
	}
	a.logger.Debug("extracted RLS fields", "schema", a.cfg.SchemaPath, "count", len(models))

	aug, err := a.newAugmenter(opts)
	if err != nil {
		return nil, err
	}

	results, err := aug.Run(ctx, models, a.cfg.MigrationsDir)
	if err != nil {
		return results, err
	}
	if len(results) == 0 {
		ui.PrintInfo("No migration directories found")
		return nil, nil
	}
	if opts.Mode == rls.ModeAll && len(results) > 1 {
		ui.PrintResults(results)
	}
	return results, nil
}

func (a *app) newAugmenter(opts rls.Options) (*rls.Augmenter, error) {
	detector, err := tables.New(a.cfg.Parser)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("augmenter options",
		"mode", opts.Mode,
		"parser", a.cfg.Parser,
		"currentUser", opts.CurrentUser,
		"isolationSetting", opts.IsolationSetting,
		"bypassSetting", opts.BypassSetting,
		"forceEnable", opts.ForceEnable,
		"policyNaming", opts.PolicyNaming,
		"dryRun", opts.DryRun,
	)

	aug := rls.NewAugmenter(a.fs, detector, opts, a.logger)
	aug.Report = ui.PrintResult
	if a.cfg.Interactive && !opts.DryRun {
		aug.Confirm = a.confirm
	}
	return aug, nil
}

// surveyConfirm shows the pending statements and asks before writing them.
func surveyConfirm(r rls.Result) (bool, error) {
	ui.PrintSQL(r.SQL)

	ok := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Append RLS settings for %s to %s?", strings.Join(r.Tables, ", "), r.Migration.Name),
		Default: true,
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, fmt.Errorf("confirmation aborted: %w", err)
	}
	return ok, nil
}
