package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-rls/cli/internal/config"
	"github.com/satishbabariya/prisma-rls/cli/internal/ui"
	"github.com/satishbabariya/prisma-rls/migrate/history"
	"github.com/satishbabariya/prisma-rls/migrate/introspect"
	"github.com/satishbabariya/prisma-rls/migrate/migrations"
	"github.com/satishbabariya/prisma-rls/psl/schema/ast"
	"github.com/satishbabariya/prisma-rls/rls"
)

func newStatusCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show row level security state of the annotated tables in a database",
		Long: `Connects to the database and lists, for every @RLS annotated table,
whether row level security is enabled or forced and which policies exist.
The connection string comes from --database-url, PRISMA_RLS_DATABASE_URL,
DATABASE_URL or the url of the schema datasource.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus(cmd.Context())
		},
	}

	cmd.Flags().String("schema", config.DefaultSchemaPath, "Path to the Prisma schema file")
	cmd.Flags().String("migrations", config.DefaultMigrationDir, "Path to the Prisma migrations directory")
	cmd.Flags().String("database-url", "", "PostgreSQL connection string (default $DATABASE_URL)")
	cmd.Flags().String("currentSettingBypass", rls.DefaultBypassSetting, "Session setting of the bypass policy")
	cmd.Flags().String("policyNaming", string(rls.PolicyNamingFixed), `Isolation policy naming: "fixed" or "derived"`)

	return cmd
}

func (a *app) runStatus(ctx context.Context) error {
	s, err := rls.ParseSchemaFile(a.fs, a.cfg.SchemaPath)
	if err != nil {
		return err
	}
	models := rls.Extract(s)
	if len(models) == 0 {
		ui.PrintInfo("No RLS fields found")
		return nil
	}

	url := databaseURL(a.cfg.DatabaseURL, s)
	if url == "" {
		return fmt.Errorf("no database url: pass --database-url or set DATABASE_URL")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return fmt.Errorf("%w: %w", introspect.ErrConnectionFailed, err)
	}
	defer db.Close()

	inspector, err := introspect.NewIntrospector(db, s.Provider())
	if err != nil {
		return err
	}

	status, err := inspector.Introspect(ctx, tableNames(models))
	if errors.Is(err, introspect.ErrUnsupportedVersion) {
		ui.PrintWarning("%v", err)
		return nil
	}
	if err != nil {
		return err
	}
	a.logger.Debug("introspected database", "serverVersion", status.ServerVersion.String(), "tables", len(status.Tables))

	opts, err := a.options()
	if err != nil {
		return err
	}
	printStatus(models, status, opts)

	return a.printHistory(ctx, db)
}

// printHistory compares local scripts with _prisma_migrations, when present.
func (a *app) printHistory(ctx context.Context, db *sql.DB) error {
	m := history.NewManager(db)
	exists, err := m.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		a.logger.Debug("no migration history table", "table", history.TableName)
		return nil
	}

	records, err := m.GetAll(ctx)
	if err != nil {
		return err
	}
	scripts, err := localScripts(a.fs, a.cfg.MigrationsDir)
	if err != nil {
		return err
	}

	entries := history.Compare(scripts, records)
	printHistory(entries)
	return nil
}

func localScripts(fs afero.Fs, root string) ([]history.Script, error) {
	list, err := migrations.NewCatalog(fs, root).List()
	if err != nil {
		return nil, err
	}
	var scripts []history.Script
	for _, m := range list {
		ok, err := m.HasScript(fs)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		content, err := m.Read(fs)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, history.Script{Name: m.Name, Content: content})
	}
	return scripts, nil
}

func printHistory(entries []history.Entry) {
	if len(entries) == 0 {
		return
	}
	ui.PrintSection("Migrations")

	rows := make([][]string, 0, len(entries))
	var modified []string
	for _, e := range entries {
		rows = append(rows, []string{e.Name, e.State.String()})
		if e.State == history.StateModified {
			modified = append(modified, e.Name)
		}
	}
	ui.PrintTable([]string{"Migration", "State"}, rows)

	for _, name := range modified {
		ui.PrintWarning("%s was modified after it was applied; prisma migrate will report a checksum mismatch", name)
	}
}

// databaseURL picks the explicit url, or resolves the schema datasource url.
func databaseURL(explicit string, s *ast.Schema) string {
	if explicit != "" {
		return explicit
	}
	value, env := s.DatasourceURL()
	if env != "" {
		return os.Getenv(env)
	}
	return value
}

func tableNames(models []rls.Model) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range models {
		if !seen[m.Table] {
			seen[m.Table] = true
			names = append(names, m.Table)
		}
	}
	return names
}

func printStatus(models []rls.Model, status *introspect.RLSStatus, opts rls.Options) {
	ui.PrintSection(fmt.Sprintf("Row level security (PostgreSQL %s)", status.ServerVersion.Original()))

	byName := make(map[string]introspect.Table, len(status.Tables))
	for _, t := range status.Tables {
		byName[t.Name] = t
	}

	rows := make([][]string, 0, len(models))
	var problems []string
	for _, m := range models {
		t := byName[m.Table]
		rows = append(rows, []string{m.Table, m.Column, yesNo(t.Exists), yesNo(t.RLSEnabled), yesNo(t.RLSForced), policyList(t)})

		switch {
		case !t.Exists:
			problems = append(problems, fmt.Sprintf("%s does not exist; apply the migrations first", m.Table))
		case !t.RLSEnabled:
			problems = append(problems, fmt.Sprintf("%s has row level security disabled", m.Table))
		case !t.HasPolicy(rls.PolicyName(m, opts.PolicyNaming)):
			problems = append(problems, fmt.Sprintf("%s has no %s policy", m.Table, rls.PolicyName(m, opts.PolicyNaming)))
		}
		if t.Exists && opts.BypassSetting != "" && !t.HasPolicy(rls.BypassPolicyName) {
			problems = append(problems, fmt.Sprintf("%s has no %s policy", m.Table, rls.BypassPolicyName))
		}
	}
	ui.PrintTable([]string{"Table", "Column", "Exists", "RLS", "Forced", "Policies"}, rows)

	if len(problems) == 0 {
		ui.PrintSuccess("All annotated tables are protected")
		return
	}
	for _, p := range problems {
		ui.PrintWarning("%s", p)
	}
}

func policyList(t introspect.Table) string {
	if len(t.Policies) == 0 {
		return "-"
	}
	names := make([]string, len(t.Policies))
	for i, p := range t.Policies {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
