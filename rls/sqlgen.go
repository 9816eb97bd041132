package rls

import (
	"fmt"
	"strings"
)

// EnabledMarker is present in every migration that already has RLS statements.
const EnabledMarker = "ENABLE ROW LEVEL SECURITY"

// Header precedes the appended statements.
const Header = "-- RLS Settings"

const (
	DefaultIsolationSetting = "app.tenant_id"
	DefaultBypassSetting    = "app.bypass_rls"

	// IsolationPolicyName is the isolation policy name under fixed naming.
	IsolationPolicyName = "tenant_isolation_policy"
	// BypassPolicyName is the name of the bypass policy.
	BypassPolicyName = "bypass_rls_policy"
)

// PolicyNaming selects how isolation policies are named.
type PolicyNaming string

const (
	// PolicyNamingFixed names every isolation policy tenant_isolation_policy.
	PolicyNamingFixed PolicyNaming = "fixed"
	// PolicyNamingDerived names isolation policies "<table>_<column>_policy".
	PolicyNamingDerived PolicyNaming = "derived"
)

// Mode selects which migrations are augmented.
type Mode string

const (
	// ModeLatest augments only the newest migration.
	ModeLatest Mode = "latest"
	// ModeAll augments every migration.
	ModeAll Mode = "all"
)

// Options configures statement generation and migration selection.
type Options struct {
	// IsolationSetting is the session setting compared against the RLS
	// column. Ignored when CurrentUser is set.
	IsolationSetting string
	// CurrentUser compares the RLS column to current_user instead.
	CurrentUser bool
	// BypassSetting is the session setting of the bypass policy. Empty
	// disables the bypass policy.
	BypassSetting string
	// ForceEnable also emits FORCE ROW LEVEL SECURITY.
	ForceEnable  bool
	PolicyNaming PolicyNaming
	Mode         Mode
	// DryRun reports the statements without writing them.
	DryRun bool
}

// DefaultOptions returns the options used when no flag is given.
func DefaultOptions() Options {
	return Options{
		IsolationSetting: DefaultIsolationSetting,
		BypassSetting:    DefaultBypassSetting,
		PolicyNaming:     PolicyNamingFixed,
		Mode:             ModeLatest,
	}
}

// Validate checks that the options are consistent.
func (o Options) Validate() error {
	if !o.CurrentUser && strings.TrimSpace(o.IsolationSetting) == "" {
		return fmt.Errorf("isolation setting must not be empty unless current user mode is set")
	}
	switch o.PolicyNaming {
	case "", PolicyNamingFixed, PolicyNamingDerived:
	default:
		return fmt.Errorf("unknown policy naming %q (expected %q or %q)", o.PolicyNaming, PolicyNamingFixed, PolicyNamingDerived)
	}
	switch o.Mode {
	case "", ModeLatest, ModeAll:
	default:
		return fmt.Errorf("unknown mode %q (expected %q or %q)", o.Mode, ModeLatest, ModeAll)
	}
	return nil
}

// Statements returns the SQL statements that enable RLS for m.
func Statements(m Model, o Options) []string {
	table := quoteIdent(m.Table)
	column := quoteIdent(m.Column)

	stmts := []string{
		fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY;", table),
	}
	if o.ForceEnable {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s FORCE ROW LEVEL SECURITY;", table))
	}

	predicate := fmt.Sprintf("%s = current_setting(%s)", column, quoteLiteral(o.IsolationSetting))
	if o.CurrentUser {
		predicate = fmt.Sprintf("%s = current_user", column)
	}
	stmts = append(stmts, fmt.Sprintf("CREATE POLICY %s ON %s USING (%s);", policyIdent(m, o.PolicyNaming), table, predicate))

	if o.BypassSetting != "" {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE POLICY %s ON %s USING (current_setting(%s, TRUE)::text = 'on');",
			BypassPolicyName, table, quoteLiteral(o.BypassSetting),
		))
	}
	return stmts
}

// PolicyName returns the isolation policy name of m as PostgreSQL stores it.
func PolicyName(m Model, naming PolicyNaming) string {
	if naming == PolicyNamingDerived {
		return m.Table + "_" + m.Column + "_policy"
	}
	return IsolationPolicyName
}

func policyIdent(m Model, naming PolicyNaming) string {
	if naming == PolicyNamingDerived {
		return quoteIdent(PolicyName(m, naming))
	}
	return IsolationPolicyName
}

// Matching returns the models whose table is in created, keeping the
// order of models.
func Matching(models []Model, created []string) []Model {
	set := make(map[string]struct{}, len(created))
	for _, name := range created {
		set[name] = struct{}{}
	}
	var result []Model
	for _, m := range models {
		if _, ok := set[m.Table]; ok {
			result = append(result, m)
		}
	}
	return result
}

// Block renders the statements of every model, one block per model,
// joined with newlines.
func Block(models []Model, o Options) string {
	blocks := make([]string, len(models))
	for i, m := range models {
		blocks[i] = strings.Join(Statements(m, o), "\n")
	}
	return strings.Join(blocks, "\n")
}

// Section returns the text appended to a migration: the header followed
// by block.
func Section(block string) string {
	return "\n" + Header + "\n" + block + "\n"
}

// quoteIdent double-quotes a SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral single-quotes a SQL string literal.
func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
