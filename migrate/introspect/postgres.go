package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/lib/pq"
)

// MinimumServerVersion is the first PostgreSQL release with row level security.
var MinimumServerVersion = version.Must(version.NewVersion("9.5"))

// PostgresIntrospector implements introspection for PostgreSQL
type PostgresIntrospector struct {
	db     *sql.DB
	schema string
}

// NewPostgresIntrospector creates an introspector for tables in schema.
func NewPostgresIntrospector(db *sql.DB, schema string) *PostgresIntrospector {
	if schema == "" {
		schema = DefaultSchema
	}
	return &PostgresIntrospector{db: db, schema: schema}
}

// Introspect reads RLS flags and policies for tables. Tables missing from
// the database are reported with Exists set to false, in the given order.
func (i *PostgresIntrospector) Introspect(ctx context.Context, tables []string) (*RLSStatus, error) {
	if err := i.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	v, err := i.serverVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntrospectionFailed, err)
	}
	if err := CheckServerVersion(v); err != nil {
		return nil, err
	}

	found, err := i.introspectTables(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntrospectionFailed, err)
	}

	policies, err := i.introspectPolicies(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntrospectionFailed, err)
	}

	status := &RLSStatus{ServerVersion: v}
	for _, name := range tables {
		t, ok := found[name]
		if !ok {
			t = Table{Schema: i.schema, Name: name}
		}
		t.Policies = policies[name]
		status.Tables = append(status.Tables, t)
	}
	return status, nil
}

func (i *PostgresIntrospector) serverVersion(ctx context.Context) (*version.Version, error) {
	var raw string
	if err := i.db.QueryRowContext(ctx, "SHOW server_version").Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to query server version: %w", err)
	}
	return ParseServerVersion(raw)
}

// introspectTables reads the RLS flags of the requested tables
func (i *PostgresIntrospector) introspectTables(ctx context.Context, tables []string) (map[string]Table, error) {
	query := `
		SELECT
			n.nspname,
			c.relname,
			c.relrowsecurity,
			c.relforcerowsecurity
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p')
		  AND n.nspname = $1
		  AND c.relname = ANY($2)
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema, pq.Array(tables))
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	found := make(map[string]Table)
	for rows.Next() {
		t := Table{Exists: true}
		if err := rows.Scan(&t.Schema, &t.Name, &t.RLSEnabled, &t.RLSForced); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		found[t.Name] = t
	}

	return found, rows.Err()
}

// introspectPolicies reads the policies attached to the requested tables
func (i *PostgresIntrospector) introspectPolicies(ctx context.Context, tables []string) (map[string][]Policy, error) {
	query := `
		SELECT
			tablename,
			policyname,
			permissive,
			roles,
			cmd,
			qual,
			with_check
		FROM pg_policies
		WHERE schemaname = $1
		  AND tablename = ANY($2)
		ORDER BY tablename, policyname
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema, pq.Array(tables))
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	policies := make(map[string][]Policy)
	for rows.Next() {
		var (
			table      string
			p          Policy
			permissive string
			using      sql.NullString
			withCheck  sql.NullString
		)
		if err := rows.Scan(&table, &p.Name, &permissive, pq.Array(&p.Roles), &p.Command, &using, &withCheck); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		p.Permissive = strings.EqualFold(permissive, "PERMISSIVE")
		p.Using = using.String
		p.WithCheck = withCheck.String
		policies[table] = append(policies[table], p)
	}

	return policies, rows.Err()
}

// ParseServerVersion parses the output of SHOW server_version, which may
// carry a distribution suffix such as "16.2 (Debian 16.2-1.pgdg120+2)".
func ParseServerVersion(raw string) (*version.Version, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty server version")
	}
	v, err := version.NewVersion(fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid server version %q: %w", raw, err)
	}
	return v, nil
}

// CheckServerVersion returns ErrUnsupportedVersion for servers older than
// MinimumServerVersion.
func CheckServerVersion(v *version.Version) error {
	if v.LessThan(MinimumServerVersion) {
		return fmt.Errorf("%w: %s < %s", ErrUnsupportedVersion, v, MinimumServerVersion)
	}
	return nil
}
