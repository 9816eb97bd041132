// Package introspect reads the row level security state of a live database.
package introspect

import (
	"context"
	"database/sql"

	"github.com/hashicorp/go-version"
)

// DefaultSchema is the schema Prisma creates tables in.
const DefaultSchema = "public"

// Introspector reports RLS status for a set of tables.
type Introspector interface {
	Introspect(ctx context.Context, tables []string) (*RLSStatus, error)
}

// RLSStatus is the result of one introspection.
type RLSStatus struct {
	ServerVersion *version.Version
	Tables        []Table
}

// Table represents the RLS state of one table
type Table struct {
	Schema string
	Name   string
	// Exists is false when the table is not in the database yet.
	Exists     bool
	RLSEnabled bool
	RLSForced  bool
	Policies   []Policy
}

// HasPolicy reports whether a policy named name is attached to the table.
func (t Table) HasPolicy(name string) bool {
	for _, p := range t.Policies {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Policy represents a row level security policy
type Policy struct {
	Name       string
	Permissive bool
	Roles      []string
	Command    string
	Using      string
	WithCheck  string
}

// NewIntrospector creates a new introspector for the given database
func NewIntrospector(db *sql.DB, provider string) (Introspector, error) {
	switch provider {
	case "postgresql", "postgres", "":
		return NewPostgresIntrospector(db, DefaultSchema), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
