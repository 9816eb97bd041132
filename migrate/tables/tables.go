// Package tables finds the tables a migration script creates.
package tables

import (
	"fmt"
	"regexp"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Detector returns the names of tables created by a SQL script, in
// statement order. Duplicates are preserved.
type Detector interface {
	Created(sql string) ([]string, error)
}

const (
	// NameRegex selects the Regex detector.
	NameRegex = "regex"
	// NamePgQuery selects the PgQuery detector.
	NamePgQuery = "pg_query"
)

// New returns the detector registered under name. An empty name selects
// the regex detector.
func New(name string) (Detector, error) {
	switch name {
	case "", NameRegex:
		return Regex{}, nil
	case NamePgQuery:
		return PgQuery{}, nil
	default:
		return nil, fmt.Errorf("unknown table detector %q (expected %q or %q)", name, NameRegex, NamePgQuery)
	}
}

var createTablePattern = regexp.MustCompile(`CREATE TABLE "([^"]+)"`)

// Regex matches CREATE TABLE "<name>" exactly as Prisma Migrate writes it.
// Matching is case and quoting sensitive.
type Regex struct{}

// Created implements Detector.
func (Regex) Created(sql string) ([]string, error) {
	matches := createTablePattern.FindAllStringSubmatch(sql, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names, nil
}

// PgQuery parses the script with the PostgreSQL parser and reports every
// CREATE TABLE statement, whatever its quoting or layout.
type PgQuery struct{}

// Created implements Detector.
func (PgQuery) Created(sql string) ([]string, error) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("failed to parse migration SQL: %w", err)
	}

	var names []string
	for _, raw := range result.Stmts {
		stmt := raw.GetStmt()
		if stmt == nil {
			continue
		}
		create := stmt.GetCreateStmt()
		if create == nil || create.Relation == nil {
			continue
		}
		names = append(names, create.Relation.Relname)
	}
	return names, nil
}
