// Package history reads the migration history Prisma keeps in the
// _prisma_migrations table and compares it with local migration scripts.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// TableName is the table prisma migrate records applied migrations in.
const TableName = "_prisma_migrations"

// MigrationRecord represents a migration in the history
type MigrationRecord struct {
	ID         string
	Name       string
	Checksum   string
	StartedAt  time.Time
	FinishedAt *time.Time
	RolledBack bool
}

// Manager reads migration history
type Manager struct {
	db *sql.DB
}

// NewManager creates a new migration history manager
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Exists reports whether the history table exists.
func (m *Manager) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, TableName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration table: %w", err)
	}
	return exists, nil
}

// GetAll returns all migration records
func (m *Manager) GetAll(ctx context.Context) ([]MigrationRecord, error) {
	query := `
		SELECT id, migration_name, checksum, started_at, finished_at, rolled_back_at IS NOT NULL
		FROM _prisma_migrations
		ORDER BY started_at ASC
	`
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var record MigrationRecord
		var finishedAt sql.NullTime
		err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.Checksum,
			&record.StartedAt,
			&finishedAt,
			&record.RolledBack,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		if finishedAt.Valid {
			record.FinishedAt = &finishedAt.Time
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// CalculateChecksum calculates the checksum prisma migrate stores for a
// migration script.
func CalculateChecksum(migrationSQL string) string {
	hash := sha256.Sum256([]byte(migrationSQL))
	return hex.EncodeToString(hash[:])
}

// State describes a local migration relative to the history.
type State int

const (
	// StatePending means the migration has not been applied.
	StatePending State = iota
	// StateApplied means the applied checksum matches the local script.
	StateApplied
	// StateModified means the script changed after it was applied.
	StateModified
	// StateFailed means the migration was started but never finished.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateApplied:
		return "applied"
	case StateModified:
		return "modified"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Script is a local migration script.
type Script struct {
	Name    string
	Content string
}

// Entry is the comparison result for one script.
type Entry struct {
	Name  string
	State State
}

// Compare matches local scripts with applied records, in script order.
// Rolled back records are ignored; the latest record of a name wins.
func Compare(scripts []Script, records []MigrationRecord) []Entry {
	latest := make(map[string]MigrationRecord)
	for _, r := range records {
		if r.RolledBack {
			continue
		}
		latest[r.Name] = r
	}

	entries := make([]Entry, 0, len(scripts))
	for _, s := range scripts {
		e := Entry{Name: s.Name, State: StatePending}
		if r, ok := latest[s.Name]; ok {
			switch {
			case r.FinishedAt == nil:
				e.State = StateFailed
			case r.Checksum != CalculateChecksum(s.Content):
				e.State = StateModified
			default:
				e.State = StateApplied
			}
		}
		entries = append(entries, e)
	}
	return entries
}
