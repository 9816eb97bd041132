package history

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateChecksum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", CalculateChecksum(""))
	assert.NotEqual(t, CalculateChecksum("SELECT 1;"), CalculateChecksum("SELECT 1;\n"))
}

func TestCompare(t *testing.T) {
	done := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	scripts := []Script{
		{Name: "4_new", Content: "CREATE TABLE d ();"},
		{Name: "3_failed", Content: "CREATE TABLE c ();"},
		{Name: "2_changed", Content: "CREATE TABLE b ();\n-- RLS Settings\n"},
		{Name: "1_init", Content: "CREATE TABLE a ();"},
	}
	records := []MigrationRecord{
		{Name: "1_init", Checksum: CalculateChecksum("CREATE TABLE a ();"), FinishedAt: &done},
		{Name: "2_changed", Checksum: CalculateChecksum("CREATE TABLE b ();"), FinishedAt: &done},
		{Name: "3_failed", Checksum: CalculateChecksum("CREATE TABLE c ();")},
		{Name: "4_new", Checksum: CalculateChecksum("CREATE TABLE d ();"), FinishedAt: &done, RolledBack: true},
	}

	assert.Equal(t, []Entry{
		{Name: "4_new", State: StatePending},
		{Name: "3_failed", State: StateFailed},
		{Name: "2_changed", State: StateModified},
		{Name: "1_init", State: StateApplied},
	}, Compare(scripts, records))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "modified", StateModified.String())
	assert.Equal(t, "State(9)", State(9).String())
}

// TestManager runs against PRISMA_RLS_TEST_DATABASE_URL when set.
func TestManager(t *testing.T) {
	url := os.Getenv("PRISMA_RLS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PRISMA_RLS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := sql.Open("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := NewManager(db)
	exists, err := m.Exists(ctx)
	require.NoError(t, err)
	if !exists {
		t.Skip("_prisma_migrations not present")
	}

	records, err := m.GetAll(ctx)
	require.NoError(t, err)
	for _, r := range records {
		assert.Len(t, r.Checksum, 64)
	}
}
