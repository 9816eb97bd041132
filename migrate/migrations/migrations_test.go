package migrations

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestListSortsDescendingAndSkipsFiles(t *testing.T) {
	fs := newFs(t, map[string]string{
		"prisma/migrations/20240101_init/migration.sql":    "-- init",
		"prisma/migrations/20240202_add_col/migration.sql": "-- add col",
		"prisma/migrations/20231231_older/migration.sql":   "-- older",
		"prisma/migrations/migration_lock.toml":            `provider = "postgresql"`,
	})

	list, err := NewCatalog(fs, "prisma/migrations").List()
	require.NoError(t, err)

	var names []string
	for _, m := range list {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"20240202_add_col", "20240101_init", "20231231_older"}, names)
	assert.Equal(t, "prisma/migrations/20240202_add_col/migration.sql", list[0].Path)
}

func TestLatest(t *testing.T) {
	fs := newFs(t, map[string]string{
		"m/20240101_init/migration.sql":    "",
		"m/20240202_add_col/migration.sql": "",
	})

	latest, ok, err := NewCatalog(fs, "m").Latest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "20240202_add_col", latest.Name)
}

func TestLatestEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("m", 0o755))

	_, ok, err := NewCatalog(fs, "m").Latest()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListMissingRoot(t *testing.T) {
	_, err := NewCatalog(afero.NewMemMapFs(), "nope").List()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAppendPreservesContent(t *testing.T) {
	fs := newFs(t, map[string]string{"m/1_init/migration.sql": "CREATE TABLE \"A\" ();\n"})
	m, ok, err := NewCatalog(fs, "m").Latest()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, m.Append(fs, "-- one\n"))
	require.NoError(t, m.Append(fs, "-- two\n"))

	content, err := m.Read(fs)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE \"A\" ();\n-- one\n-- two\n", content)
}

func TestHasScript(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("m/1_empty", 0o755))
	m, found, err := NewCatalog(fs, "m").Latest()
	require.NoError(t, err)
	require.True(t, found)

	ok, err := m.HasScript(fs)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, m.Append(fs, "x"))
}
