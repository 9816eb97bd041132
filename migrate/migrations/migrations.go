// Package migrations locates Prisma migration directories and reads and
// appends their migration.sql scripts.
package migrations

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// ScriptName is the file Prisma Migrate writes in every migration directory.
const ScriptName = "migration.sql"

// ErrNotFound is returned when the migrations directory does not exist.
var ErrNotFound = errors.New("migrations directory not found")

// Migration is one timestamp-named migration directory.
type Migration struct {
	// Name is the directory name, e.g. 20240101000000_init.
	Name string
	// Dir is the directory path.
	Dir string
	// Path is the path of the migration script inside Dir.
	Path string
}

// Catalog lists the migrations stored under Root.
type Catalog struct {
	Fs   afero.Fs
	Root string
}

// NewCatalog creates a catalog for the migrations directory root.
func NewCatalog(fs afero.Fs, root string) *Catalog {
	return &Catalog{Fs: fs, Root: root}
}

// List returns every migration directory sorted by name, newest first.
// Plain files such as migration_lock.toml are ignored.
func (c *Catalog) List() ([]Migration, error) {
	entries, err := afero.ReadDir(c.Fs, c.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, c.Root)
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var result []Migration
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		result = append(result, c.migration(entry.Name()))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name > result[j].Name
	})
	return result, nil
}

// Latest returns the lexicographically greatest migration directory.
// The boolean is false when the directory holds no migrations.
func (c *Catalog) Latest() (Migration, bool, error) {
	all, err := c.List()
	if err != nil || len(all) == 0 {
		return Migration{}, false, err
	}
	return all[0], true, nil
}

func (c *Catalog) migration(name string) Migration {
	dir := filepath.Join(c.Root, name)
	return Migration{
		Name: name,
		Dir:  dir,
		Path: filepath.Join(dir, ScriptName),
	}
}

// HasScript reports whether the migration directory contains migration.sql.
func (m Migration) HasScript(fs afero.Fs) (bool, error) {
	ok, err := afero.Exists(fs, m.Path)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", m.Path, err)
	}
	return ok, nil
}

// Read returns the full text of migration.sql.
func (m Migration) Read(fs afero.Fs) (string, error) {
	content, err := afero.ReadFile(fs, m.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", m.Path, err)
	}
	return string(content), nil
}

// Append writes text at the end of migration.sql in a single write.
// Existing content is never rewritten.
func (m Migration) Append(fs afero.Fs, text string) (err error) {
	f, err := fs.OpenFile(m.Path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", m.Path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", m.Path, cerr)
		}
	}()

	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("failed to append to %s: %w", m.Path, err)
	}
	return nil
}
