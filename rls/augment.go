package rls

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/satishbabariya/prisma-rls/migrate/migrations"
	"github.com/satishbabariya/prisma-rls/migrate/tables"
)

// Status is the outcome of processing one migration.
type Status int

const (
	// StatusAppended means RLS statements were appended.
	StatusAppended Status = iota
	// StatusDryRun means statements were generated but not written.
	StatusDryRun
	// StatusNoFile means the directory has no migration.sql.
	StatusNoFile
	// StatusAlreadyEnabled means the script already enables RLS.
	StatusAlreadyEnabled
	// StatusNoMatches means no annotated table is created by the script.
	StatusNoMatches
	// StatusDeclined means the confirmation hook refused the change.
	StatusDeclined
	// StatusInvalidSQL means the table detector could not read the script.
	StatusInvalidSQL
)

func (s Status) String() string {
	switch s {
	case StatusAppended:
		return "appended"
	case StatusDryRun:
		return "dry-run"
	case StatusNoFile:
		return "no-file"
	case StatusAlreadyEnabled:
		return "already-enabled"
	case StatusNoMatches:
		return "no-matches"
	case StatusDeclined:
		return "declined"
	case StatusInvalidSQL:
		return "invalid-sql"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Changed reports whether the migration file was modified.
func (s Status) Changed() bool { return s == StatusAppended }

// Result describes what happened to one migration.
type Result struct {
	Migration migrations.Migration
	Status    Status
	// Tables lists the annotated tables the statements were generated for.
	Tables []string
	// SQL is the appended (or, in dry-run, the would-be appended) text.
	SQL string
	// Err holds the detector error for StatusInvalidSQL.
	Err error
}

// Message returns the human-readable status line for the result.
func (r Result) Message() string {
	switch r.Status {
	case StatusAppended:
		return fmt.Sprintf("RLS settings appended to %s/%s", r.Migration.Name, migrations.ScriptName)
	case StatusDryRun:
		return fmt.Sprintf("RLS settings for %s/%s (dry run, not written)", r.Migration.Name, migrations.ScriptName)
	case StatusNoFile:
		return fmt.Sprintf("No %s file found in %s", migrations.ScriptName, r.Migration.Name)
	case StatusAlreadyEnabled:
		return fmt.Sprintf("RLS already enabled in %s", r.Migration.Name)
	case StatusNoMatches:
		return fmt.Sprintf("No matched tables found in %s", r.Migration.Name)
	case StatusDeclined:
		return fmt.Sprintf("Skipped %s", r.Migration.Name)
	case StatusInvalidSQL:
		return fmt.Sprintf("Could not read tables from %s: %v", r.Migration.Name, r.Err)
	default:
		return r.Status.String()
	}
}

// ConfirmFunc is asked before a result is written. Returning false skips
// the migration.
type ConfirmFunc func(Result) (bool, error)

// Augmenter appends RLS statements to Prisma migrations.
type Augmenter struct {
	fs       afero.Fs
	detector tables.Detector
	opts     Options
	logger   *slog.Logger

	// Confirm, when set, is called before each write.
	Confirm ConfirmFunc
	// Report, when set, is called with every result as it is produced.
	Report func(Result)
}

// NewAugmenter creates an augmenter. A nil detector selects tables.Regex
// and a nil logger discards debug output.
func NewAugmenter(fs afero.Fs, detector tables.Detector, opts Options, logger *slog.Logger) *Augmenter {
	if detector == nil {
		detector = tables.Regex{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Mode == "" {
		opts.Mode = ModeLatest
	}
	if opts.PolicyNaming == "" {
		opts.PolicyNaming = PolicyNamingFixed
	}
	return &Augmenter{fs: fs, detector: detector, opts: opts, logger: logger}
}

// Options returns the effective options.
func (a *Augmenter) Options() Options { return a.opts }

// Run augments the migrations under root. In latest mode only the newest
// migration is considered; in all mode every migration is processed and
// per-migration conditions never stop the run. An empty result with a nil
// error means there was no migration directory.
func (a *Augmenter) Run(ctx context.Context, models []Model, root string) ([]Result, error) {
	catalog := migrations.NewCatalog(a.fs, root)

	var selected []migrations.Migration
	switch a.opts.Mode {
	case ModeAll:
		all, err := catalog.List()
		if err != nil {
			return nil, err
		}
		selected = all
	default:
		latest, ok, err := catalog.Latest()
		if err != nil {
			return nil, err
		}
		if ok {
			selected = []migrations.Migration{latest}
		}
	}

	a.logger.Debug("selected migrations", "root", root, "mode", a.opts.Mode, "count", len(selected))

	results := make([]Result, 0, len(selected))
	for _, m := range selected {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := a.Apply(ctx, models, m)
		if err != nil {
			return results, err
		}
		if a.Report != nil {
			a.Report(res)
		}
		results = append(results, res)
	}
	return results, nil
}

// Apply runs the per-migration procedure on m.
func (a *Augmenter) Apply(ctx context.Context, models []Model, m migrations.Migration) (Result, error) {
	log := a.logger.With("migration", m.Name)
	res := Result{Migration: m}

	ok, err := m.HasScript(a.fs)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	if !ok {
		res.Status = StatusNoFile
		log.Debug("skipping migration without script")
		return res, nil
	}

	content, err := m.Read(a.fs)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	if strings.Contains(content, EnabledMarker) {
		res.Status = StatusAlreadyEnabled
		log.Debug("skipping migration with RLS statements")
		return res, nil
	}

	created, err := a.detector.Created(content)
	if err != nil {
		res.Status = StatusInvalidSQL
		res.Err = err
		log.Debug("table detection failed", "error", err)
		return res, nil
	}
	log.Debug("detected tables", "tables", created)

	matched := Matching(models, created)
	if len(matched) == 0 {
		res.Status = StatusNoMatches
		return res, nil
	}

	for _, model := range matched {
		res.Tables = append(res.Tables, model.Table)
	}
	res.SQL = Section(Block(matched, a.opts))

	if a.opts.DryRun {
		res.Status = StatusDryRun
		return res, nil
	}

	if a.Confirm != nil {
		ok, err := a.Confirm(res)
		if err != nil {
			return res, err
		}
		if !ok {
			res.Status = StatusDeclined
			return res, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := m.Append(a.fs, res.SQL); err != nil {
		return res, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	res.Status = StatusAppended
	log.Debug("appended RLS statements", "tables", res.Tables)
	return res, nil
}
