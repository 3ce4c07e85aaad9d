// Package history keeps a SQLite record of analysis runs so measures can be
// compared over time. The database lives at history.database (default
// .sonarbridge/history.db).
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
)

const dirPerm = 0o750

// Sentinel errors.
var (
	// ErrRunNotFound is returned by Show for an unknown run id.
	ErrRunNotFound = errors.New("run not found")
	// ErrCorruptValue indicates a stored measure that cannot be decoded.
	ErrCorruptValue = errors.New("corrupt stored value")
)

// Run summarizes one recorded analysis run.
type Run struct {
	ID         int64     `json:"id"         yaml:"id"`
	Project    string    `json:"project"    yaml:"project"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Components int       `json:"components" yaml:"components"`
	Measures   int       `json:"measures"   yaml:"measures"`
	Issues     int       `json:"issues"     yaml:"issues"`
}

// Store manages the history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			db.Close()

			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}

	if err = s.initSchema(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Record stores snap as a new run and returns its id.
func (s *Store) Record(ctx context.Context, snap *measure.Snapshot) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	id, err := insertRun(ctx, tx, snap)
	if err != nil {
		_ = tx.Rollback()

		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return id, nil
}

func insertRun(ctx context.Context, tx *sql.Tx, snap *measure.Snapshot) (int64, error) {
	var measures, issues int

	for _, cm := range snap.Components {
		measures += len(cm.Measures)
		issues += len(cm.Issues)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (project, created_at, components, measures, issues) VALUES (?, ?, ?, ?, ?)`,
		snap.Project, snap.CreatedAt.UTC().Format(time.RFC3339Nano), len(snap.Components), measures, issues)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for pos, cm := range snap.Components {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO components (run_id, position, key, name, qualifier, parent) VALUES (?, ?, ?, ?, ?, ?)`,
			id, pos, cm.Key, cm.Name, cm.Qualifier, cm.Parent)
		if err != nil {
			return 0, fmt.Errorf("insert component %s: %w", cm.Key, err)
		}

		for i, e := range cm.Measures {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO measures (run_id, component, position, metric, kind, value) VALUES (?, ?, ?, ?, ?, ?)`,
				id, cm.Key, i, e.Metric, e.Value.Kind().String(), e.Value.String())
			if err != nil {
				return 0, fmt.Errorf("insert measure %s on %s: %w", e.Metric, cm.Key, err)
			}
		}

		for i, is := range cm.Issues {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO issues (run_id, component, position, rule, message, file, line) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, cm.Key, i, is.RuleKey, is.Message, is.File, is.Line)
			if err != nil {
				return 0, fmt.Errorf("insert issue on %s: %w", cm.Key, err)
			}
		}
	}

	return id, nil
}

// List returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, project, created_at, components, measures, issues FROM runs ORDER BY id DESC`
	args := []any{}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run     Run
		created string
	)

	if err := row.Scan(&run.ID, &run.Project, &created, &run.Components, &run.Measures, &run.Issues); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at of run %d: %w", run.ID, err)
	}

	run.CreatedAt = t

	return run, nil
}

// Show rebuilds the snapshot recorded as run id.
func (s *Store) Show(ctx context.Context, id int64) (*measure.Snapshot, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, project, created_at, components, measures, issues FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}

	if err != nil {
		return nil, err
	}

	snap := &measure.Snapshot{Project: run.Project, CreatedAt: run.CreatedAt}

	if err = s.loadComponents(ctx, id, snap); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(snap.Components))
	for i, cm := range snap.Components {
		index[cm.Key] = i
	}

	if err = s.loadMeasures(ctx, id, snap, index); err != nil {
		return nil, err
	}

	if err = s.loadIssues(ctx, id, snap, index); err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *Store) loadComponents(ctx context.Context, id int64, snap *measure.Snapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, name, qualifier, parent FROM components WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return fmt.Errorf("query components: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref measure.ComponentRef

		if err = rows.Scan(&ref.Key, &ref.Name, &ref.Qualifier, &ref.Parent); err != nil {
			return fmt.Errorf("scan component: %w", err)
		}

		snap.Components = append(snap.Components, measure.ComponentMeasures{ComponentRef: ref})
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterate components: %w", err)
	}

	return nil
}

func (s *Store) loadMeasures(ctx context.Context, id int64, snap *measure.Snapshot, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT component, metric, kind, value FROM measures WHERE run_id = ? ORDER BY component, position`, id)
	if err != nil {
		return fmt.Errorf("query measures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var component, metric, kind, text string

		if err = rows.Scan(&component, &metric, &kind, &text); err != nil {
			return fmt.Errorf("scan measure: %w", err)
		}

		v, decodeErr := decodeValue(kind, text)
		if decodeErr != nil {
			return fmt.Errorf("measure %s on %s: %w", metric, component, decodeErr)
		}

		i, ok := index[component]
		if !ok {
			continue
		}

		snap.Components[i].Measures = append(snap.Components[i].Measures, measure.Entry{Metric: metric, Value: v})
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterate measures: %w", err)
	}

	return nil
}

func (s *Store) loadIssues(ctx context.Context, id int64, snap *measure.Snapshot, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT component, rule, message, file, line FROM issues WHERE run_id = ? ORDER BY component, position`, id)
	if err != nil {
		return fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			component string
			is        measure.Issue
		)

		if err = rows.Scan(&component, &is.RuleKey, &is.Message, &is.File, &is.Line); err != nil {
			return fmt.Errorf("scan issue: %w", err)
		}

		if i, ok := index[component]; ok {
			snap.Components[i].Issues = append(snap.Components[i].Issues, is)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterate issues: %w", err)
	}

	return nil
}

func decodeValue(kind, text string) (measure.Value, error) {
	switch kind {
	case measure.KindInt.String():
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return measure.Value{}, fmt.Errorf("%w: %w", ErrCorruptValue, err)
		}

		return measure.Int(i), nil
	case measure.KindFloat.String():
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return measure.Value{}, fmt.Errorf("%w: %w", ErrCorruptValue, err)
		}

		return measure.Float(f), nil
	case measure.KindBool.String():
		b, err := strconv.ParseBool(text)
		if err != nil {
			return measure.Value{}, fmt.Errorf("%w: %w", ErrCorruptValue, err)
		}

		return measure.Bool(b), nil
	default:
		return measure.Value{}, fmt.Errorf("%w: kind %q", ErrCorruptValue, kind)
	}
}

// Trend returns the recorded values of metric on component, oldest run first.
func (s *Store) Trend(ctx context.Context, component, metric string) ([]TrendPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, m.kind, m.value
		FROM measures m JOIN runs r ON r.id = m.run_id
		WHERE m.component = ? AND m.metric = ?
		ORDER BY r.id`, component, metric)
	if err != nil {
		return nil, fmt.Errorf("query trend: %w", err)
	}
	defer rows.Close()

	var points []TrendPoint

	for rows.Next() {
		var (
			p             TrendPoint
			created, kind string
			text          string
		)

		if err = rows.Scan(&p.RunID, &created, &kind, &text); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}

		if p.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at of run %d: %w", p.RunID, err)
		}

		if p.Value, err = decodeValue(kind, text); err != nil {
			return nil, err
		}

		points = append(points, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend: %w", err)
	}

	return points, nil
}

// TrendPoint is one recorded value of a metric.
type TrendPoint struct {
	RunID     int64         `json:"run_id"     yaml:"run_id"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Value     measure.Value `json:"value"      yaml:"value"`
}
