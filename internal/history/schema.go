package history

import (
	"context"
	"fmt"
)

// schemaSQL defines the history tables. Positions keep the component and
// measure order of the recorded snapshot.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project TEXT NOT NULL,
    created_at TEXT NOT NULL,
    components INTEGER NOT NULL,
    measures INTEGER NOT NULL,
    issues INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS components (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    key TEXT NOT NULL,
    name TEXT NOT NULL,
    qualifier TEXT NOT NULL,
    parent TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, key)
);

CREATE TABLE IF NOT EXISTS measures (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    component TEXT NOT NULL,
    position INTEGER NOT NULL,
    metric TEXT NOT NULL,
    kind TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (run_id, component, metric)
);

CREATE TABLE IF NOT EXISTS issues (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    component TEXT NOT NULL,
    position INTEGER NOT NULL,
    rule TEXT NOT NULL,
    message TEXT NOT NULL,
    file TEXT NOT NULL DEFAULT '',
    line INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project, id DESC);
CREATE INDEX IF NOT EXISTS idx_measures_metric ON measures(metric, component);
`

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	return nil
}
