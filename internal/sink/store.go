package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"curator/internal/gate"
	"curator/internal/record"
)

// Run is one pipeline execution recorded in the store.
type Run struct {
	ID       string
	Domain   string
	Source   string
	Started  time.Time
	Input    int
	Accepted int
	Rejected int
}

// Store persists run history and curated rows to SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (or creates) the run store at path.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging store: %w", err)
	}

	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	domain      TEXT NOT NULL,
	source      TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	input_count    INTEGER NOT NULL,
	accepted_count INTEGER NOT NULL,
	rejected_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_records (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	source_index INTEGER NOT NULL,
	verdict      TEXT NOT NULL,
	violations   TEXT NOT NULL,
	soft_score   REAL NOT NULL,
	notes        TEXT NOT NULL,
	fields       TEXT NOT NULL,
	PRIMARY KEY (run_id, source_index)
);

CREATE INDEX IF NOT EXISTS idx_run_records_verdict ON run_records(run_id, verdict);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun writes the run row and every record's decision in one
// transaction. The conservation invariant is enforced here: input must
// equal accepted plus rejected.
func (s *Store) SaveRun(ctx context.Context, run Run, accepted, rejected []*record.Record, decisions map[int]gate.Decision) error {
	if run.Input != len(accepted)+len(rejected) {
		return fmt.Errorf("run %s: input count %d != accepted %d + rejected %d",
			run.ID, run.Input, len(accepted), len(rejected))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, domain, source, started_at, input_count, accepted_count, rejected_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Domain, run.Source, run.Started.UTC().Format(time.RFC3339),
		run.Input, len(accepted), len(rejected))
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_records (run_id, source_index, verdict, violations, soft_score, notes, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	insert := func(recs []*record.Record) error {
		for _, r := range recs {
			d := decisions[r.Index]
			fields, err := json.Marshal(r.Fields)
			if err != nil {
				return fmt.Errorf("encoding record %d: %w", r.Index, err)
			}
			_, err = stmt.ExecContext(ctx, run.ID, r.Index, string(d.Verdict),
				strings.Join(d.Violations, ";"), d.SoftScore, r.NoteSummary(), string(fields))
			if err != nil {
				return fmt.Errorf("inserting record %d: %w", r.Index, err)
			}
		}
		return nil
	}
	if err := insert(accepted); err != nil {
		return err
	}
	if err := insert(rejected); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRun reads one run row back.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var run Run
	var started string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, domain, source, started_at, input_count, accepted_count, rejected_count
		 FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.Domain, &run.Source, &started, &run.Input, &run.Accepted, &run.Rejected)
	if err != nil {
		return Run{}, err
	}
	run.Started, _ = time.Parse(time.RFC3339, started)
	return run, nil
}

// CountVerdicts returns how many records of a run carry each verdict.
func (s *Store) CountVerdicts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT verdict, COUNT(*) FROM run_records WHERE run_id = ? GROUP BY verdict`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var verdict string
		var n int
		if err := rows.Scan(&verdict, &n); err != nil {
			return nil, err
		}
		out[verdict] = n
	}
	return out, rows.Err()
}
