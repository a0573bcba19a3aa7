package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/domainhound/domainhound/internal/model"
)

// SQLiteJournal implements Journal using modernc.org/sqlite. It is the
// default backend: a single file next to the run's output.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteJournal{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS records (
	domain     TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	record     TEXT NOT NULL,
	checked_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id);
`

func (j *SQLiteJournal) Migrate(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func (j *SQLiteJournal) CreateRun(ctx context.Context) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{ID: id, Status: RunStatusRunning, StartedAt: now}, nil
}

func (j *SQLiteJournal) FinishRun(ctx context.Context, runID string, status RunStatus, summary *model.Summary) error {
	var summaryJSON sql.NullString
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal summary")
		}
		summaryJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, finished_at = ? WHERE id = ?`,
		string(status), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (j *SQLiteJournal) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, status, summary, started_at, finished_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (j *SQLiteJournal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, status, summary, started_at, finished_at FROM runs
		 ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (j *SQLiteJournal) AppendRecord(ctx context.Context, runID string, rec model.DomainRecord) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO records (domain, run_id, record, checked_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(domain) DO UPDATE SET run_id = excluded.run_id,
		   record = excluded.record, checked_at = excluded.checked_at`,
		string(rec.Domain), runID, string(recJSON), rec.CheckedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: append record %s", rec.Domain)
}

func (j *SQLiteJournal) CompletedDomains(ctx context.Context) (map[model.Domain]struct{}, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT domain FROM records`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: completed domains")
	}
	defer rows.Close()

	done := make(map[model.Domain]struct{})
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan domain")
		}
		done[model.Domain(d)] = struct{}{}
	}
	return done, eris.Wrap(rows.Err(), "sqlite: completed domains iterate")
}

func (j *SQLiteJournal) Records(ctx context.Context) ([]model.DomainRecord, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT record FROM records ORDER BY domain`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: records")
	}
	defer rows.Close()

	var recs []model.DomainRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		var rec model.DomainRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: records iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var summaryJSON sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &r.Status, &summaryJSON, &r.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if summaryJSON.Valid {
		r.Summary = &model.Summary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
