package journal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/domainhound/domainhound/internal/model"
)

// Pool is the subset of pgxpool.Pool the journal uses. pgxmock's pool
// implements it too, which keeps the Postgres backend unit-testable.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresJournal implements Journal using pgxpool, for teams sharing one
// journal across machines.
type PostgresJournal struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresJournal with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresJournal, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresJournal{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     JSONB,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS records (
	domain     TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	record     JSONB NOT NULL,
	checked_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id);
`

func (j *PostgresJournal) Migrate(ctx context.Context) error {
	_, err := j.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (j *PostgresJournal) Close() error {
	j.pool.Close()
	return nil
}

func (j *PostgresJournal) CreateRun(ctx context.Context) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := j.pool.Exec(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`,
		id, string(RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &Run{ID: id, Status: RunStatusRunning, StartedAt: now}, nil
}

func (j *PostgresJournal) FinishRun(ctx context.Context, runID string, status RunStatus, summary *model.Summary) error {
	var summaryJSON any
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal summary")
		}
		summaryJSON = string(b)
	}

	tag, err := j.pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, finished_at = $3 WHERE id = $4`,
		string(status), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (j *PostgresJournal) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := j.pool.QueryRow(ctx,
		`SELECT id, status, summary, started_at, finished_at FROM runs WHERE id = $1`,
		runID,
	)

	var r Run
	var summaryJSON *string
	var finishedAt *time.Time
	err := row.Scan(&r.ID, &r.Status, &summaryJSON, &r.StartedAt, &finishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("get run: not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}

	if summaryJSON != nil {
		r.Summary = &model.Summary{}
		if err := json.Unmarshal([]byte(*summaryJSON), r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	r.FinishedAt = finishedAt
	return &r, nil
}

func (j *PostgresJournal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.pool.Query(ctx,
		`SELECT id, status, summary, started_at, finished_at FROM runs
		 ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var summaryJSON *string
		var finishedAt *time.Time
		if err := rows.Scan(&r.ID, &r.Status, &summaryJSON, &r.StartedAt, &finishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if summaryJSON != nil {
			r.Summary = &model.Summary{}
			if err := json.Unmarshal([]byte(*summaryJSON), r.Summary); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal summary")
			}
		}
		r.FinishedAt = finishedAt
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (j *PostgresJournal) AppendRecord(ctx context.Context, runID string, rec model.DomainRecord) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}

	_, err = j.pool.Exec(ctx,
		`INSERT INTO records (domain, run_id, record, checked_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (domain) DO UPDATE SET run_id = EXCLUDED.run_id,
		   record = EXCLUDED.record, checked_at = EXCLUDED.checked_at`,
		string(rec.Domain), runID, string(recJSON), rec.CheckedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: append record %s", rec.Domain)
}

func (j *PostgresJournal) CompletedDomains(ctx context.Context) (map[model.Domain]struct{}, error) {
	rows, err := j.pool.Query(ctx, `SELECT domain FROM records`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: completed domains")
	}
	defer rows.Close()

	done := make(map[model.Domain]struct{})
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "postgres: scan domain")
		}
		done[model.Domain(d)] = struct{}{}
	}
	return done, eris.Wrap(rows.Err(), "postgres: completed domains iterate")
}

func (j *PostgresJournal) Records(ctx context.Context) ([]model.DomainRecord, error) {
	rows, err := j.pool.Query(ctx, `SELECT record FROM records ORDER BY domain`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: records")
	}
	defer rows.Close()

	var recs []model.DomainRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		var rec model.DomainRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: records iterate")
}
