// Package journal persists per-domain results so interrupted runs can be
// resumed without re-querying providers for domains that already finished.
package journal

import (
	"context"
	"time"

	"github.com/domainhound/domainhound/internal/model"
)

// RunStatus tracks the lifecycle of a single invocation.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusAborted  RunStatus = "aborted"
)

// Run is one invocation of the pipeline against a domain list.
type Run struct {
	ID         string         `json:"id"`
	Status     RunStatus      `json:"status"`
	Summary    *model.Summary `json:"summary,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// Journal defines the persistence interface for domain records. A record is
// upserted by domain, so re-running a domain overwrites its previous row and
// resume can treat the set of stored domains as done.
type Journal interface {
	// Runs
	CreateRun(ctx context.Context) (*Run, error)
	FinishRun(ctx context.Context, runID string, status RunStatus, summary *model.Summary) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Records
	AppendRecord(ctx context.Context, runID string, rec model.DomainRecord) error
	CompletedDomains(ctx context.Context) (map[model.Domain]struct{}, error)
	Records(ctx context.Context) ([]model.DomainRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
