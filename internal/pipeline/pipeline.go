// Package pipeline schedules provider checks across a domain list and folds
// the outcomes into persisted records. The scheduler owns the global worker
// budget; per-provider ceilings live with the providers themselves.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/provider"
)

// FailurePolicy decides what happens to the run when a provider fails
// provider-wide (bad credentials, exhausted quota).
type FailurePolicy string

const (
	// FailDegrade keeps the run going; the dead provider's field is recorded
	// as a terminal failure on every remaining domain.
	FailDegrade FailurePolicy = "degrade"
	// FailAbort cancels the run at the first provider-wide failure. Records
	// persisted before the abort survive for a later resume.
	FailAbort FailurePolicy = "abort"
)

// Persister stores one completed record. Implementations handle screenshot
// downloads and serialization; Persist is called concurrently from workers.
type Persister interface {
	Persist(ctx context.Context, rec model.DomainRecord) (model.DomainRecord, error)
}

// Options tunes a run.
type Options struct {
	// Concurrency is the global worker budget: at most this many domains are
	// in flight at once. Defaults to 5.
	Concurrency int
	// OnProviderFailure picks degrade or abort semantics. Defaults to degrade.
	OnProviderFailure FailurePolicy
	// Skip lists domains that already have a persisted record; they are
	// dropped before scheduling so a resumed run is idempotent.
	Skip map[model.Domain]struct{}
	// OnEvent, when set, receives one event per completed domain.
	OnEvent EventFunc
}

// Runner drives one pipeline run over a domain list.
type Runner struct {
	providers provider.Set
	persister Persister
	opts      Options
}

// NewRunner creates a Runner over the given provider set and persister.
func NewRunner(providers provider.Set, persister Persister, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.OnProviderFailure == "" {
		opts.OnProviderFailure = FailDegrade
	}
	return &Runner{providers: providers, persister: persister, opts: opts}
}

// Run checks every domain and returns the report of persisted records.
// Every scheduled domain yields exactly one record, panics included; the
// only errors returned are persister failures, provider-wide aborts, and
// context cancellation.
func (r *Runner) Run(ctx context.Context, runID string, domains []model.Domain) (*model.Report, error) {
	report := &model.Report{RunID: runID, StartedAt: time.Now().UTC()}

	scheduled := domains[:0:0]
	for _, d := range domains {
		if _, done := r.opts.Skip[d]; done {
			continue
		}
		scheduled = append(scheduled, d)
	}
	if skipped := len(domains) - len(scheduled); skipped > 0 {
		zap.L().Info("resuming: skipping already-persisted domains",
			zap.Int("skipped", skipped),
			zap.Int("remaining", len(scheduled)),
		)
	}
	if len(scheduled) == 0 {
		zap.L().Info("nothing to do")
		return report, nil
	}

	zap.L().Info("starting run",
		zap.String("run_id", runID),
		zap.Int("domains", len(scheduled)),
		zap.Int("concurrency", r.opts.Concurrency),
		zap.String("on_provider_failure", string(r.opts.OnProviderFailure)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	var mu sync.Mutex // guards report.Records and done counter
	done := 0

	for _, domain := range scheduled {
		domain := domain
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, outcomes := r.checkDomain(gctx, domain)

			rec, err := r.persister.Persist(gctx, rec)
			if err != nil {
				return eris.Wrapf(err, "persist %s", domain)
			}

			mu.Lock()
			report.Records = append(report.Records, rec)
			done++
			n := done
			mu.Unlock()

			if r.opts.OnEvent != nil {
				r.opts.OnEvent(Event{Domain: domain, Record: rec, Done: n, Total: len(scheduled)})
			}

			if r.opts.OnProviderFailure == FailAbort {
				for kind, o := range outcomes {
					if o.Terminal() && o.ProviderWide {
						return eris.Errorf("provider %s failed for the whole run: %s", kind, o.Reason)
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, eris.Wrap(err, "pipeline run")
	}

	s := report.Summarize()
	zap.L().Info("run complete",
		zap.Int("total", s.Total),
		zap.Int("available", s.Available),
		zap.Int("indexed", s.Indexed),
		zap.Int("snapshotted", s.Snapshotted),
		zap.Int("all_failed", s.AllFailed),
		zap.Int("screenshots", s.Screenshots),
	)
	return report, nil
}

// checkDomain fans out to the three providers concurrently and merges their
// outcomes. A panic in any provider goroutine becomes a terminal failure on
// that field; the domain still gets its record.
func (r *Runner) checkDomain(ctx context.Context, domain model.Domain) (model.DomainRecord, map[model.ProviderKind]model.Outcome) {
	checkers := r.providers.All()
	outcomes := make(map[model.ProviderKind]model.Outcome, len(checkers))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, c := range checkers {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := safeCheck(ctx, c, domain)
			mu.Lock()
			outcomes[c.Kind()] = out
			mu.Unlock()
		}()
	}
	wg.Wait()

	rec := Merge(domain, outcomes, time.Now().UTC())
	for _, o := range outcomes {
		if !o.OK() {
			zap.L().Debug("provider check failed",
				zap.String("domain", string(domain)),
				zap.String("provider", string(o.Kind)),
				zap.String("status", string(o.Status)),
				zap.String("reason", o.Reason),
			)
		}
	}
	return rec, outcomes
}

// safeCheck runs one provider check, converting a panic into a terminal
// outcome so a single bad response cannot take down the run.
func safeCheck(ctx context.Context, c provider.Checker, domain model.Domain) (out model.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("provider check panicked",
				zap.String("domain", string(domain)),
				zap.String("provider", string(c.Kind())),
				zap.Any("panic", rec),
			)
			out = model.Terminal(c.Kind(), fmt.Sprintf("panic: %v", rec))
		}
	}()
	return c.Check(ctx, domain)
}
