// Package provider wraps the three external services behind one capability
// interface. Each variant classifies its API's failures into transient and
// terminal outcomes and enforces its own concurrency and rate ceilings,
// independent of the scheduler's global worker budget.
package provider

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/resilience"
)

// Checker is the capability shared by all three providers: check one
// domain, return one outcome. Implementations never return an error —
// every failure is captured in the outcome.
type Checker interface {
	Kind() model.ProviderKind
	Check(ctx context.Context, domain model.Domain) model.Outcome
}

// Set bundles one checker per provider kind.
type Set struct {
	Registrar   Checker
	SearchIndex Checker
	Archive     Checker
}

// All returns the checkers in canonical order, skipping nil entries.
func (s Set) All() []Checker {
	var out []Checker
	for _, c := range []Checker{s.Registrar, s.SearchIndex, s.Archive} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Gate enforces a provider's own ceilings: at most MaxInFlight simultaneous
// calls and at most RPS requests per second. Both are independent of the
// scheduler's global concurrency budget — a worker admitted globally still
// waits here. Every attempt consumes one rate token regardless of outcome.
type Gate struct {
	sem *semaphore.Weighted
	lim *rate.Limiter
}

// NewGate creates a gate with the given in-flight ceiling and rate budget.
func NewGate(maxInFlight int, rps float64, burst int) *Gate {
	if maxInFlight <= 0 {
		maxInFlight = 2
	}
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 1
	}
	return &Gate{
		sem: semaphore.NewWeighted(int64(maxInFlight)),
		lim: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Acquire blocks until both ceilings admit a call, or ctx is done. On
// success the caller must Release.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := g.lim.Wait(ctx); err != nil {
		g.sem.Release(1)
		return err
	}
	return nil
}

// Release frees the in-flight slot taken by Acquire.
func (g *Gate) Release() {
	g.sem.Release(1)
}

// guarded wraps one client attempt with the gate and the provider breaker.
// Retries sit outside: each attempt re-acquires the gate so a slow provider
// ceiling is honored on every try.
func guarded[T any](ctx context.Context, gate *Gate, cb *resilience.CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := gate.Acquire(ctx); err != nil {
		return zero, err
	}
	defer gate.Release()
	return resilience.ExecuteVal(ctx, cb, fn)
}

// failureOutcome converts a classified error into the matching outcome
// variant, annotating exhausted retries with their attempt count.
func failureOutcome(kind model.ProviderKind, err error) model.Outcome {
	o := model.Outcome{Kind: kind, Reason: err.Error()}
	switch {
	case resilience.IsTerminal(err):
		o.Status = model.OutcomeTerminal
		o.ProviderWide = resilience.IsProviderWide(err)
	case resilience.IsTransient(err):
		o.Status = model.OutcomeTransient
	default:
		// Context cancellation and anything unclassified: transient, so a
		// future run may retry the domain.
		o.Status = model.OutcomeTransient
	}
	o.Attempts = resilience.Attempts(err)
	return o
}
