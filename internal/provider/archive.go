package provider

import (
	"context"
	"errors"
	"sort"

	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/resilience"
	"github.com/domainhound/domainhound/pkg/wayback"
)

// Archive checks historical snapshots through the Wayback Machine CDX index.
type Archive struct {
	client   wayback.Client
	gate     *Gate
	breaker  *resilience.CircuitBreaker
	retry    resilience.RetryConfig
	cdxLimit int
}

// NewArchive wraps a Wayback client with the given policy. cdxLimit bounds
// how many CDX rows are requested per URL variant.
func NewArchive(client wayback.Client, pol ProviderPolicy, cdxLimit int) *Archive {
	if cdxLimit <= 0 {
		cdxLimit = 50
	}
	return &Archive{
		client:   client,
		gate:     NewGate(pol.MaxInFlight, pol.RPS, pol.Burst),
		breaker:  resilience.NewCircuitBreaker(pol.breakerConfig()),
		retry:    pol.retryConfig(),
		cdxLimit: cdxLimit,
	}
}

func (p *Archive) Kind() model.ProviderKind { return model.ProviderArchive }

// variants returns the URL forms the archive may have captured the domain
// under. Captures of example.com and www.example.com are distinct rows in
// the CDX index.
func variants(domain model.Domain) []string {
	d := string(domain)
	return []string{
		"http://" + d + "/",
		"https://" + d + "/",
		"http://www." + d + "/",
		"https://www." + d + "/",
	}
}

// Check lists snapshot timestamps for the domain, newest first. A domain
// with no captures at all is a success with an empty sequence. The check
// fails only when every URL variant fails.
func (p *Archive) Check(ctx context.Context, domain model.Domain) model.Outcome {
	retry := p.retry
	retry.OnRetry = resilience.RetryLogger(string(p.Kind()), "snapshots")

	snaps, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]model.Snapshot, error) {
		return p.collect(ctx, domain)
	})
	if err != nil {
		return failureOutcome(p.Kind(), err)
	}

	out := model.Success(p.Kind())
	out.Snapshots = snaps
	return out
}

// collect queries all URL variants, deduplicates and sorts newest first.
// Variant errors are tolerated as long as at least one variant answers.
func (p *Archive) collect(ctx context.Context, domain model.Domain) ([]model.Snapshot, error) {
	var (
		all     []model.Snapshot
		lastErr error
		failed  int
	)

	targets := variants(domain)
	for _, target := range targets {
		rows, err := guarded(ctx, p.gate, p.breaker, func(ctx context.Context) ([]wayback.Snapshot, error) {
			rows, err := p.client.Snapshots(ctx, target, p.cdxLimit)
			if err != nil {
				return nil, classifyArchiveError(err)
			}
			return rows, nil
		})
		if err != nil {
			failed++
			lastErr = err
			if ctx.Err() != nil || resilience.IsProviderWide(err) {
				return nil, err
			}
			continue
		}
		for _, r := range rows {
			all = append(all, model.Snapshot{Timestamp: r.Timestamp, Original: r.Original})
		}
	}

	if failed == len(targets) && lastErr != nil {
		return nil, lastErr
	}

	seen := make(map[model.Snapshot]bool, len(all))
	uniq := all[:0]
	for _, s := range all {
		if seen[s] {
			continue
		}
		seen[s] = true
		uniq = append(uniq, s)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].Timestamp > uniq[j].Timestamp })
	return uniq, nil
}

func classifyArchiveError(err error) error {
	var apiErr *wayback.APIError
	if errors.As(err, &apiErr) {
		if resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return resilience.NewTransientError(err, apiErr.StatusCode)
		}
		return resilience.NewTerminalError(err, apiErr.StatusCode)
	}
	return err
}
