package provider

import (
	"context"
	"errors"

	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/resilience"
	"github.com/domainhound/domainhound/pkg/googlecse"
)

// SearchIndex checks index presence through the Google Custom Search API.
type SearchIndex struct {
	client  googlecse.Client
	gate    *Gate
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewSearchIndex wraps a Custom Search client with the given policy.
func NewSearchIndex(client googlecse.Client, pol ProviderPolicy) *SearchIndex {
	return &SearchIndex{
		client:  client,
		gate:    NewGate(pol.MaxInFlight, pol.RPS, pol.Burst),
		breaker: resilience.NewCircuitBreaker(pol.breakerConfig()),
		retry:   pol.retryConfig(),
	}
}

func (p *SearchIndex) Kind() model.ProviderKind { return model.ProviderSearchIndex }

// Check returns the indexed-page count estimate for the domain; zero means
// not indexed and is still a success.
func (p *SearchIndex) Check(ctx context.Context, domain model.Domain) model.Outcome {
	retry := p.retry
	retry.OnRetry = resilience.RetryLogger(string(p.Kind()), "site_result_count")

	count, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (int, error) {
		return guarded(ctx, p.gate, p.breaker, func(ctx context.Context) (int, error) {
			n, err := p.client.SiteResultCount(ctx, string(domain))
			if err != nil {
				return 0, classifySearchError(err)
			}
			return n, nil
		})
	})
	if err != nil {
		return failureOutcome(p.Kind(), err)
	}

	out := model.Success(p.Kind())
	out.IndexedPages = count
	return out
}

// classifySearchError maps API failures. A 403 from Custom Search means the
// key or engine ID is bad (or the daily quota is gone) — both provider-wide
// conditions, so the whole run degrades rather than hammering the API.
func classifySearchError(err error) error {
	var apiErr *googlecse.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 403 || apiErr.StatusCode == 401:
			return resilience.NewProviderWideError(err, apiErr.StatusCode)
		case resilience.IsTransientHTTPStatus(apiErr.StatusCode):
			return resilience.NewTransientError(err, apiErr.StatusCode)
		default:
			return resilience.NewTerminalError(err, apiErr.StatusCode)
		}
	}
	return err
}
