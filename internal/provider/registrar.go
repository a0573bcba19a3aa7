package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/resilience"
	"github.com/domainhound/domainhound/pkg/internetbs"
)

// Registrar checks registration availability through internet.bs.
type Registrar struct {
	client  internetbs.Client
	gate    *Gate
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewRegistrar wraps an internet.bs client with the given policy.
func NewRegistrar(client internetbs.Client, pol ProviderPolicy) *Registrar {
	return &Registrar{
		client:  client,
		gate:    NewGate(pol.MaxInFlight, pol.RPS, pol.Burst),
		breaker: resilience.NewCircuitBreaker(pol.breakerConfig()),
		retry:   pol.retryConfig(),
	}
}

func (p *Registrar) Kind() model.ProviderKind { return model.ProviderRegistrar }

// Check queries availability for the domain. Available/taken map onto the
// availability enum; an unrecognized registrar status is a success with
// availability unknown, matching the API's own tolerance for TLD variants.
func (p *Registrar) Check(ctx context.Context, domain model.Domain) model.Outcome {
	retry := p.retry
	retry.OnRetry = resilience.RetryLogger(string(p.Kind()), "check")

	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*internetbs.CheckResponse, error) {
		return guarded(ctx, p.gate, p.breaker, func(ctx context.Context) (*internetbs.CheckResponse, error) {
			resp, err := p.client.Check(ctx, string(domain))
			if err != nil {
				return nil, classifyRegistrarError(err)
			}
			if resp.Failure() {
				return nil, classifyRegistrarFailure(resp)
			}
			return resp, nil
		})
	})
	if err != nil {
		return failureOutcome(p.Kind(), err)
	}

	out := model.Success(p.Kind())
	switch {
	case resp.Available():
		out.Availability = model.AvailYes
	case resp.Taken():
		out.Availability = model.AvailNo
	default:
		out.Availability = model.AvailUnknown
	}
	return out
}

func classifyRegistrarError(err error) error {
	var apiErr *internetbs.APIError
	if errors.As(err, &apiErr) {
		switch {
		case resilience.IsTransientHTTPStatus(apiErr.StatusCode):
			return resilience.NewTransientError(err, apiErr.StatusCode)
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return resilience.NewProviderWideError(err, apiErr.StatusCode)
		default:
			return resilience.NewTerminalError(err, apiErr.StatusCode)
		}
	}
	// Network-level errors keep their default transient classification.
	return err
}

// classifyRegistrarFailure maps a status=FAILURE body. Credential problems
// poison every future call; anything else (usually a malformed domain) is
// terminal for this call only.
func classifyRegistrarFailure(resp *internetbs.CheckResponse) error {
	msg := strings.ToLower(resp.Message)
	err := eris.Errorf("internetbs: check failed: %s", resp.Message)
	if strings.Contains(msg, "api key") ||
		strings.Contains(msg, "password") ||
		strings.Contains(msg, "credential") ||
		strings.Contains(msg, "quota") {
		return resilience.NewProviderWideError(err, 0)
	}
	return resilience.NewTerminalError(err, 0)
}
