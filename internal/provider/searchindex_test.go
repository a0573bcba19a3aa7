package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/pkg/googlecse"
)

type fakeSearchClient struct {
	calls int
	fn    func(call int, domain string) (int, error)
}

func (f *fakeSearchClient) SiteResultCount(_ context.Context, domain string) (int, error) {
	f.calls++
	return f.fn(f.calls, domain)
}

func TestSearchIndex_IndexedCount(t *testing.T) {
	client := &fakeSearchClient{fn: func(_ int, domain string) (int, error) {
		assert.Equal(t, "example.com", domain)
		return 12, nil
	}}
	p := NewSearchIndex(client, fastPolicy())

	out := p.Check(context.Background(), "example.com")

	assert.Equal(t, model.OutcomeSuccess, out.Status)
	assert.Equal(t, 12, out.IndexedPages)
}

func TestSearchIndex_ZeroIsSuccess(t *testing.T) {
	client := &fakeSearchClient{fn: func(int, string) (int, error) {
		return 0, nil
	}}
	p := NewSearchIndex(client, fastPolicy())

	out := p.Check(context.Background(), "unindexed.example")

	assert.Equal(t, model.OutcomeSuccess, out.Status)
	assert.Zero(t, out.IndexedPages)
}

func TestSearchIndex_BadKeyIsProviderWide(t *testing.T) {
	client := &fakeSearchClient{fn: func(int, string) (int, error) {
		return 0, &googlecse.APIError{StatusCode: 403, Body: "API key not valid"}
	}}
	p := NewSearchIndex(client, fastPolicy())

	out := p.Check(context.Background(), "example.com")

	assert.Equal(t, model.OutcomeTerminal, out.Status)
	assert.True(t, out.ProviderWide)
	assert.Equal(t, 1, client.calls, "no retry on a bad key")

	// Subsequent domains degrade without network calls.
	out2 := p.Check(context.Background(), "other.com")
	assert.Equal(t, model.OutcomeTerminal, out2.Status)
	assert.Equal(t, 1, client.calls)
}

func TestSearchIndex_RateLimitedIsTransient(t *testing.T) {
	client := &fakeSearchClient{fn: func(call int, _ string) (int, error) {
		if call < 3 {
			return 0, &googlecse.APIError{StatusCode: 429, Body: "rate limit"}
		}
		return 7, nil
	}}
	p := NewSearchIndex(client, fastPolicy())

	out := p.Check(context.Background(), "example.com")

	assert.Equal(t, model.OutcomeSuccess, out.Status)
	assert.Equal(t, 7, out.IndexedPages)
	assert.Equal(t, 3, client.calls)
}
