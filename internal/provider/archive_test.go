package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/pkg/wayback"
)

type fakeWaybackClient struct {
	calls     int
	snapshots func(call int, target string) ([]wayback.Snapshot, error)
	fetch     func(snap wayback.Snapshot) (*wayback.Screenshot, error)
}

func (f *fakeWaybackClient) Snapshots(_ context.Context, target string, _ int) ([]wayback.Snapshot, error) {
	f.calls++
	return f.snapshots(f.calls, target)
}

func (f *fakeWaybackClient) Fetch(_ context.Context, snap wayback.Snapshot) (*wayback.Screenshot, error) {
	if f.fetch == nil {
		return nil, nil
	}
	return f.fetch(snap)
}

func TestArchive_MergesVariantsNewestFirst(t *testing.T) {
	client := &fakeWaybackClient{snapshots: func(_ int, target string) ([]wayback.Snapshot, error) {
		switch target {
		case "http://example.com/":
			return []wayback.Snapshot{
				{Timestamp: "20200101000000", Original: "http://example.com/"},
				{Timestamp: "20230601000000", Original: "http://example.com/"},
			}, nil
		case "https://www.example.com/":
			return []wayback.Snapshot{
				{Timestamp: "20220301000000", Original: "https://www.example.com/"},
				// duplicate of a row already seen
				{Timestamp: "20200101000000", Original: "http://example.com/"},
			}, nil
		default:
			return nil, nil
		}
	}}
	p := NewArchive(client, fastPolicy(), 50)

	out := p.Check(context.Background(), "example.com")

	require.Equal(t, model.OutcomeSuccess, out.Status)
	require.Len(t, out.Snapshots, 3)
	assert.Equal(t, "20230601000000", out.Snapshots[0].Timestamp)
	assert.Equal(t, "20220301000000", out.Snapshots[1].Timestamp)
	assert.Equal(t, "20200101000000", out.Snapshots[2].Timestamp)
	assert.Equal(t, 4, client.calls, "all four URL variants are queried")
}

func TestArchive_NoSnapshotsIsSuccess(t *testing.T) {
	client := &fakeWaybackClient{snapshots: func(int, string) ([]wayback.Snapshot, error) {
		return nil, nil
	}}
	p := NewArchive(client, fastPolicy(), 50)

	out := p.Check(context.Background(), "fresh.example")

	assert.Equal(t, model.OutcomeSuccess, out.Status)
	assert.Empty(t, out.Snapshots)
}

func TestArchive_PartialVariantFailureTolerated(t *testing.T) {
	client := &fakeWaybackClient{snapshots: func(_ int, target string) ([]wayback.Snapshot, error) {
		if target == "http://example.com/" {
			return []wayback.Snapshot{{Timestamp: "20210101000000", Original: target}}, nil
		}
		return nil, &wayback.APIError{StatusCode: 504, Body: "gateway timeout"}
	}}
	p := NewArchive(client, fastPolicy(), 50)

	out := p.Check(context.Background(), "example.com")

	assert.Equal(t, model.OutcomeSuccess, out.Status)
	assert.Len(t, out.Snapshots, 1)
}

func TestArchive_AllVariantsFailing_RetriesThenFails(t *testing.T) {
	client := &fakeWaybackClient{snapshots: func(int, string) ([]wayback.Snapshot, error) {
		return nil, &wayback.APIError{StatusCode: 503, Body: "down"}
	}}
	p := NewArchive(client, fastPolicy(), 50)

	out := p.Check(context.Background(), "example.com")

	assert.Equal(t, model.OutcomeTransient, out.Status)
	assert.Equal(t, 3, out.Attempts)
	// 3 retry rounds × 4 variants.
	assert.Equal(t, 12, client.calls)
}
