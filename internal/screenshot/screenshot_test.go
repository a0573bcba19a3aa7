package screenshot

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/resilience"
	"github.com/domainhound/domainhound/pkg/wayback"
)

type fakeWaybackClient struct {
	fetches int
	fetch   func(snap wayback.Snapshot) (*wayback.Screenshot, error)
}

func (f *fakeWaybackClient) Snapshots(context.Context, string, int) ([]wayback.Snapshot, error) {
	return nil, nil
}

func (f *fakeWaybackClient) Fetch(_ context.Context, snap wayback.Snapshot) (*wayback.Screenshot, error) {
	f.fetches++
	return f.fetch(snap)
}

func fastRetry() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = 2
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	cfg.JitterFraction = 0
	return cfg
}

func snaps(timestamps ...string) []model.Snapshot {
	out := make([]model.Snapshot, len(timestamps))
	for i, ts := range timestamps {
		out[i] = model.Snapshot{Timestamp: ts, Original: "http://example.com/"}
	}
	return out
}

func TestDownloader_CapsAtMax(t *testing.T) {
	client := &fakeWaybackClient{fetch: func(wayback.Snapshot) (*wayback.Screenshot, error) {
		return &wayback.Screenshot{Data: []byte("png-bytes"), ContentType: "image/png"}, nil
	}}
	dir := t.TempDir()
	d := NewDownloader(client, dir, 2, WithRateLimit(1000, 1000), WithRetryConfig(fastRetry()))

	refs := d.Download(context.Background(), "example.com",
		snaps("20230601000000", "20220301000000", "20200101000000"))

	require.Len(t, refs, 2)
	assert.Equal(t, 2, client.fetches, "stops fetching once the cap is reached")
	for _, ref := range refs {
		data, err := os.ReadFile(ref.Path)
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))
	}
	assert.Contains(t, refs[0].Path, "example.com")
	assert.Contains(t, refs[0].Path, "20230601000000.png")
}

func TestDownloader_SkipsMissingCaptures(t *testing.T) {
	client := &fakeWaybackClient{fetch: func(snap wayback.Snapshot) (*wayback.Screenshot, error) {
		if snap.Timestamp == "20220301000000" {
			return nil, nil // no capture stored
		}
		return &wayback.Screenshot{Data: []byte("x"), ContentType: "image/jpeg"}, nil
	}}
	d := NewDownloader(client, t.TempDir(), 5, WithRateLimit(1000, 1000), WithRetryConfig(fastRetry()))

	refs := d.Download(context.Background(), "example.com",
		snaps("20230601000000", "20220301000000", "20200101000000"))

	require.Len(t, refs, 2)
	assert.Equal(t, "20230601000000", refs[0].Timestamp)
	assert.Equal(t, "20200101000000", refs[1].Timestamp)
}

func TestDownloader_FailedDownloadIsSkipped(t *testing.T) {
	client := &fakeWaybackClient{fetch: func(snap wayback.Snapshot) (*wayback.Screenshot, error) {
		if snap.Timestamp == "20230601000000" {
			return nil, &wayback.APIError{StatusCode: 500, Body: "boom"}
		}
		return &wayback.Screenshot{Data: []byte("x"), ContentType: "image/png"}, nil
	}}
	d := NewDownloader(client, t.TempDir(), 5, WithRateLimit(1000, 1000), WithRetryConfig(fastRetry()))

	refs := d.Download(context.Background(), "example.com",
		snaps("20230601000000", "20200101000000"))

	require.Len(t, refs, 1)
	assert.Equal(t, "20200101000000", refs[0].Timestamp)
	// The failed snapshot was retried before being given up on.
	assert.Equal(t, 3, client.fetches)
}

func TestDownloader_ZeroMaxDisablesDownloads(t *testing.T) {
	client := &fakeWaybackClient{fetch: func(wayback.Snapshot) (*wayback.Screenshot, error) {
		t.Fatal("no fetch expected")
		return nil, nil
	}}
	d := NewDownloader(client, t.TempDir(), 0)

	refs := d.Download(context.Background(), "example.com", snaps("20230601000000"))

	assert.Nil(t, refs)
	assert.Zero(t, client.fetches)
}
