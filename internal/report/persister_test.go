package report

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainhound/domainhound/internal/journal"
	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/screenshot"
	"github.com/domainhound/domainhound/pkg/wayback"
)

// memJournal records appended domain records in memory.
type memJournal struct {
	journal.Journal // panics on unimplemented methods

	mu   sync.Mutex
	recs []model.DomainRecord
	fail error
}

func (m *memJournal) AppendRecord(_ context.Context, _ string, rec model.DomainRecord) error {
	if m.fail != nil {
		return m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

type stubWayback struct{}

func (stubWayback) Snapshots(context.Context, string, int) ([]wayback.Snapshot, error) {
	return nil, nil
}

func (stubWayback) Fetch(_ context.Context, snap wayback.Snapshot) (*wayback.Screenshot, error) {
	return &wayback.Screenshot{Data: []byte("img"), ContentType: "image/png"}, nil
}

func TestPersister_JournalThenFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "run-1", nil)
	require.NoError(t, err)
	j := &memJournal{}
	p := NewPersister(j, w, nil, "run-1")

	rec, err := p.Persist(context.Background(), record("a.com"))
	require.NoError(t, err)
	assert.Equal(t, model.Domain("a.com"), rec.Domain)

	require.Len(t, j.recs, 1)
	rep, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, rep.Records, 1)
}

func TestPersister_DownloadsScreenshotsBeforeJournal(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "run-1", nil)
	require.NoError(t, err)
	j := &memJournal{}
	shots := screenshot.NewDownloader(stubWayback{}, dir, 1, screenshot.WithRateLimit(1000, 1000))
	p := NewPersister(j, w, shots, "run-1")

	in := record("a.com") // has one snapshot
	in.Screenshots = nil
	in.ScreenshotCount = 0

	out, err := p.Persist(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, out.Screenshots, 1)
	assert.Equal(t, 1, out.ScreenshotCount)
	// The journal row carries the screenshot reference too.
	require.Len(t, j.recs, 1)
	assert.Equal(t, out.Screenshots, j.recs[0].Screenshots)
}

func TestPersister_JournalErrorStopsFileWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "run-1", nil)
	require.NoError(t, err)
	j := &memJournal{fail: assert.AnError}
	p := NewPersister(j, w, nil, "run-1")

	_, err = p.Persist(context.Background(), record("a.com"))
	require.Error(t, err)

	_, err = Load(dir)
	assert.Error(t, err, "no report files written when the journal rejects the record")
}
