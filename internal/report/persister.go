package report

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/domainhound/domainhound/internal/journal"
	"github.com/domainhound/domainhound/internal/model"
	"github.com/domainhound/domainhound/internal/screenshot"
)

// Persister stores completed records: screenshots to disk first, then the
// journal row, then the serialized report files. Ordering matters — the
// journal row is what marks a domain done for resume, so it lands only
// after the screenshots it references exist.
type Persister struct {
	journal journal.Journal
	writer  *Writer
	shots   *screenshot.Downloader
	runID   string
}

// NewPersister wires the journal, file writer and screenshot downloader
// for one run. shots may be nil when downloads are disabled.
func NewPersister(j journal.Journal, w *Writer, shots *screenshot.Downloader, runID string) *Persister {
	return &Persister{journal: j, writer: w, shots: shots, runID: runID}
}

// Persist downloads the record's screenshots, then appends it to the
// journal and both report serializations. The returned record carries the
// screenshot references that actually landed on disk.
func (p *Persister) Persist(ctx context.Context, rec model.DomainRecord) (model.DomainRecord, error) {
	if p.shots != nil && len(rec.Snapshots) > 0 {
		rec.Screenshots = p.shots.Download(ctx, rec.Domain, rec.Snapshots)
		rec.ScreenshotCount = len(rec.Screenshots)
	}

	if err := p.journal.AppendRecord(ctx, p.runID, rec); err != nil {
		return rec, eris.Wrapf(err, "persist: journal %s", rec.Domain)
	}
	if err := p.writer.Append(rec); err != nil {
		return rec, eris.Wrapf(err, "persist: report files %s", rec.Domain)
	}
	return rec, nil
}
