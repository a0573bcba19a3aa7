// Package report serializes domain records incrementally. Both the JSON
// and CSV renditions are rewritten after every append via temp-file rename,
// so a crash leaves complete files describing every finished domain.
package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/domainhound/domainhound/internal/model"
)

const (
	JSONFileName = "results.json"
	CSVFileName  = "results.csv"
)

// csvColumns is the ordered CSV header.
var csvColumns = []string{
	"domain",
	"availability",
	"indexed_pages",
	"snapshots",
	"newest_snapshot",
	"screenshots",
	"registrar_status",
	"index_status",
	"archive_status",
	"checked_at",
}

// Writer maintains the results.json and results.csv pair for one run.
type Writer struct {
	mu     sync.Mutex
	dir    string
	report model.Report
}

// NewWriter creates a Writer for the output directory. When resuming, prior
// records loaded from the journal seed the report so the rewritten files
// stay complete.
func NewWriter(dir, runID string, prior []model.DomainRecord) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "report: mkdir %s", dir)
	}
	return &Writer{
		dir: dir,
		report: model.Report{
			RunID:     runID,
			StartedAt: time.Now().UTC(),
			Records:   prior,
		},
	}, nil
}

// Append adds one record and rewrites both serializations. Safe for
// concurrent use; each call leaves both files complete on disk.
func (w *Writer) Append(rec model.DomainRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.report.Records = append(w.report.Records, rec)
	if err := writeJSON(filepath.Join(w.dir, JSONFileName), w.report); err != nil {
		return err
	}
	return writeCSV(filepath.Join(w.dir, CSVFileName), w.report.Records)
}

// Report returns a snapshot of the accumulated report.
func (w *Writer) Report() model.Report {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.report
	out.Records = append([]model.DomainRecord(nil), w.report.Records...)
	return out
}

// WriteJSON writes the full report as indented JSON via temp-file rename.
func WriteJSON(path string, rep model.Report) error {
	return writeJSON(path, rep)
}

// WriteCSV writes the records as CSV via temp-file rename.
func WriteCSV(path string, recs []model.DomainRecord) error {
	return writeCSV(path, recs)
}

// Load reads a previously written results.json.
func Load(dir string) (*model.Report, error) {
	data, err := os.ReadFile(filepath.Join(dir, JSONFileName))
	if err != nil {
		return nil, eris.Wrap(err, "report: read json")
	}
	var rep model.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, eris.Wrap(err, "report: parse json")
	}
	return &rep, nil
}

func writeJSON(path string, rep model.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return eris.Wrap(err, "report: marshal json")
	}
	return atomicWrite(path, data)
}

func writeCSV(path string, recs []model.DomainRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".results-*.csv")
	if err != nil {
		return eris.Wrap(err, "report: create temp csv")
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvColumns); err != nil {
		tmp.Close()
		return eris.Wrap(err, "report: write csv header")
	}
	for _, rec := range recs {
		if err := w.Write(csvRow(rec)); err != nil {
			tmp.Close()
			return eris.Wrapf(err, "report: write csv row %s", rec.Domain)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return eris.Wrap(err, "report: flush csv")
	}
	// CreateTemp opens 0600; the published file should be world-readable.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return eris.Wrap(err, "report: chmod temp csv")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "report: close temp csv")
	}
	return eris.Wrap(os.Rename(tmp.Name(), path), "report: rename csv")
}

func csvRow(rec model.DomainRecord) []string {
	newest := ""
	if len(rec.Snapshots) > 0 {
		newest = rec.Snapshots[0].Timestamp
	}
	return []string{
		string(rec.Domain),
		string(rec.Availability),
		strconv.Itoa(rec.IndexedPages),
		strconv.Itoa(len(rec.Snapshots)),
		newest,
		strconv.Itoa(rec.ScreenshotCount),
		string(rec.RegistrarStatus.Status),
		string(rec.IndexStatus.Status),
		string(rec.ArchiveStatus.Status),
		rec.CheckedAt.UTC().Format(time.RFC3339),
	}
}

// atomicWrite writes data to path through a temp file in the same directory.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".results-*")
	if err != nil {
		return eris.Wrap(err, "report: create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrap(err, "report: write temp file")
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return eris.Wrap(err, "report: chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "report: close temp file")
	}
	return eris.Wrap(os.Rename(tmp.Name(), path), "report: rename")
}
