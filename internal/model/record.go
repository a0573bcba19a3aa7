package model

import "time"

// FieldStatus is the per-provider status embedded in a DomainRecord.
type FieldStatus struct {
	Status OutcomeStatus `json:"status"`
	Error  string        `json:"error,omitempty"`
}

// Failed reports whether the field did not reach a success value.
func (f FieldStatus) Failed() bool { return f.Status != OutcomeSuccess }

// ScreenshotRef points at one screenshot retrieved for a domain.
type ScreenshotRef struct {
	Domain    Domain `json:"domain"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

// DomainRecord is the merged result for one domain across all three
// providers. Every input domain yields exactly one record, even when all
// providers failed for it. ScreenshotCount grows monotonically as files
// land on disk; everything else is immutable after the merge.
type DomainRecord struct {
	Domain Domain `json:"domain"`

	Availability Availability `json:"availability,omitempty"`
	IndexedPages int          `json:"indexed_pages"`
	Snapshots    []Snapshot   `json:"snapshots,omitempty"`

	RegistrarStatus FieldStatus `json:"registrar_status"`
	IndexStatus     FieldStatus `json:"index_status"`
	ArchiveStatus   FieldStatus `json:"archive_status"`

	Screenshots     []ScreenshotRef `json:"screenshots,omitempty"`
	ScreenshotCount int             `json:"screenshot_count"`

	CheckedAt time.Time `json:"checked_at"`
}

// Failed reports whether every provider field failed.
func (r DomainRecord) Failed() bool {
	return r.RegistrarStatus.Failed() && r.IndexStatus.Failed() && r.ArchiveStatus.Failed()
}

// Report is the full set of records for a run, keyed by domain in
// completion order. Duplicate input domains append duplicate records.
type Report struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Records   []DomainRecord `json:"records"`
}

// Summary aggregates run-level counts for the completion log line.
type Summary struct {
	Total       int `json:"total"`
	Available   int `json:"available"`
	Indexed     int `json:"indexed"`
	Snapshotted int `json:"snapshotted"`
	AllFailed   int `json:"all_failed"`
	Screenshots int `json:"screenshots"`
}

// Summarize computes run-level counts over the report's records.
func (rep Report) Summarize() Summary {
	s := Summary{Total: len(rep.Records)}
	for _, r := range rep.Records {
		if r.Availability == AvailYes {
			s.Available++
		}
		if !r.IndexStatus.Failed() && r.IndexedPages > 0 {
			s.Indexed++
		}
		if len(r.Snapshots) > 0 {
			s.Snapshotted++
		}
		if r.Failed() {
			s.AllFailed++
		}
		s.Screenshots += r.ScreenshotCount
	}
	return s
}
