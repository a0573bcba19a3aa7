package model

import "fmt"

// ProviderKind identifies one of the three external services.
type ProviderKind string

const (
	ProviderRegistrar   ProviderKind = "registrar"
	ProviderSearchIndex ProviderKind = "search_index"
	ProviderArchive     ProviderKind = "archive"
)

// Kinds returns all provider kinds in canonical order.
func Kinds() []ProviderKind {
	return []ProviderKind{ProviderRegistrar, ProviderSearchIndex, ProviderArchive}
}

// OutcomeStatus tags the variant of a ProviderOutcome.
type OutcomeStatus string

const (
	OutcomeSuccess       OutcomeStatus = "success"
	OutcomeTransient     OutcomeStatus = "transient_failure"
	OutcomeTerminal      OutcomeStatus = "terminal_failure"
	OutcomeNotApplicable OutcomeStatus = "not_applicable"
)

// Availability is the registrar's verdict for a domain.
type Availability string

const (
	AvailYes     Availability = "available"
	AvailNo      Availability = "taken"
	AvailUnknown Availability = "unknown"
)

// Outcome is the immutable result of one provider check for one domain.
// Exactly one payload field is meaningful, selected by Status and Kind.
// Retries produce fresh Outcomes; the last one observed wins.
type Outcome struct {
	Kind   ProviderKind  `json:"kind"`
	Status OutcomeStatus `json:"status"`

	// Success payloads, by Kind.
	Availability Availability `json:"availability,omitempty"` // registrar
	IndexedPages int          `json:"indexed_pages,omitempty"` // search index
	Snapshots    []Snapshot   `json:"snapshots,omitempty"`     // archive, newest first

	// Failure detail. ProviderWide marks a terminal condition that
	// invalidates the provider for the rest of the run.
	Reason       string `json:"reason,omitempty"`
	Attempts     int    `json:"attempts,omitempty"`
	ProviderWide bool   `json:"provider_wide,omitempty"`
}

// Snapshot is one archived capture of a domain.
type Snapshot struct {
	Timestamp string `json:"timestamp"` // wayback format, e.g. 20210131093000
	Original  string `json:"original"`  // the archived URL
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.Status == OutcomeSuccess }

// Terminal reports whether the outcome is a non-retryable failure.
func (o Outcome) Terminal() bool { return o.Status == OutcomeTerminal }

func (o Outcome) String() string {
	if o.OK() {
		return fmt.Sprintf("%s: ok", o.Kind)
	}
	return fmt.Sprintf("%s: %s (%s)", o.Kind, o.Status, o.Reason)
}

// Success builds a success outcome shell for the given provider.
func Success(kind ProviderKind) Outcome {
	return Outcome{Kind: kind, Status: OutcomeSuccess}
}

// Transient builds a retryable failure outcome.
func Transient(kind ProviderKind, reason string) Outcome {
	return Outcome{Kind: kind, Status: OutcomeTransient, Reason: reason}
}

// Terminal builds a non-retryable failure outcome.
func Terminal(kind ProviderKind, reason string) Outcome {
	return Outcome{Kind: kind, Status: OutcomeTerminal, Reason: reason}
}
