package pipeline

import (
	"time"

	"github.com/domainhound/domainhound/internal/model"
)

// Merge folds the three provider outcomes for one domain into a single
// record. It is a pure function: each field depends only on its own
// provider's outcome, so a registrar failure never masks archive data.
func Merge(domain model.Domain, outcomes map[model.ProviderKind]model.Outcome, now time.Time) model.DomainRecord {
	rec := model.DomainRecord{
		Domain:    domain,
		CheckedAt: now,
	}

	if o, ok := outcomes[model.ProviderRegistrar]; ok {
		rec.RegistrarStatus = fieldStatus(o)
		if o.OK() {
			rec.Availability = o.Availability
		}
	} else {
		rec.RegistrarStatus = model.FieldStatus{Status: model.OutcomeNotApplicable}
	}

	if o, ok := outcomes[model.ProviderSearchIndex]; ok {
		rec.IndexStatus = fieldStatus(o)
		if o.OK() {
			rec.IndexedPages = o.IndexedPages
		}
	} else {
		rec.IndexStatus = model.FieldStatus{Status: model.OutcomeNotApplicable}
	}

	if o, ok := outcomes[model.ProviderArchive]; ok {
		rec.ArchiveStatus = fieldStatus(o)
		if o.OK() {
			rec.Snapshots = o.Snapshots
		}
	} else {
		rec.ArchiveStatus = model.FieldStatus{Status: model.OutcomeNotApplicable}
	}

	return rec
}

func fieldStatus(o model.Outcome) model.FieldStatus {
	fs := model.FieldStatus{Status: o.Status}
	if !o.OK() {
		fs.Error = o.Reason
	}
	return fs
}
