package pipeline

import "github.com/domainhound/domainhound/internal/model"

// Event reports one completed domain. Done counts records persisted so far
// in this run, Total is the number of domains the run set out to process.
type Event struct {
	Domain model.Domain
	Record model.DomainRecord
	Done   int
	Total  int
}

// EventFunc receives progress events. It is called from worker goroutines,
// one call per completed domain; implementations must be safe for
// concurrent use.
type EventFunc func(Event)
