package crawler

import (
	"sync"

	"github.com/contactsmith/contactsmith/internal/models"
)

// Aggregator merges validated contacts across pages, deduplicating by
// normalized value while preserving first-seen order for reproducibility.
// Safe for concurrent use by all workers.
type Aggregator struct {
	mu   sync.Mutex
	seen map[string]struct{}
	list []models.Contact
}

func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]struct{})}
}

// Add records a validated contact. A value found on multiple pages keeps the
// provenance of the page that found it first.
func (a *Aggregator) Add(kind models.ContactKind, value, sourceURL string) {
	key := string(kind) + ":" + value
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.seen[key]; dup {
		return
	}
	a.seen[key] = struct{}{}
	a.list = append(a.list, models.Contact{Kind: kind, Value: value, SourceURL: sourceURL})
}

// Snapshot returns the accumulated unique emails and phones in first-seen
// order. The returned slices are never nil so they serialize as [].
func (a *Aggregator) Snapshot() (emails, phones []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	emails = make([]string, 0, len(a.list))
	phones = make([]string, 0)
	for _, c := range a.list {
		switch c.Kind {
		case models.KindEmail:
			emails = append(emails, c.Value)
		case models.KindPhone:
			phones = append(phones, c.Value)
		}
	}
	return emails, phones
}

// Contacts returns a copy of every accumulated contact with provenance.
func (a *Aggregator) Contacts() []models.Contact {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Contact, len(a.list))
	copy(out, a.list)
	return out
}
