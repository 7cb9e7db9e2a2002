package models

// ContactKind tags a validated contact value.
type ContactKind string

const (
	KindEmail ContactKind = "email"
	KindPhone ContactKind = "phone"
)

// Contact is a normalized, validated contact value with provenance.
type Contact struct {
	Kind      ContactKind `json:"kind"`
	Value     string      `json:"value"`
	SourceURL string      `json:"source_url"`
}

// CrawlStatus describes how a crawl terminated.
type CrawlStatus string

const (
	StatusCompleted CrawlStatus = "completed"
	StatusPageLimit CrawlStatus = "page_limit"
	StatusCancelled CrawlStatus = "cancelled"
)

// CrawlReport is the final deduplicated result for one seed URL.
// Emails and Phones keep first-seen order across the crawl; Contacts
// carries the same values with the page each was first found on.
type CrawlReport struct {
	URL          string      `json:"url"`
	Emails       []string    `json:"emails"`
	Phones       []string    `json:"phones"`
	Contacts     []Contact   `json:"contacts,omitempty"`
	PagesVisited int         `json:"pages_visited"`
	PagesFailed  int         `json:"pages_failed"`
	Status       CrawlStatus `json:"status"`
}

// BatchEntry summarizes one seed's outcome inside a batch run.
type BatchEntry struct {
	URL        string `json:"url"`
	Success    bool   `json:"success"`
	EmailCount int    `json:"email_count"`
	PhoneCount int    `json:"phone_count"`
}
