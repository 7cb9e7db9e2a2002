package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/contactsmith/contactsmith/internal/models"
)

// Version is stamped into the _metadata block of every report.
const Version = "1.0.0"

const timestampLayout = "2006-01-02T15:04:05"

// Result is the JSON document written for a single crawl. Contacts is
// populated only when per-contact source pages were requested.
type Result struct {
	URL      string           `json:"url"`
	Emails   []string         `json:"emails"`
	Phones   []string         `json:"phones"`
	Contacts []models.Contact `json:"contacts,omitempty"`
	Status   string           `json:"status"`
	Metadata Metadata         `json:"_metadata"`
}

// Metadata describes how, when and at what cost a report was produced.
type Metadata struct {
	GeneratedAt   string `json:"generated_at"`
	ParserVersion string `json:"parser_version"`
	PagesVisited  int    `json:"pages_visited"`
	PagesFailed   int    `json:"pages_failed"`
}

// Summary is the JSON document written alongside per-seed files in batch
// mode.
type Summary struct {
	Total      int                 `json:"total"`
	Successful int                 `json:"successful"`
	Failed     int                 `json:"failed"`
	Results    []models.BatchEntry `json:"results"`
	Metadata   Metadata            `json:"_metadata"`
}

// Reporter renders crawl reports as JSON.
type Reporter struct {
	version string
	now     func() time.Time
}

// New creates a Reporter stamping the default version.
func New() *Reporter {
	return &Reporter{version: Version, now: time.Now}
}

func (r *Reporter) metadata() Metadata {
	return Metadata{
		GeneratedAt:   r.now().Format(timestampLayout),
		ParserVersion: r.version,
	}
}

func (r *Reporter) result(report *models.CrawlReport) Result {
	meta := r.metadata()
	meta.PagesVisited = report.PagesVisited
	meta.PagesFailed = report.PagesFailed

	res := Result{
		URL:      report.URL,
		Emails:   report.Emails,
		Phones:   report.Phones,
		Contacts: report.Contacts,
		Status:   string(report.Status),
		Metadata: meta,
	}
	// empty sets serialize as [] rather than null
	if res.Emails == nil {
		res.Emails = []string{}
	}
	if res.Phones == nil {
		res.Phones = []string{}
	}
	return res
}

// WriteJSON writes a single crawl report as indented JSON.
func (r *Reporter) WriteJSON(w io.Writer, report *models.CrawlReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.result(report)); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Save writes a single crawl report to path, creating parent directories.
func (r *Reporter) Save(report *models.CrawlReport, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	return r.WriteJSON(f, report)
}

// SaveBatch writes one report file per crawl plus a summary.json into dir.
// reports is parallel to entries, with nil slots for seeds that never
// crawled; files are numbered by batch input position, so numbering stays
// aligned with the summary even when a seed fails and repeated hosts do
// not clobber each other.
func (r *Reporter) SaveBatch(reports []*models.CrawlReport, entries []models.BatchEntry, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, report := range reports {
		if report == nil {
			continue
		}
		name := fmt.Sprintf("%03d_%s.json", i+1, FileStem(report.URL))
		if err := r.Save(report, filepath.Join(dir, name)); err != nil {
			return err
		}
	}

	summary := Summary{
		Total:    len(entries),
		Results:  entries,
		Metadata: r.metadata(),
	}
	if summary.Results == nil {
		summary.Results = []models.BatchEntry{}
	}
	for _, e := range entries {
		if e.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	f, err := os.Create(filepath.Join(dir, "summary.json"))
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return nil
}

// WriteBatchJSON writes all reports as a single JSON array, used when batch
// mode has no output directory. Nil slots (seeds that never crawled) are
// skipped; the summary is not part of stdout output.
func (r *Reporter) WriteBatchJSON(w io.Writer, reports []*models.CrawlReport) error {
	results := make([]Result, 0, len(reports))
	for _, report := range reports {
		if report == nil {
			continue
		}
		results = append(results, r.result(report))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode reports: %w", err)
	}
	return nil
}

// FileStem derives a filesystem-safe name from a crawl URL, e.g.
// "https://www.example.co.uk/" becomes "www_example_co_uk".
func FileStem(rawURL string) string {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	host = strings.ToLower(host)
	var b strings.Builder
	for _, c := range host {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	stem := strings.Trim(b.String(), "_")
	if stem == "" {
		return "site"
	}
	return stem
}
