package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactsmith/contactsmith/internal/models"
)

func fixedReporter() *Reporter {
	return &Reporter{
		version: Version,
		now:     func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) },
	}
}

func TestWriteJSON(t *testing.T) {
	report := &models.CrawlReport{
		URL:          "https://example.com",
		Emails:       []string{"a@b.com"},
		Phones:       []string{"+79991234567"},
		PagesVisited: 2,
		PagesFailed:  0,
		Status:       models.StatusCompleted,
	}

	var buf bytes.Buffer
	require.NoError(t, fixedReporter().WriteJSON(&buf, report))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "https://example.com", got["url"])
	assert.Equal(t, []any{"a@b.com"}, got["emails"])
	assert.Equal(t, []any{"+79991234567"}, got["phones"])
	assert.Equal(t, "completed", got["status"])

	meta, ok := got["_metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2024-03-15T10:30:00", meta["generated_at"])
	assert.Equal(t, Version, meta["parser_version"])
	assert.Equal(t, float64(2), meta["pages_visited"])
	assert.Equal(t, float64(0), meta["pages_failed"])
}

func TestWriteJSONEmptyContactsAreArrays(t *testing.T) {
	report := &models.CrawlReport{
		URL:    "https://example.com",
		Status: models.StatusCompleted,
	}

	var buf bytes.Buffer
	require.NoError(t, fixedReporter().WriteJSON(&buf, report))

	out := buf.String()
	assert.Contains(t, out, `"emails": []`)
	assert.Contains(t, out, `"phones": []`)
	assert.NotContains(t, out, "null")
}

func TestSaveCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "report.json")

	report := &models.CrawlReport{URL: "https://example.com", Status: models.StatusCompleted}
	require.NoError(t, fixedReporter().Save(report, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Result
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "https://example.com", got.URL)
}

func TestSaveBatch(t *testing.T) {
	dir := t.TempDir()

	// the middle seed failed validation: nil report, entry only
	reports := []*models.CrawlReport{
		{URL: "https://example.com", Emails: []string{"a@b.com"}, PagesVisited: 3, Status: models.StatusCompleted},
		nil,
		{URL: "https://other.org", PagesVisited: 1, Status: models.StatusCompleted},
	}
	entries := []models.BatchEntry{
		{URL: "https://example.com", Success: true, EmailCount: 1},
		{URL: "https://broken.invalid"},
		{URL: "https://other.org", Success: true},
	}

	require.NoError(t, fixedReporter().SaveBatch(reports, entries, dir))

	first, err := os.ReadFile(filepath.Join(dir, "001_example_com.json"))
	require.NoError(t, err)
	var got Result
	require.NoError(t, json.Unmarshal(first, &got))
	assert.Equal(t, []string{"a@b.com"}, got.Emails)

	// file numbers follow batch input position across the failed seed
	_, err = os.Stat(filepath.Join(dir, "003_other_org.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "002_broken_invalid.json"))
	assert.True(t, os.IsNotExist(err))

	sumData, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)
	var summary Summary
	require.NoError(t, json.Unmarshal(sumData, &summary))
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, summary.Results, 3)
	assert.Equal(t, "https://broken.invalid", summary.Results[1].URL)
}

func TestWriteJSONContactSources(t *testing.T) {
	report := &models.CrawlReport{
		URL:    "https://example.com",
		Emails: []string{"a@b.com"},
		Contacts: []models.Contact{
			{Kind: models.KindEmail, Value: "a@b.com", SourceURL: "https://example.com/contact"},
		},
		Status: models.StatusCompleted,
	}

	var buf bytes.Buffer
	require.NoError(t, fixedReporter().WriteJSON(&buf, report))

	var got Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Contacts, 1)
	assert.Equal(t, "https://example.com/contact", got.Contacts[0].SourceURL)

	// without provenance the section is absent entirely
	report.Contacts = nil
	buf.Reset()
	require.NoError(t, fixedReporter().WriteJSON(&buf, report))
	assert.NotContains(t, buf.String(), `"contacts"`)
}

func TestWriteBatchJSON(t *testing.T) {
	reports := []*models.CrawlReport{
		{URL: "https://example.com", Status: models.StatusCompleted},
		nil,
		{URL: "https://other.org", Status: models.StatusCancelled},
	}

	var buf bytes.Buffer
	require.NoError(t, fixedReporter().WriteBatchJSON(&buf, reports))

	var got []Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "https://example.com", got[0].URL)
	assert.Equal(t, "cancelled", got[1].Status)
}

func TestFileStem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.co.uk/contact", "www_example_co_uk"},
		{"http://127.0.0.1:8080", "127_0_0_1"},
		{"https://EXAMPLE.com", "example_com"},
		{"not a url", "not_a_url"},
		{"", "site"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileStem(tt.in), tt.in)
	}
}
