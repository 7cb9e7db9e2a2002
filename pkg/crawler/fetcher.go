package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FailKind classifies a fetch failure.
type FailKind string

const (
	FailTimeout    FailKind = "timeout"
	FailConnection FailKind = "connection"
	FailHTTPStatus FailKind = "http_status"
	FailTooLarge   FailKind = "too_large"
	FailNonText    FailKind = "non_text"
)

// FetchError is a typed fetch failure. Page-level failures never abort a
// crawl; the scheduler counts them and moves on.
type FetchError struct {
	Kind   FailKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PageResult is one fetched page, created by the fetcher and consumed once
// by the extraction pipeline.
type PageResult struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
}

// Fetcher performs a single bounded HTTP GET.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*PageResult, error)
}

// HTTPFetcher fetches pages over HTTP with hard timeout and size bounds.
// It never retries; retry policy belongs to the scheduler.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBytes  int64
}

// NewHTTPFetcher builds a fetcher. timeout bounds the wall-clock duration of
// one fetch, maxBytes bounds how much of a response body is buffered.
func NewHTTPFetcher(userAgent string, timeout time.Duration, maxBytes int64) *HTTPFetcher {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}
	return &HTTPFetcher{
		client:    &http.Client{Transport: transport},
		userAgent: userAgent,
		timeout:   timeout,
		maxBytes:  maxBytes,
	}
}

// Fetch downloads one page. Every failure is a *FetchError; the transfer is
// aborted as soon as the body would exceed the size bound.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*PageResult, error) {
	// An in-flight fetch runs to its own timeout; crawl cancellation is
	// observed between fetches, not by aborting a transfer midway.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: FailConnection, URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classifyTransportError(err), URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Kind: FailHTTPStatus, URL: pageURL, Status: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !textLikeMIME(contentType) {
		return nil, &FetchError{Kind: FailNonText, URL: pageURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{Kind: classifyTransportError(err), URL: pageURL, Err: err}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &FetchError{Kind: FailTooLarge, URL: pageURL}
	}

	return &PageResult{
		URL:         pageURL,
		Status:      resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

func classifyTransportError(err error) FailKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailTimeout
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return FailTimeout
	}
	return FailConnection
}

// textLikeMIME accepts anything worth scanning for contacts: HTML, XML and
// plain text variants. Binary content types skip extraction entirely.
func textLikeMIME(contentType string) bool {
	mime, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	mime = strings.TrimSpace(mime)
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	switch mime {
	case "application/xhtml+xml", "application/xhtml", "application/xml":
		return true
	}
	return false
}
