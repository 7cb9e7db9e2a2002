package crawler

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/contactsmith/contactsmith/pkg/extract"
)

// CrawlTarget is a normalized URL together with its registrable domain.
type CrawlTarget struct {
	URL    string
	Domain string
}

// Frontier is the FIFO queue of pending crawl targets plus the set of
// normalized URLs already enqueued or completed. FIFO ordering gives
// breadth-first traversal fully determined by discovery order.
//
// All operations are safe for concurrent use.
type Frontier struct {
	mu      sync.Mutex
	domain  string
	pending []CrawlTarget
	seen    map[string]struct{}
}

// NewFrontier creates a frontier scoped to the given registrable domain.
// URLs outside that domain never enter the queue.
func NewFrontier(domain string) *Frontier {
	return &Frontier{
		domain: strings.ToLower(domain),
		seen:   make(map[string]struct{}),
	}
}

// Enqueue normalizes raw and appends it to the queue. It is a no-op for
// URLs already seen, URLs that do not normalize, and URLs outside the
// frontier's domain. Returns true when the URL was accepted.
func (f *Frontier) Enqueue(raw string) bool {
	normalized, ok := extract.ResolveURL(raw, nil)
	if !ok {
		return false
	}
	domain, err := RegistrableDomain(normalized)
	if err != nil || domain != f.domain {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.seen[normalized]; dup {
		return false
	}
	f.seen[normalized] = struct{}{}
	f.pending = append(f.pending, CrawlTarget{URL: normalized, Domain: domain})
	return true
}

// Dequeue pops the oldest pending target, first-discovered-first-served.
func (f *Frontier) Dequeue() (CrawlTarget, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return CrawlTarget{}, false
	}
	target := f.pending[0]
	f.pending = f.pending[1:]
	return target, true
}

// Len returns the number of pending targets.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Seen reports whether the URL has ever been enqueued.
func (f *Frontier) Seen(raw string) bool {
	normalized, ok := extract.ResolveURL(raw, nil)
	if !ok {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, seen := f.seen[normalized]
	return seen
}

// RegistrableDomain derives the eTLD+1 for a normalized URL, so that
// sub.example.com and example.com belong to the same crawl scope.
// IP literals never reach the public suffix list: EffectiveTLDPlusOne
// would truncate a dotted quad to its last two octets instead of
// erroring. They and bare hostnames scope by full authority, port
// included.
func RegistrableDomain(normalized string) (string, error) {
	u, err := url.Parse(normalized)
	if err != nil {
		return "", err
	}
	host := u.Hostname()
	if host == "" {
		return "", errors.New("URL has no host")
	}
	if net.ParseIP(host) != nil {
		return strings.ToLower(u.Host), nil
	}
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain, nil
	}
	return strings.ToLower(u.Host), nil
}
