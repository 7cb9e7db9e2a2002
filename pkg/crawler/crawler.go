package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/contactsmith/contactsmith/internal/models"
	"github.com/contactsmith/contactsmith/pkg/extract"
	"github.com/contactsmith/contactsmith/pkg/validate"
)

// Options is the immutable per-crawl configuration the scheduler reads.
type Options struct {
	MaxPages       int
	Timeout        time.Duration
	Delay          time.Duration
	Workers        int
	MaxPageBytes   int64
	UserAgent      string
	DefaultRegion  string
	ValidateEmails bool
	ValidatePhones bool
	// RejectPlaceholders drops emails on template domains like example.com.
	RejectPlaceholders bool
	FollowRobots       bool
	// MaxRetries is the number of extra attempts for transient fetch
	// failures, capped at 3. Zero disables retries.
	MaxRetries int
}

// Crawler owns the state of one crawl invocation: the frontier, the contact
// accumulator and the page counters. A Crawler is built per seed and
// discarded after Run returns, so batch crawls never share state.
type Crawler struct {
	opts      Options
	seedURL   string
	seed      *url.URL
	domain    string
	fetcher   Fetcher
	extractor *extract.Extractor
	agg       *Aggregator
	frontier  *Frontier
	robots    *robotstxt.RobotsData
	logger    zerolog.Logger

	mu         sync.Mutex
	cond       *sync.Cond
	dispatched int
	inflight   int
	visited    int
	failed     int
}

// New validates the seed and builds a crawler. A malformed seed is a fatal
// configuration problem surfaced before any network traffic.
func New(seedURL string, opts Options, logger zerolog.Logger) (*Crawler, error) {
	seed, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", seedURL, err)
	}
	if seed.Scheme != "http" && seed.Scheme != "https" {
		return nil, fmt.Errorf("seed URL %q must be absolute http or https", seedURL)
	}
	if seed.Host == "" {
		return nil, fmt.Errorf("seed URL %q has no host", seedURL)
	}

	normalized, ok := extract.ResolveURL(seed.String(), nil)
	if !ok {
		return nil, fmt.Errorf("seed URL %q does not normalize", seedURL)
	}
	domain, err := RegistrableDomain(normalized)
	if err != nil {
		return nil, fmt.Errorf("cannot derive domain from %q: %w", seedURL, err)
	}

	var fetcher Fetcher = NewHTTPFetcher(opts.UserAgent, opts.Timeout, opts.MaxPageBytes)
	if opts.MaxRetries > 0 {
		fetcher = &RetryFetcher{Base: fetcher, Retries: opts.MaxRetries}
	}

	c := &Crawler{
		opts:      opts,
		seedURL:   seedURL,
		seed:      seed,
		domain:    domain,
		fetcher:   fetcher,
		extractor: extract.New(),
		agg:       NewAggregator(),
		frontier:  NewFrontier(domain),
		logger:    logger.With().Str("domain", domain).Logger(),
	}
	c.cond = sync.NewCond(&c.mu)
	return c, nil
}

// Run crawls until cancellation, the page cap, or frontier exhaustion, in
// that priority order. Every path returns a final snapshot; cancellation
// yields a partial report, never an error.
func (c *Crawler) Run(ctx context.Context) *models.CrawlReport {
	c.frontier.Enqueue(c.seed.String())

	if c.opts.FollowRobots {
		c.loadRobots(ctx)
	}

	// wake idle workers so they observe cancellation
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < c.opts.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.worker(ctx, id)
		}(i)
	}
	wg.Wait()

	return c.snapshot(ctx)
}

func (c *Crawler) worker(ctx context.Context, id int) {
	logger := c.logger.With().Int("worker", id).Logger()

	// Dispatch pacing is per worker: each keeps its own limiter, so overall
	// parallelism survives while any single worker spaces its requests.
	var limiter *rate.Limiter
	if c.opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(c.opts.Delay), 1)
	}

	for {
		target, ok := c.next(ctx)
		if !ok {
			return
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				c.finish(false, false)
				return
			}
		}
		visited, failed := c.process(ctx, target, logger)
		c.finish(visited, failed)
	}
}

// next blocks until there is a target to dispatch or the crawl is provably
// over: cancelled, page cap reached, or frontier empty with nothing in
// flight that could still add work.
func (c *Crawler) next(ctx context.Context) (CrawlTarget, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if ctx.Err() != nil {
			return CrawlTarget{}, false
		}
		if c.opts.MaxPages > 0 && c.dispatched >= c.opts.MaxPages {
			return CrawlTarget{}, false
		}
		if target, ok := c.frontier.Dequeue(); ok {
			c.dispatched++
			c.inflight++
			return target, true
		}
		if c.inflight == 0 {
			return CrawlTarget{}, false
		}
		c.cond.Wait()
	}
}

// finish retires one in-flight target and wakes idle workers, which either
// pick up links the finished page discovered or conclude exhaustion.
func (c *Crawler) finish(visited, failed bool) {
	c.mu.Lock()
	if visited {
		c.visited++
	}
	if failed {
		c.failed++
	}
	c.inflight--
	c.cond.Broadcast()
	c.mu.Unlock()
}

// process fetches one target and runs the extraction pipeline. Failures are
// isolated to the page: they are counted, logged and never propagate.
func (c *Crawler) process(ctx context.Context, target CrawlTarget, logger zerolog.Logger) (visited, failed bool) {
	if c.robots != nil && !c.robotsAllowed(target.URL) {
		logger.Debug().Str("url", target.URL).Msg("disallowed by robots.txt")
		return false, false
	}

	result, err := c.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		if fe, ok := err.(*FetchError); ok && fe.Kind == FailNonText {
			// completed fetch, nothing to extract
			logger.Debug().Str("url", target.URL).Msg("skipping non-text content")
			return true, false
		}
		logger.Warn().Err(err).Str("url", target.URL).Msg("page failed")
		return false, true
	}

	base, err := url.Parse(result.URL)
	if err != nil {
		base = c.seed
	}
	page := c.extractor.Page(result.Body, base)

	// Links are enqueued in extraction order within the page, keeping
	// traversal determined by discovery order rather than fetch timing.
	discovered := false
	for _, link := range page.Links {
		if c.frontier.Enqueue(link) {
			discovered = true
		}
	}
	if discovered {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	}

	c.collect(page, target.URL)

	logger.Info().
		Str("url", target.URL).
		Int("links", len(page.Links)).
		Int("email_candidates", len(page.Emails)).
		Int("phone_candidates", len(page.Phones)).
		Msg("crawled")
	return true, false
}

// collect pushes candidates through the validators into the aggregator.
// Rejection is a normal classification outcome, discarded silently.
func (c *Crawler) collect(page extract.PageData, sourceURL string) {
	policy := validate.EmailPolicy{RejectPlaceholders: c.opts.RejectPlaceholders}
	for _, candidate := range page.Emails {
		var value string
		var ok bool
		if c.opts.ValidateEmails {
			value, ok = validate.Email(candidate, policy)
		} else {
			value, ok = validate.LooseEmail(candidate)
		}
		if ok {
			c.agg.Add(models.KindEmail, value, sourceURL)
		}
	}
	for _, candidate := range page.Phones {
		var value string
		var ok bool
		if c.opts.ValidatePhones {
			value, ok = validate.Phone(candidate, c.opts.DefaultRegion)
		} else {
			value, ok = validate.LoosePhone(candidate)
		}
		if ok {
			c.agg.Add(models.KindPhone, value, sourceURL)
		}
	}
}

func (c *Crawler) loadRobots(ctx context.Context) {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", c.seed.Scheme, c.seed.Host)
	result, err := c.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		// unreachable or missing robots.txt permits everything
		return
	}
	data, err := robotstxt.FromBytes(result.Body)
	if err != nil {
		return
	}
	c.robots = data
}

func (c *Crawler) robotsAllowed(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return true
	}
	return c.robots.TestAgent(u.Path, c.opts.UserAgent)
}

// snapshot assembles the final report under the state lock.
func (c *Crawler) snapshot(ctx context.Context) *models.CrawlReport {
	emails, phones := c.agg.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	status := models.StatusCompleted
	switch {
	case ctx.Err() != nil:
		status = models.StatusCancelled
	case c.opts.MaxPages > 0 && c.dispatched >= c.opts.MaxPages && c.frontier.Len() > 0:
		status = models.StatusPageLimit
	}

	return &models.CrawlReport{
		URL:          c.seedURL,
		Emails:       emails,
		Phones:       phones,
		Contacts:     c.agg.Contacts(),
		PagesVisited: c.visited,
		PagesFailed:  c.failed,
		Status:       status,
	}
}
