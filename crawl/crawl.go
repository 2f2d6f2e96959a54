// Package crawl provides catalog crawling orchestration. It coordinates
// listing pagination, detail enrichment, durable persistence, and resumption
// across the catalog's sections.
package crawl

import (
	"context"
	"log/slog"
	"time"

	shl "github.com/arnnv/shl-recommendation-system"
	"github.com/google/uuid"
)

// Tunables with their production defaults. Zero values on the Crawler fall
// back to these.
const (
	// DefaultMaxPages bounds pages fetched per section so a pagination bug
	// can never loop forever.
	DefaultMaxPages = 100

	// DefaultBatchSize is the number of newly-processed items between
	// partial dataset saves.
	DefaultBatchSize = 10

	// DefaultMaxConsecutiveMisses is how many consecutive failed or empty
	// pages a section tolerates before it is given up.
	DefaultMaxConsecutiveMisses = 3

	// DefaultMaxRevisits is how many times a single page URL may be visited
	// before pagination is considered stuck.
	DefaultMaxRevisits = 2

	// DefaultRateLimitWait is the extended pause before retrying a page
	// that returned a block or throttle response.
	DefaultRateLimitWait = 60 * time.Second

	// jumpAheadPages is the offset jump used to break out of a stuck
	// pagination loop before abandoning the section.
	jumpAheadPages = 5
)

// Crawler orchestrates a full catalog crawl.
type Crawler struct {
	Fetcher   shl.Fetcher
	Extractor shl.ListingExtractor
	Enricher  shl.DetailEnricher
	Dataset   shl.DatasetStore
	States    shl.StateStore

	// Log is optional. Fetch-log failures are reported but never abort a
	// crawl.
	Log shl.FetchLog

	// Logger is optional; nil falls back to slog.Default().
	Logger *slog.Logger

	// CatalogURL is the catalog root. Empty uses shl.DefaultCatalogURL.
	CatalogURL string

	MaxPages             int
	BatchSize            int
	MaxConsecutiveMisses int
	MaxRevisits          int
	RateLimitWait        time.Duration

	// Sleep is injectable for tests. Nil uses a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	// Progress, if set, receives events as the crawl proceeds.
	Progress ProgressFunc
}

// Result holds the outcome of a crawl run.
type Result struct {
	RunID     string
	Pages     int
	Added     int
	Updated   int
	Failed    int
	Completed bool
}

// ProgressEvent reports progress during a crawl run.
type ProgressEvent struct {
	Type    ProgressType
	Section shl.Section
	URL     string
	Items   int
	Err     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressSectionStarted ProgressType = iota
	ProgressPageDone
	ProgressPageFailed
	ProgressSectionDone
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// dataset is the in-memory working copy of the assessment collection. Order
// is first-discovery order; index and seen guard URL uniqueness.
type dataset struct {
	order []*shl.Assessment
	index map[string]*shl.Assessment
	seen  *shl.URLSet
}

func newDataset(assessments []*shl.Assessment) *dataset {
	ds := &dataset{
		order: assessments,
		index: make(map[string]*shl.Assessment, len(assessments)),
		seen:  shl.NewURLSet(),
	}
	for _, a := range assessments {
		a.Normalize()
		ds.index[a.URL] = a
		ds.seen.Add(a.URL)
	}
	return ds
}

// Run crawls every catalog section, resuming from persisted state. The
// dataset and state are flushed before Run returns, including on context
// cancellation, so an interrupted run loses at most the current page.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	assessments, err := c.Dataset.Load(ctx)
	if err != nil {
		return nil, err
	}
	ds := newDataset(assessments)

	state, err := c.States.Load(ctx)
	if err != nil {
		return nil, err
	}
	state.RunID = uuid.NewString()
	state.LastCrawlTime = time.Now().UTC()
	state.Completed = false

	result := &Result{RunID: state.RunID}

	for _, sec := range shl.Sections {
		if ctx.Err() != nil {
			break
		}
		if err := c.crawlSection(ctx, sec, state, ds, result); err != nil && ctx.Err() == nil {
			c.log().Error("section crawl failed", "section", sec, "err", err)
			result.Failed++
		}
	}

	// Final flush. A cancellation context cannot be used to persist, so the
	// flush runs on a background context.
	flushCtx := context.WithoutCancel(ctx)
	state.RecomputeCompleted()
	result.Completed = state.Completed
	if err := c.Dataset.Save(flushCtx, ds.order); err != nil {
		return result, err
	}
	if err := c.States.Save(flushCtx, state); err != nil {
		return result, err
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

// crawlSection pages through one section until it completes, consecutive
// misses exhaust its tolerance, or the page bound is hit. A panic in extraction is contained
// here so one malformed page cannot take down the whole run.
func (c *Crawler) crawlSection(ctx context.Context, sec shl.Section, state *shl.CrawlState, ds *dataset, result *Result) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = shl.Errorf(shl.EINTERNAL, "section %s panicked: %v", sec, p)
		}
	}()

	st := state.Section(sec)

	current, err := c.resumePoint(sec, st)
	if err != nil {
		return err
	}

	c.emit(ProgressEvent{Type: ProgressSectionStarted, Section: sec, URL: current})
	c.log().Info("section started", "section", sec, "url", current, "resumed", st.LastPageURL != nil)

	pages := 0
	misses := 0
	jumped := false
	visits := make(map[string]int)
	pageNum := st.PageNumber
	if pageNum < 1 {
		pageNum = 1
	}

	for current != "" {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if pages >= c.maxPages() {
			c.log().Warn("page bound reached, abandoning section", "section", sec, "url", current)
			return nil // degraded: resumption point stays set
		}

		visits[current]++
		if visits[current] > c.maxRevisits() {
			if jumped {
				c.log().Warn("pagination stuck, abandoning section", "section", sec, "url", current)
				return nil // degraded
			}
			jumped = true
			next, err := sec.AdvanceURL(current, jumpAheadPages)
			if err != nil {
				return err
			}
			c.log().Warn("pagination stuck, jumping ahead", "section", sec, "from", current, "to", next)
			current = next
			continue
		}

		// Persist the resumption point before fetching so a crash during
		// the fetch resumes at this page, not after it.
		resume := current
		st.LastPageURL = &resume
		st.PageNumber = pageNum
		if err := c.States.Save(ctx, state); err != nil {
			return err
		}

		begin := time.Now()
		html, err := c.Fetcher.Fetch(ctx, current)
		pages++
		result.Pages++
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.record(ctx, state.RunID, sec, current, pageNum, shl.FetchFailed, 0, time.Since(begin))
			c.emit(ProgressEvent{Type: ProgressPageFailed, Section: sec, URL: current, Err: err})
			c.log().Warn("page fetch failed", "section", sec, "url", current, "err", err)
			result.Failed++
			misses++
			if misses >= c.maxMisses() {
				return nil // degraded
			}
			if current, err = sec.AdvanceURL(current, 1); err != nil {
				return err
			}
			pageNum++
			continue
		}

		items, err := c.Extractor.ExtractListing(html, current, sec)
		if err != nil {
			c.record(ctx, state.RunID, sec, current, pageNum, shl.FetchFailed, 0, time.Since(begin))
			c.log().Warn("listing extraction failed", "section", sec, "url", current, "err", err)
			result.Failed++
			misses++
			if misses >= c.maxMisses() {
				return nil // degraded
			}
			if current, err = sec.AdvanceURL(current, 1); err != nil {
				return err
			}
			pageNum++
			continue
		}

		if len(items) == 0 {
			if IsRateLimitPage(html) {
				c.record(ctx, state.RunID, sec, current, pageNum, shl.FetchRateLimited, 0, time.Since(begin))
				c.log().Warn("rate limited, backing off", "section", sec, "url", current, "wait", c.rateLimitWait())
				if err := c.sleep(ctx, c.rateLimitWait()); err != nil {
					return err
				}
				// Retry the same page; the extended wait already paid the
				// politeness cost, so this visit does not count.
				visits[current]--
				continue
			}
			if IsNoResultsPage(html) {
				c.record(ctx, state.RunID, sec, current, pageNum, shl.FetchEmpty, 0, time.Since(begin))
				c.log().Info("section exhausted", "section", sec, "url", current)
				st.LastPageURL = nil
				break
			}
			c.record(ctx, state.RunID, sec, current, pageNum, shl.FetchEmpty, 0, time.Since(begin))
			misses++
			if misses >= c.maxMisses() {
				// Consecutive silent empty pages read as the end of the
				// listing rather than an outage.
				st.LastPageURL = nil
				break
			}
			if current, err = sec.AdvanceURL(current, 1); err != nil {
				return err
			}
			pageNum++
			continue
		}

		misses = 0

		fp := PageFingerprint(current, itemURLs(items))
		if state.HasFingerprint(fp) {
			c.record(ctx, state.RunID, sec, current, pageNum, shl.FetchSkipped, len(items), time.Since(begin))
			c.log().Info("page already harvested, skipping", "section", sec, "url", current)
		} else {
			if err := c.harvest(ctx, sec, items, ds, state, result); err != nil {
				return err
			}
			state.AddFingerprint(fp)
			c.record(ctx, state.RunID, sec, current, pageNum, shl.FetchOK, len(items), time.Since(begin))
			if err := c.Dataset.SavePartial(ctx, ds.order); err != nil {
				return err
			}
			if err := c.States.Save(ctx, state); err != nil {
				return err
			}
		}
		c.emit(ProgressEvent{Type: ProgressPageDone, Section: sec, URL: current, Items: len(items)})

		next, err := c.Extractor.NextPageURL(html, current, sec)
		if err != nil {
			c.log().Warn("next page resolution failed", "section", sec, "url", current, "err", err)
			next = ""
		}
		if next == "" {
			st.LastPageURL = nil
			break
		}
		current = next
		pageNum++
	}

	if err := c.States.Save(ctx, state); err != nil {
		return err
	}
	c.emit(ProgressEvent{Type: ProgressSectionDone, Section: sec})
	c.log().Info("section finished", "section", sec, "complete", st.Complete())
	return nil
}

// harvest upserts one page's items into the dataset, enriching new items
// from their detail pages. Known items absorb listing-row data through the
// monotonic merge; their detail pages are not re-fetched.
func (c *Crawler) harvest(ctx context.Context, sec shl.Section, items []*shl.Assessment, ds *dataset, state *shl.CrawlState, result *Result) error {
	batch := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := item.Validate(); err != nil {
			c.log().Warn("skipping invalid listing item", "section", sec, "url", item.URL, "err", err)
			continue
		}

		if !ds.seen.Add(item.URL) {
			ds.index[item.URL].Merge(item)
			result.Updated++
			continue
		}

		if err := c.Enricher.Enrich(ctx, item); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Keep the listing stub; DetailsExtracted stays false so a
			// later run revisits the detail page.
			c.log().Warn("detail enrichment failed", "section", sec, "url", item.URL, "err", err)
			result.Failed++
		}

		ds.order = append(ds.order, item)
		ds.index[item.URL] = item
		result.Added++

		batch++
		if batch%c.batchSize() == 0 {
			if err := c.Dataset.SavePartial(ctx, ds.order); err != nil {
				return err
			}
			if err := c.States.Save(ctx, state); err != nil {
				return err
			}
		}
	}
	return nil
}

// resumePoint returns the URL a section continues from: its saved resumption
// point when one exists, otherwise the section's start URL. A previously
// completed section starts over, refreshing the dataset idempotently.
func (c *Crawler) resumePoint(sec shl.Section, st *shl.SectionState) (string, error) {
	if st.LastPageURL != nil && *st.LastPageURL != "" {
		return *st.LastPageURL, nil
	}
	return sec.StartURL(c.catalogURL())
}

func itemURLs(items []*shl.Assessment) []string {
	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = item.URL
	}
	return urls
}

// record writes a fetch-log entry, best effort.
func (c *Crawler) record(ctx context.Context, runID string, sec shl.Section, url string, pageNum int, outcome shl.FetchOutcome, items int, dur time.Duration) {
	if c.Log == nil {
		return
	}
	rec := &shl.FetchRecord{
		RunID:      runID,
		Section:    sec,
		URL:        url,
		PageNumber: pageNum,
		Outcome:    outcome,
		Items:      items,
		Duration:   dur,
		FetchedAt:  time.Now().UTC(),
	}
	if err := c.Log.Record(ctx, rec); err != nil {
		c.log().Warn("fetch log write failed", "url", url, "err", err)
	}
}

func (c *Crawler) emit(event ProgressEvent) {
	if c.Progress != nil {
		c.Progress(event)
	}
}

func (c *Crawler) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Crawler) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Crawler) catalogURL() string {
	if c.CatalogURL != "" {
		return c.CatalogURL
	}
	return shl.DefaultCatalogURL
}

func (c *Crawler) maxPages() int {
	if c.MaxPages > 0 {
		return c.MaxPages
	}
	return DefaultMaxPages
}

func (c *Crawler) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}

func (c *Crawler) maxMisses() int {
	if c.MaxConsecutiveMisses > 0 {
		return c.MaxConsecutiveMisses
	}
	return DefaultMaxConsecutiveMisses
}

func (c *Crawler) maxRevisits() int {
	if c.MaxRevisits > 0 {
		return c.MaxRevisits
	}
	return DefaultMaxRevisits
}

func (c *Crawler) rateLimitWait() time.Duration {
	if c.RateLimitWait > 0 {
		return c.RateLimitWait
	}
	return DefaultRateLimitWait
}
