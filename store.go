package shl

import (
	"context"
	"time"
)

// DatasetStore persists the ordered assessment collection.
//
// Save rewrites the main dataset file atomically; SavePartial mirrors
// in-flight progress to a sidecar file during long runs. Load returns an
// empty collection (not an error) when no dataset exists yet.
type DatasetStore interface {
	Load(ctx context.Context) ([]*Assessment, error)
	Save(ctx context.Context, assessments []*Assessment) error
	SavePartial(ctx context.Context, assessments []*Assessment) error
}

// StateStore persists crawl progress. Load returns a fresh state (not an
// error) when no state file exists yet.
type StateStore interface {
	Load(ctx context.Context) (*CrawlState, error)
	Save(ctx context.Context, state *CrawlState) error
}

// FetchOutcome classifies one page fetch attempt in the fetch log.
type FetchOutcome string

// Fetch outcomes.
const (
	FetchOK          FetchOutcome = "ok"
	FetchFailed      FetchOutcome = "failed"
	FetchRateLimited FetchOutcome = "rate_limited"
	FetchEmpty       FetchOutcome = "empty"
	FetchSkipped     FetchOutcome = "skipped"
)

// FetchRecord is one fetch-log entry. The log is observational: crawl
// correctness never depends on it.
type FetchRecord struct {
	RunID      string
	Section    Section
	URL        string
	PageNumber int
	Outcome    FetchOutcome
	Items      int
	Duration   time.Duration
	FetchedAt  time.Time
}

// FetchSummary aggregates fetch-log entries for one section and outcome.
type FetchSummary struct {
	Section Section
	Outcome FetchOutcome
	Count   int
	Items   int
}

// FetchLog records page fetch attempts for reporting and debugging.
type FetchLog interface {
	Record(ctx context.Context, rec *FetchRecord) error
	Summary(ctx context.Context, runID string) ([]FetchSummary, error)
}

// URLSet tracks canonical assessment URLs that have been processed, giving
// O(1) membership checks during extraction. It guards the dataset's URL
// uniqueness invariant, so it is exact rather than probabilistic.
type URLSet struct {
	m map[string]struct{}
}

// NewURLSet returns a set seeded with the given URLs.
func NewURLSet(urls ...string) *URLSet {
	s := &URLSet{m: make(map[string]struct{}, len(urls))}
	for _, u := range urls {
		s.m[u] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s *URLSet) Contains(url string) bool {
	_, ok := s.m[url]
	return ok
}

// Add inserts a URL. Returns false if it was already present.
func (s *URLSet) Add(url string) bool {
	if _, ok := s.m[url]; ok {
		return false
	}
	s.m[url] = struct{}{}
	return true
}

// Len returns the number of URLs in the set.
func (s *URLSet) Len() int {
	return len(s.m)
}
