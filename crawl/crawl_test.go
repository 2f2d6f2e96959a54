package crawl_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	shl "github.com/arnnv/shl-recommendation-system"
	"github.com/arnnv/shl-recommendation-system/crawl"
	"github.com/arnnv/shl-recommendation-system/fs"
	"github.com/arnnv/shl-recommendation-system/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	prePackagedStart = "https://www.shl.com/solutions/products/product-catalog/?type=2"
	individualStart  = "https://www.shl.com/solutions/products/product-catalog/?type=1"
	noResultsHTML    = "<html><body>No matching products were found.</body></html>"
)

// pageSpec drives the mock site: item names listed on a page and the page
// that follows it.
type pageSpec struct {
	names []string
	next  string
}

func itemURL(name string) string {
	return "https://www.shl.com/solutions/products/product-catalog/view/" + name + "/"
}

func stubs(names []string) []*shl.Assessment {
	out := make([]*shl.Assessment, 0, len(names))
	for _, n := range names {
		out = append(out, shl.NewAssessmentStub(n, itemURL(n)))
	}
	return out
}

// fixture wires a crawler against an in-memory site description and
// file-backed stores in a temp dir.
type fixture struct {
	crawler *crawl.Crawler
	dataset *fs.DatasetStore
	states  *fs.StateStore
}

func newFixture(t *testing.T, site map[string]pageSpec) *fixture {
	t.Helper()

	dir := t.TempDir()
	dataset := fs.NewDatasetStore(filepath.Join(dir, "dataset.json"))
	states := fs.NewStateStore(filepath.Join(dir, "state.json"))

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			spec, ok := site[url]
			if !ok {
				return "", shl.Errorf(shl.EUNAVAILABLE, "no such page %s", url)
			}
			if len(spec.names) == 0 {
				return noResultsHTML, nil
			}
			return "page:" + url, nil
		},
	}
	extractor := &mock.ListingExtractor{
		ExtractListingFn: func(html, pageURL string, _ shl.Section) ([]*shl.Assessment, error) {
			return stubs(site[pageURL].names), nil
		},
		NextPageURLFn: func(html, pageURL string, _ shl.Section) (string, error) {
			return site[pageURL].next, nil
		},
	}
	enricher := &mock.DetailEnricher{
		EnrichFn: func(_ context.Context, a *shl.Assessment) error {
			a.Description = "about " + a.Name
			a.Duration = "20 minutes"
			a.DetailsExtracted = true
			a.FetchedAt = time.Now().UTC()
			return nil
		},
	}

	return &fixture{
		crawler: &crawl.Crawler{
			Fetcher:   fetcher,
			Extractor: extractor,
			Enricher:  enricher,
			Dataset:   dataset,
			States:    states,
			MaxPages:  20,
		},
		dataset: dataset,
		states:  states,
	}
}

// twoSectionSite is the baseline: two pre-packaged pages, one exhausted
// individual section.
func twoSectionSite() map[string]pageSpec {
	page2 := prePackagedStart + "&start=12"
	return map[string]pageSpec{
		prePackagedStart: {names: []string{"account-manager", "bank-teller"}, next: page2},
		page2:            {names: []string{"contact-center"}, next: ""},
		individualStart:  {names: nil, next: ""},
	}
}

func TestCrawler_Run_crawls_all_sections(t *testing.T) {
	t.Parallel()

	f := newFixture(t, twoSectionSite())
	ctx := context.Background()

	result, err := f.crawler.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Added)
	assert.Equal(t, 0, result.Updated)
	assert.True(t, result.Completed)
	assert.NotEmpty(t, result.RunID)

	assessments, err := f.dataset.Load(ctx)
	require.NoError(t, err)
	require.Len(t, assessments, 3)
	assert.Equal(t, "account-manager", assessments[0].Name)
	assert.Equal(t, "about account-manager", assessments[0].Description)
	assert.True(t, assessments[0].DetailsExtracted)

	state, err := f.states.Load(ctx)
	require.NoError(t, err)
	assert.True(t, state.Completed)
	for _, sec := range shl.Sections {
		assert.True(t, state.Section(sec).Complete())
	}
}

func TestCrawler_Run_is_idempotent_across_runs(t *testing.T) {
	t.Parallel()

	f := newFixture(t, twoSectionSite())
	ctx := context.Background()

	first, err := f.crawler.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, first.Added)

	second, err := f.crawler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added, "fingerprinted pages are not re-harvested")
	assert.Equal(t, 0, second.Updated)
	assert.True(t, second.Completed)

	assessments, err := f.dataset.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, assessments, 3, "no duplicates after a second run")
}

func TestCrawler_Run_resumes_from_saved_page(t *testing.T) {
	t.Parallel()

	f := newFixture(t, twoSectionSite())
	ctx := context.Background()

	// A previous run stopped before harvesting page 2.
	state := shl.NewCrawlState()
	resume := prePackagedStart + "&start=12"
	state.Section(shl.SectionPrePackaged).LastPageURL = &resume
	state.Section(shl.SectionPrePackaged).PageNumber = 2
	require.NoError(t, f.states.Save(ctx, state))

	result, err := f.crawler.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added, "only the resumed page is harvested")

	assessments, err := f.dataset.Load(ctx)
	require.NoError(t, err)
	require.Len(t, assessments, 1)
	assert.Equal(t, "contact-center", assessments[0].Name)
}

func TestCrawler_Run_merges_known_items_without_refetching_details(t *testing.T) {
	t.Parallel()

	f := newFixture(t, twoSectionSite())
	ctx := context.Background()

	existing := shl.NewAssessmentStub("account-manager", itemURL("account-manager"))
	existing.Description = "already enriched"
	existing.DetailsExtracted = true
	require.NoError(t, f.dataset.Save(ctx, []*shl.Assessment{existing}))

	var enriched atomic.Int64
	f.crawler.Enricher = &mock.DetailEnricher{
		EnrichFn: func(_ context.Context, a *shl.Assessment) error {
			enriched.Add(1)
			a.DetailsExtracted = true
			return nil
		},
	}

	result, err := f.crawler.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, int64(2), enriched.Load(), "known item's detail page is not re-fetched")

	assessments, err := f.dataset.Load(ctx)
	require.NoError(t, err)
	require.Len(t, assessments, 3)
	assert.Equal(t, "already enriched", assessments[0].Description, "merge never clears existing fields")
}

func TestCrawler_Run_no_results_page_completes_section_cleanly(t *testing.T) {
	t.Parallel()

	// The individual section's start page renders the no-results notice;
	// that completes the section cleanly without counting as a miss.
	f := newFixture(t, twoSectionSite())
	ctx := context.Background()

	result, err := f.crawler.Run(ctx)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Zero(t, result.Failed)

	state, err := f.states.Load(ctx)
	require.NoError(t, err)
	assert.True(t, state.Section(shl.SectionIndividual).Complete())
}

func TestCrawler_Run_rate_limited_page_retries_after_backoff(t *testing.T) {
	t.Parallel()

	site := twoSectionSite()
	f := newFixture(t, site)
	ctx := context.Background()

	blockedHTML := "<html><body>Too many requests. Please try again later.</body></html>"
	var attempts atomic.Int64
	f.crawler.Fetcher = &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			if url == prePackagedStart && attempts.Add(1) == 1 {
				return blockedHTML, nil
			}
			spec, ok := site[url]
			if !ok {
				return "", shl.Errorf(shl.EUNAVAILABLE, "no such page %s", url)
			}
			if len(spec.names) == 0 {
				return noResultsHTML, nil
			}
			return "page:" + url, nil
		},
	}
	f.crawler.Extractor = &mock.ListingExtractor{
		ExtractListingFn: func(html, pageURL string, _ shl.Section) ([]*shl.Assessment, error) {
			if html == blockedHTML || html == noResultsHTML {
				return nil, nil
			}
			return stubs(site[pageURL].names), nil
		},
		NextPageURLFn: func(html, pageURL string, _ shl.Section) (string, error) {
			return site[pageURL].next, nil
		},
	}

	var slept []time.Duration
	f.crawler.RateLimitWait = 45 * time.Second
	f.crawler.Sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	result, err := f.crawler.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{45 * time.Second}, slept)
	assert.Equal(t, 3, result.Added, "the blocked page is retried, not skipped")
	assert.True(t, result.Completed)
}

func TestCrawler_Run_abandons_section_after_consecutive_failures(t *testing.T) {
	t.Parallel()

	// Only the individual section exists; every pre-packaged fetch fails.
	f := newFixture(t, map[string]pageSpec{
		individualStart: {names: []string{"opq32"}, next: ""},
	})
	ctx := context.Background()

	result, err := f.crawler.Run(ctx)
	require.NoError(t, err)

	assert.False(t, result.Completed)
	assert.GreaterOrEqual(t, result.Failed, 3)
	assert.Equal(t, 1, result.Added, "the healthy section still completes")

	state, err := f.states.Load(ctx)
	require.NoError(t, err)
	assert.False(t, state.Section(shl.SectionPrePackaged).Complete(), "resumption point survives for the next run")
	assert.True(t, state.Section(shl.SectionIndividual).Complete())
}

func TestCrawler_Run_terminates_when_pagination_is_stuck(t *testing.T) {
	t.Parallel()

	f := newFixture(t, twoSectionSite())
	ctx := context.Background()

	// The next link always points back at the current page.
	f.crawler.Extractor = &mock.ListingExtractor{
		ExtractListingFn: func(_, pageURL string, _ shl.Section) ([]*shl.Assessment, error) {
			return stubs([]string{"looped"}), nil
		},
		NextPageURLFn: func(_, pageURL string, _ shl.Section) (string, error) {
			return pageURL, nil
		},
	}
	f.crawler.MaxPages = 10

	result, err := f.crawler.Run(ctx)
	require.NoError(t, err)

	assert.False(t, result.Completed)
	assert.LessOrEqual(t, result.Pages, 20, "stuck pagination terminates within the bound")

	assessments, err := f.dataset.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, assessments, 1, "revisited pages are not re-harvested")
}

func TestCrawler_Run_saves_partial_dataset_in_batches(t *testing.T) {
	t.Parallel()

	names := make([]string, 25)
	for i := range names {
		names[i] = "item-" + string(rune('a'+i))
	}
	f := newFixture(t, map[string]pageSpec{
		prePackagedStart: {names: names, next: ""},
		individualStart:  {names: nil, next: ""},
	})
	ctx := context.Background()

	var partials atomic.Int64
	inner := f.crawler.Dataset
	f.crawler.Dataset = &mock.DatasetStore{
		LoadFn: inner.Load,
		SaveFn: inner.Save,
		SavePartialFn: func(ctx context.Context, assessments []*shl.Assessment) error {
			partials.Add(1)
			return inner.SavePartial(ctx, assessments)
		},
	}

	result, err := f.crawler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, result.Added)

	// Two in-batch saves (items 10 and 20) plus one per harvested page.
	assert.Equal(t, int64(3), partials.Load())
}

func TestCrawler_Run_keeps_stub_when_enrichment_fails(t *testing.T) {
	t.Parallel()

	f := newFixture(t, twoSectionSite())
	ctx := context.Background()

	f.crawler.Enricher = &mock.DetailEnricher{
		EnrichFn: func(_ context.Context, a *shl.Assessment) error {
			if a.Name == "bank-teller" {
				return shl.Errorf(shl.EUNAVAILABLE, "detail page unreachable")
			}
			a.DetailsExtracted = true
			return nil
		},
	}

	result, err := f.crawler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Added)
	assert.Equal(t, 1, result.Failed)

	assessments, err := f.dataset.Load(ctx)
	require.NoError(t, err)
	require.Len(t, assessments, 3)
	for _, a := range assessments {
		if a.Name == "bank-teller" {
			assert.False(t, a.DetailsExtracted, "failed enrichment leaves the item revisitable")
			assert.Equal(t, []shl.TestType{}, a.TestTypes)
		}
	}
}

func TestCrawler_Run_flushes_on_cancellation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, twoSectionSite())
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel after the first page has been harvested.
	site := twoSectionSite()
	var fetches atomic.Int64
	f.crawler.Fetcher = &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			if fetches.Add(1) == 2 {
				cancel()
				return "", context.Canceled
			}
			if _, ok := site[url]; ok {
				return "page:" + url, nil
			}
			return "", shl.Errorf(shl.EUNAVAILABLE, "no such page %s", url)
		},
	}

	result, err := f.crawler.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, result.Added)
	assert.False(t, result.Completed)

	// The interrupted run still flushed both files.
	assessments, err := f.dataset.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, assessments, 2)

	state, err := f.states.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, state.Completed)
	assert.False(t, state.Section(shl.SectionPrePackaged).Complete(), "interrupted section resumes at the in-flight page")
}
