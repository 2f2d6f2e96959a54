package main

import (
	"context"
	"fmt"
	"time"

	shl "github.com/arnnv/shl-recommendation-system"
	"github.com/arnnv/shl-recommendation-system/crawl"
	"github.com/arnnv/shl-recommendation-system/fs"
	"github.com/arnnv/shl-recommendation-system/goquery"
	"github.com/arnnv/shl-recommendation-system/htmltomarkdown"
	shlhttp "github.com/arnnv/shl-recommendation-system/http"
	shlslog "github.com/arnnv/shl-recommendation-system/slog"
	"github.com/arnnv/shl-recommendation-system/sqlite"
)

// CrawlCmd runs a full catalog crawl.
type CrawlCmd struct {
	CatalogURL    string        `help:"Catalog root URL" default:"${catalog_url}"`
	FetchLog      string        `help:"Path to the SQLite fetch log" default:"fetch_log.db"`
	Timeout       time.Duration `help:"Fetch timeout per page" default:"30s"`
	RPS           float64       `help:"Request rate cap in requests per second" default:"1"`
	MaxPages      int           `help:"Page bound per section" default:"100"`
	RateLimitWait time.Duration `help:"Backoff before retrying a throttled page" default:"60s"`
}

// Run wires the crawler and executes it.
func (c *CrawlCmd) Run(deps *Dependencies, cli *CLI) error {
	var fetcher shl.Fetcher = shlhttp.NewFetcher(
		shlhttp.WithTimeout(c.Timeout),
		shlhttp.WithRequestsPerSecond(c.RPS),
	)
	if cli.Verbose {
		fetcher = shlslog.NewLoggingFetcher(fetcher, deps.Logger)
	}

	extractor := goquery.NewExtractor()
	enricher := goquery.NewDetailExtractor(fetcher, htmltomarkdown.NewConverter())

	dataset := shlslog.NewLoggingDatasetStore(fs.NewDatasetStore(cli.Dataset), deps.Logger)
	states := shlslog.NewLoggingStateStore(fs.NewStateStore(cli.State), deps.Logger)

	db := sqlite.NewDB(c.FetchLog)
	if err := db.Open(); err != nil {
		return fmt.Errorf("failed to open fetch log: %w", err)
	}
	defer db.Close()
	fetchLog := sqlite.NewFetchLog(db)

	crawler := &crawl.Crawler{
		Fetcher:       fetcher,
		Extractor:     extractor,
		Enricher:      enricher,
		Dataset:       dataset,
		States:        states,
		Log:           fetchLog,
		Logger:        deps.Logger,
		CatalogURL:    c.CatalogURL,
		MaxPages:      c.MaxPages,
		RateLimitWait: c.RateLimitWait,
		Progress: func(event crawl.ProgressEvent) {
			switch event.Type {
			case crawl.ProgressSectionStarted:
				fmt.Fprintf(deps.Stdout, "crawling %s (%s)\n", event.Section.Heading(), crawl.TruncateURL(event.URL, 60))
			case crawl.ProgressPageDone:
				fmt.Fprintf(deps.Stdout, "  %s: %d items\n", crawl.TruncateURL(event.URL, 60), event.Items)
			case crawl.ProgressPageFailed:
				fmt.Fprintf(deps.Stdout, "  %s: FAILED (%s)\n", crawl.TruncateURL(event.URL, 60), shl.ErrorMessage(event.Err))
			case crawl.ProgressSectionDone:
				fmt.Fprintf(deps.Stdout, "finished %s\n", event.Section.Heading())
			}
		},
	}

	result, runErr := crawler.Run(deps.Ctx)
	if result != nil {
		fmt.Fprintf(deps.Stdout, "\nrun %s: %d pages, %d added, %d updated, %d failed\n",
			result.RunID, result.Pages, result.Added, result.Updated, result.Failed)
		if result.Completed {
			fmt.Fprintln(deps.Stdout, "crawl complete")
		} else {
			fmt.Fprintln(deps.Stdout, "crawl incomplete; rerun to resume")
		}
		printFetchSummary(deps, fetchLog, result.RunID)
	}
	return runErr
}

func printFetchSummary(deps *Dependencies, log shl.FetchLog, runID string) {
	// The run context may already be canceled after an interrupt; the
	// summary still prints.
	summaries, err := log.Summary(context.WithoutCancel(deps.Ctx), runID)
	if err != nil {
		deps.Logger.Warn("fetch summary unavailable", "err", err)
		return
	}
	for _, s := range summaries {
		fmt.Fprintf(deps.Stdout, "  %s/%s: %d pages, %d items\n", s.Section, s.Outcome, s.Count, s.Items)
	}
}
