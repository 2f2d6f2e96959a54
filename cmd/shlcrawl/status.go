package main

import (
	"fmt"

	shl "github.com/arnnv/shl-recommendation-system"
	"github.com/arnnv/shl-recommendation-system/fs"
	"github.com/arnnv/shl-recommendation-system/sqlite"
)

// StatusCmd reports crawl progress from the saved state and dataset.
type StatusCmd struct {
	FetchLog string `help:"Path to the SQLite fetch log" default:"fetch_log.db"`
}

// Run prints the current crawl status.
func (c *StatusCmd) Run(deps *Dependencies, cli *CLI) error {
	state, err := fs.NewStateStore(cli.State).Load(deps.Ctx)
	if err != nil {
		return err
	}
	assessments, err := fs.NewDatasetStore(cli.Dataset).Load(deps.Ctx)
	if err != nil {
		return err
	}

	enriched := 0
	for _, a := range assessments {
		if a.DetailsExtracted {
			enriched++
		}
	}

	fmt.Fprintf(deps.Stdout, "dataset: %d assessments (%d enriched)\n", len(assessments), enriched)
	if state.RunID == "" {
		fmt.Fprintln(deps.Stdout, "no crawl has run yet")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "last run: %s at %s\n", state.RunID, state.LastCrawlTime.Format("2006-01-02 15:04:05 MST"))
	for _, sec := range shl.Sections {
		st := state.Section(sec)
		if st.Complete() {
			fmt.Fprintf(deps.Stdout, "  %s: complete\n", sec)
		} else {
			fmt.Fprintf(deps.Stdout, "  %s: resumes at page %d (%s)\n", sec, st.PageNumber, *st.LastPageURL)
		}
	}
	if state.Completed {
		fmt.Fprintln(deps.Stdout, "crawl complete")
	} else {
		fmt.Fprintln(deps.Stdout, "crawl incomplete")
	}

	db := sqlite.NewDB(c.FetchLog)
	if err := db.Open(); err != nil {
		// The fetch log is observational; status still works without it.
		deps.Logger.Warn("fetch log unavailable", "path", c.FetchLog, "err", err)
		return nil
	}
	defer db.Close()
	printFetchSummary(deps, sqlite.NewFetchLog(db), state.RunID)
	return nil
}
