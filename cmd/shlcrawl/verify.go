package main

import (
	"fmt"

	shl "github.com/arnnv/shl-recommendation-system"
	"github.com/arnnv/shl-recommendation-system/fs"
	shlhttp "github.com/arnnv/shl-recommendation-system/http"
)

// VerifyCmd validates the dataset's invariants: required fields, the
// support-flag vocabulary, and URL uniqueness. With --sitemap it also
// compares dataset coverage against the site's sitemap.
type VerifyCmd struct {
	Sitemap bool   `help:"Probe the site's sitemap and report catalog items missing from the dataset"`
	BaseURL string `help:"Site root for the sitemap probe" default:"${base_url}"`
}

// Run validates the dataset and reports violations.
func (c *VerifyCmd) Run(deps *Dependencies, cli *CLI) error {
	assessments, err := fs.NewDatasetStore(cli.Dataset).Load(deps.Ctx)
	if err != nil {
		return err
	}

	violations := 0
	seen := shl.NewURLSet()
	for i, a := range assessments {
		if err := a.Validate(); err != nil {
			fmt.Fprintf(deps.Stdout, "record %d: %s\n", i, shl.ErrorMessage(err))
			violations++
			continue
		}
		if !seen.Add(a.URL) {
			fmt.Fprintf(deps.Stdout, "record %d: duplicate URL %s\n", i, a.URL)
			violations++
		}
		if !validSupport(a.RemoteTestingSupport) {
			fmt.Fprintf(deps.Stdout, "record %d: invalid remote_testing_support %q\n", i, a.RemoteTestingSupport)
			violations++
		}
		if !validSupport(a.AdaptiveIRTSupport) {
			fmt.Fprintf(deps.Stdout, "record %d: invalid adaptive_irt_support %q\n", i, a.AdaptiveIRTSupport)
			violations++
		}
		if a.TestTypes == nil {
			fmt.Fprintf(deps.Stdout, "record %d: test_types is null\n", i)
			violations++
		}
	}

	if c.Sitemap {
		missing, err := c.sitemapGap(deps, seen)
		if err != nil {
			deps.Logger.Warn("sitemap probe failed", "err", err)
		} else {
			for _, u := range missing {
				fmt.Fprintf(deps.Stdout, "not in dataset: %s\n", u)
			}
			fmt.Fprintf(deps.Stdout, "sitemap: %d catalog items missing from dataset\n", len(missing))
		}
	}

	if violations > 0 {
		return fmt.Errorf("%d invariant violations in %d records", violations, len(assessments))
	}
	fmt.Fprintf(deps.Stdout, "ok: %d assessments\n", len(assessments))
	return nil
}

// sitemapGap returns catalog item URLs the sitemap advertises that the
// dataset does not contain.
func (c *VerifyCmd) sitemapGap(deps *Dependencies, seen *shl.URLSet) ([]string, error) {
	probe := shlhttp.NewCatalogProbe(nil)
	urls, err := probe.DiscoverItemURLs(deps.Ctx, c.BaseURL)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, u := range urls {
		if !seen.Contains(u) {
			missing = append(missing, u)
		}
	}
	return missing, nil
}

func validSupport(s shl.Support) bool {
	switch s {
	case shl.SupportYes, shl.SupportNo, shl.SupportUnknown:
		return true
	}
	return false
}
