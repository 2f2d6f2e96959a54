package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	shl "github.com/arnnv/shl-recommendation-system"
	"github.com/beevik/etree"
	"github.com/bits-and-blooms/bloom/v3"
	"golang.org/x/sync/errgroup"
)

// Bloom filter sizing for cross-sitemap URL deduplication. The probe is
// observational, so the small false-positive rate (a missing-item report
// off by a URL or two) is an acceptable trade for bounded memory on large
// sitemap indexes.
const (
	probeExpectedURLs      = 100000
	probeFalsePositiveRate = 0.001
)

// probeConcurrency bounds parallel sitemap fetches per index level.
const probeConcurrency = 4

// CatalogProbe discovers assessment detail URLs from the site's sitemaps.
// It backs the post-crawl coverage check: sitemap-listed items missing from
// the dataset indicate pages the pagination walk never reached. The probe
// never mutates the dataset.
type CatalogProbe struct {
	client *http.Client
}

// NewCatalogProbe creates a CatalogProbe with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewCatalogProbe(client *http.Client) *CatalogProbe {
	if client == nil {
		client = http.DefaultClient
	}
	return &CatalogProbe{client: client}
}

// DiscoverItemURLs returns the sorted set of assessment detail URLs listed
// in the site's sitemaps. Sitemap locations come from robots.txt Sitemap
// directives, falling back to /sitemap.xml. Nested sitemap indexes are
// followed; URLs are deduplicated across sitemaps.
func (p *CatalogProbe) DiscoverItemURLs(ctx context.Context, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, shl.Errorf(shl.EINVALID, "invalid base URL %q: %v", baseURL, err)
	}
	base.Path = ""

	queue, err := p.findSitemapURLs(ctx, base)
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		return []string{}, nil
	}

	seenItems := bloom.NewWithEstimates(probeExpectedURLs, probeFalsePositiveRate)
	seenSitemaps := make(map[string]bool)
	var items []string

	// Process the sitemap tree level by level, fetching each level's
	// sitemaps concurrently.
	for len(queue) > 0 {
		batch := queue
		queue = nil

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(probeConcurrency)

		for _, sitemapURL := range batch {
			if seenSitemaps[sitemapURL] {
				continue
			}
			seenSitemaps[sitemapURL] = true

			g.Go(func() error {
				urls, children, err := p.readSitemap(gctx, sitemapURL)
				if err != nil {
					return err
				}

				mu.Lock()
				defer mu.Unlock()
				queue = append(queue, children...)
				for _, u := range urls {
					if !strings.Contains(u, shl.ItemPathPattern) {
						continue
					}
					if seenItems.TestString(u) {
						continue
					}
					seenItems.AddString(u)
					items = append(items, u)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	sort.Strings(items)
	return items, nil
}

// findSitemapURLs discovers sitemap locations from robots.txt Sitemap
// directives, falling back to /sitemap.xml when robots.txt yields nothing.
func (p *CatalogProbe) findSitemapURLs(ctx context.Context, base *url.URL) ([]string, error) {
	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := p.sitemapsFromRobots(ctx, robotsURL.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}

	sitemapURL := base.ResolveReference(&url.URL{Path: "/sitemap.xml"})
	exists, err := p.urlExists(ctx, sitemapURL.String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if exists {
		return []string{sitemapURL.String()}, nil
	}
	return nil, nil
}

// sitemapsFromRobots extracts Sitemap: directives from robots.txt.
func (p *CatalogProbe) sitemapsFromRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := p.get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			u := strings.TrimSpace(line[len("sitemap:"):])
			if u != "" {
				sitemaps = append(sitemaps, u)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return sitemaps, nil
}

// readSitemap fetches one sitemap and returns its page URLs and, for
// sitemap indexes, the child sitemap URLs.
func (p *CatalogProbe) readSitemap(ctx context.Context, sitemapURL string) (urls, children []string, err error) {
	body, err := p.get(ctx, sitemapURL)
	if err != nil {
		return nil, nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, nil, fmt.Errorf("parsing sitemap XML from %s: %w", sitemapURL, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, nil, fmt.Errorf("empty sitemap XML at %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		for _, sm := range root.SelectElements("sitemap") {
			if loc := sm.SelectElement("loc"); loc != nil {
				if u := strings.TrimSpace(loc.Text()); u != "" {
					children = append(children, u)
				}
			}
		}
		return nil, children, nil
	}

	for _, el := range root.SelectElements("url") {
		if loc := el.SelectElement("loc"); loc != nil {
			if u := strings.TrimSpace(loc.Text()); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls, nil, nil
}

func (p *CatalogProbe) get(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range identityHeaders {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}
	return resp.Body, nil
}

func (p *CatalogProbe) urlExists(ctx context.Context, targetURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
