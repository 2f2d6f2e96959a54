// Package goquery implements HTML extraction against the catalog's markup
// using github.com/PuerkitoBio/goquery.
package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	shl "github.com/arnnv/shl-recommendation-system"
)

// Extractor parses catalog listing pages. It implements shl.ListingExtractor.
type Extractor struct{}

var _ shl.ListingExtractor = (*Extractor)(nil)

// NewExtractor returns a listing extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// codePattern matches a bare single-letter test type code in row text. Used
// only when the row carries no key spans.
var codePattern = regexp.MustCompile(`\b([ABCKPS])\b`)

// ExtractListing returns the assessments listed for a section on a single
// catalog page, in document order. It locates the section's table by its
// heading text; when no heading matches but the page clearly belongs to the
// section (its URL carries the section's type parameter), every product
// anchor on the page is harvested instead.
func (e *Extractor) ExtractListing(html, pageURL string, section shl.Section) ([]*shl.Assessment, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, shl.Errorf(shl.EINVALID, "invalid page URL %q: %v", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, shl.Errorf(shl.EINVALID, "failed to parse HTML: %v", err)
	}

	scope := sectionScope(doc, section)
	if scope == nil {
		if !pageMatchesSection(base, section) {
			return nil, nil
		}
		scope = doc.Selection
	}

	seen := make(map[string]bool)
	var items []*shl.Assessment

	scope.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved := resolveItemURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			return
		}
		seen[resolved] = true

		item := shl.NewAssessmentStub(name, resolved)
		harvestRow(sel, item)
		items = append(items, item)
	})

	return items, nil
}

// sectionScope locates the table under the section's heading. Returns nil
// when the heading is absent from the page.
func sectionScope(doc *goquery.Document, section shl.Section) *goquery.Selection {
	heading := strings.ToLower(section.Heading())
	var scope *goquery.Selection
	doc.Find("th, h1, h2, h3, h4").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(sel.Text()), heading) {
			return true
		}
		if table := sel.Closest("table"); table.Length() > 0 {
			scope = table
			return false
		}
		// Heading rendered outside the table; the table follows it.
		if table := sel.NextAllFiltered("table").First(); table.Length() > 0 {
			scope = table
			return false
		}
		if wrapper := sel.Parent().NextAllFiltered("div").First(); wrapper.Length() > 0 {
			scope = wrapper
			return false
		}
		return true
	})
	return scope
}

// pageMatchesSection reports whether the page URL carries the section's type
// parameter, allowing a whole-page scan when the heading markup changed.
func pageMatchesSection(pageURL *url.URL, section shl.Section) bool {
	return pageURL.Query().Get("type") == section.TypeParam()
}

// resolveItemURL resolves href against base and returns it only if it is a
// same-host product detail URL. Fragments are stripped.
func resolveItemURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	if resolved.Host != base.Host {
		return ""
	}
	if !strings.Contains(resolved.Path, shl.ItemPathPattern) {
		return ""
	}
	// The listing page itself lives under the product path.
	if strings.Contains(resolved.Path, "product-catalog") && resolved.RawQuery == "" {
		if strings.TrimRight(resolved.Path, "/") == strings.TrimRight(base.Path, "/") {
			return ""
		}
	}
	if resolved.RawQuery != "" {
		return ""
	}
	return resolved.String()
}

// harvestRow fills in the row-level attributes the listing exposes next to
// the item's anchor: two support glyphs (remote testing first, adaptive/IRT
// second) and the single-letter test type codes.
func harvestRow(anchor *goquery.Selection, item *shl.Assessment) {
	row := anchor.Closest("tr")
	if row.Length() == 0 {
		row = anchor.Closest("div")
	}
	if row.Length() == 0 {
		return
	}

	row.Find("span.catalogue__circle").Each(func(i int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		yes := strings.Contains(class, "-yes")
		switch i {
		case 0:
			if yes {
				item.RemoteTestingSupport = shl.SupportYes
			}
		case 1:
			if yes {
				item.AdaptiveIRTSupport = shl.SupportYes
			}
		}
	})

	keys := row.Find("span.product-catalogue__key")
	if keys.Length() > 0 {
		keys.Each(func(_ int, sel *goquery.Selection) {
			code := strings.TrimSpace(sel.Text())
			if len(code) != 1 {
				return
			}
			if t, ok := shl.TestTypeCodes[code[0]]; ok {
				item.AddTestType(t)
			}
		})
		return
	}

	// Older markup renders the codes as bare letters in the last cell.
	rowText := strings.Replace(row.Text(), anchor.Text(), "", 1)
	for _, match := range codePattern.FindAllString(rowText, -1) {
		if t, ok := shl.TestTypeCodes[match[0]]; ok {
			item.AddTestType(t)
		}
	}
}
