package goquery

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	shl "github.com/arnnv/shl-recommendation-system"
)

// DetailExtractor fetches an assessment's detail page and fills in the
// fields the listing cannot provide. It implements shl.DetailEnricher.
type DetailExtractor struct {
	fetcher   shl.Fetcher
	converter shl.Converter
	now       func() time.Time
}

var _ shl.DetailEnricher = (*DetailExtractor)(nil)

// NewDetailExtractor returns a detail enricher. converter may be nil, in
// which case the description fallback uses the section's plain text.
func NewDetailExtractor(fetcher shl.Fetcher, converter shl.Converter) *DetailExtractor {
	return &DetailExtractor{
		fetcher:   fetcher,
		converter: converter,
		now:       time.Now,
	}
}

// Duration patterns in priority order. Each pattern renders a normalized
// value from its capture groups, so qualifiers like "approximately" never
// leak into the stored duration.
var durationPatterns = []struct {
	re     *regexp.Regexp
	render func(m []string) string
}{
	{
		re:     regexp.MustCompile(`(?i)\b(\d+)\s*(?:-|–|to)\s*(\d+)\s*minutes?\b`),
		render: func(m []string) string { return m[1] + "-" + m[2] + " minutes" },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(?:approximately|approx\.?|about|around)\s*(\d+)\s*minutes?\b`),
		render: func(m []string) string { return m[1] + " minutes" },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(\d+)\s*minutes?\b`),
		render: func(m []string) string { return m[1] + " minutes" },
	},
	{
		re:     regexp.MustCompile(`(?i)completion\s+time[^.\n]{0,80}`),
		render: func(m []string) string { return m[0] },
	},
}

// affirmative matches the positive vocabulary of labeled yes/no sections.
var affirmative = regexp.MustCompile(`(?i)\byes\b|\bavailable\b|\benabled\b|\btrue\b`)

// Capability keyword tables. A match anywhere in the page escalates the
// corresponding flag; labeled sections are consulted first.
var (
	remoteKeywords   = []string{"remote proctoring available", "remotely proctored", "online invigilation"}
	adaptiveKeywords = []string{"computer adaptive", "item response theory", "adaptive test"}
)

// Enrich fetches the assessment's detail page and merges what it finds into
// a. Fetch errors are returned unwrapped so the caller can classify them;
// parse results are merged monotonically so enrichment never clears
// listing-derived fields.
func (e *DetailExtractor) Enrich(ctx context.Context, a *shl.Assessment) error {
	html, err := e.fetcher.Fetch(ctx, a.URL)
	if err != nil {
		return err
	}

	fresh, err := e.extract(html)
	if err != nil {
		return err
	}
	fresh.FetchedAt = e.now().UTC()
	fresh.DetailsExtracted = true
	a.Merge(fresh)
	return nil
}

func (e *DetailExtractor) extract(html string) (*shl.Assessment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, shl.Errorf(shl.EINVALID, "failed to parse detail page: %v", err)
	}

	fresh := &shl.Assessment{
		RemoteTestingSupport: shl.SupportNo,
		AdaptiveIRTSupport:   shl.SupportNo,
		TestTypes:            []shl.TestType{},
	}

	fresh.Description = e.extractDescription(doc)

	pageText := strings.ToLower(doc.Text())
	fresh.Duration = extractDuration(doc, pageText)

	if capabilitySupported(doc, pageText, "remote testing", remoteKeywords) {
		fresh.RemoteTestingSupport = shl.SupportYes
	}
	if capabilitySupported(doc, pageText, "adaptive", adaptiveKeywords) {
		fresh.AdaptiveIRTSupport = shl.SupportYes
	}

	extractTestTypes(doc, pageText, fresh)

	return fresh, nil
}

// extractDescription prefers the page's descriptive meta element and falls
// back to the content following a "Description" heading.
func (e *DetailExtractor) extractDescription(doc *goquery.Document) string {
	if meta, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		if desc := strings.TrimSpace(meta); desc != "" {
			return desc
		}
	}

	section := labeledSection(doc, "description")
	if section == nil {
		return ""
	}
	if e.converter != nil {
		if inner, err := goquery.OuterHtml(section); err == nil {
			if converted, err := e.converter.Convert(inner); err == nil {
				if desc := strings.TrimSpace(converted); desc != "" {
					return desc
				}
			}
		}
	}
	return strings.TrimSpace(section.Text())
}

// labeledSection finds the sibling content that follows a heading containing
// label. SHL detail pages render each attribute as a heading followed by a
// paragraph block.
func labeledSection(doc *goquery.Document, label string) *goquery.Selection {
	var section *goquery.Selection
	doc.Find("h1, h2, h3, h4, h5, dt, strong").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(sel.Text()), label) {
			return true
		}
		next := sel.Next()
		if next.Length() == 0 {
			next = sel.Parent().Next()
		}
		if next.Length() == 0 {
			return true
		}
		section = next
		return false
	})
	return section
}

// extractDuration tries every duration pattern against the length-labeled
// section before consulting the whole page, so a match near the label always
// beats a stray minute count elsewhere. Within a scope the patterns run in
// priority order, so a range beats a bare minute count.
func extractDuration(doc *goquery.Document, pageText string) string {
	scopes := make([]string, 0, 2)
	if section := labeledSection(doc, "assessment length"); section != nil {
		scopes = append(scopes, strings.ToLower(section.Text()))
	} else if section := labeledSection(doc, "duration"); section != nil {
		scopes = append(scopes, strings.ToLower(section.Text()))
	}
	scopes = append(scopes, pageText)

	for _, scope := range scopes {
		for _, pattern := range durationPatterns {
			if m := pattern.re.FindStringSubmatch(scope); m != nil {
				return strings.TrimSpace(pattern.render(m))
			}
		}
	}
	return ""
}

// capabilitySupported checks a labeled yes/no section first, then any plain
// text element carrying the label inline ("Remote Testing: Yes"), then the
// keyword table. Matches only ever escalate.
func capabilitySupported(doc *goquery.Document, pageText, label string, keywords []string) bool {
	if section := labeledSection(doc, label); section != nil {
		if affirmative.MatchString(section.Text()) {
			return true
		}
	}
	if labeledAffirmative(doc, label) {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(pageText, kw) {
			return true
		}
	}
	return false
}

// labeledAffirmative finds text-bearing elements that mention the label in
// running prose rather than as a heading, and checks the same element's text
// for an affirmative.
func labeledAffirmative(doc *goquery.Document, label string) bool {
	found := false
	doc.Find("p, li, td, dd, span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.ToLower(sel.Text())
		if !strings.Contains(text, label) {
			return true
		}
		if affirmative.MatchString(text) {
			found = true
			return false
		}
		return true
	})
	return found
}

// extractTestTypes harvests type codes from the detail page's key spans and,
// when none are present, falls back to the keyword table ordered by first
// appearance in the page text.
func extractTestTypes(doc *goquery.Document, pageText string, fresh *shl.Assessment) {
	keys := doc.Find("span.product-catalogue__key")
	if keys.Length() > 0 {
		keys.Each(func(_ int, sel *goquery.Selection) {
			code := strings.TrimSpace(sel.Text())
			if len(code) != 1 {
				return
			}
			if t, ok := shl.TestTypeCodes[code[0]]; ok {
				fresh.AddTestType(t)
			}
		})
		return
	}

	type hit struct {
		pos int
		t   shl.TestType
	}
	var hits []hit
	for _, kw := range shl.TestTypeKeywords {
		pos := strings.Index(pageText, kw.Keyword)
		if pos < 0 {
			continue
		}
		hits = append(hits, hit{pos, kw.Type})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	for _, h := range hits {
		fresh.AddTestType(h.t)
	}
}
