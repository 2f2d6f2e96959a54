package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	shl "github.com/arnnv/shl-recommendation-system"
)

// NextPageURL resolves the URL of the listing page following pageURL. It
// tries a chain of strategies against the page's pagination markup and falls
// back to offset arithmetic when none match. The section's type parameter is
// forced on the result so a next link can never cross sections. Returns ""
// when the resolved URL would not advance past the current page.
func (e *Extractor) NextPageURL(html, pageURL string, section shl.Section) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", shl.Errorf(shl.EINVALID, "invalid page URL %q: %v", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", shl.Errorf(shl.EINVALID, "failed to parse HTML: %v", err)
	}

	for _, strategy := range nextStrategies {
		href, found := strategy(doc)
		if !found {
			continue
		}
		// A disabled or self-referential next control means the listing
		// ended; do not let arithmetic run past it.
		if href == "" {
			return "", nil
		}
		next := resolveNextURL(base, href, section)
		if next == "" {
			return "", nil
		}
		return next, nil
	}

	// No pagination markup at all: synthesize the next offset.
	next, err := section.AdvanceURL(pageURL, 1)
	if err != nil {
		return "", err
	}
	if next == pageURL {
		return "", nil
	}
	return next, nil
}

// JumpAheadURL returns a listing URL pages steps past pageURL, used to break
// out of a revisit loop when the site's next links stop advancing.
func JumpAheadURL(pageURL string, section shl.Section, pages int) (string, error) {
	return section.AdvanceURL(pageURL, pages)
}

// nextStrategies are tried in order; the first one that recognizes the
// page's pagination markup decides. A strategy reports found with an empty
// href when the control exists but is disabled, which terminates pagination.
var nextStrategies = []func(*goquery.Document) (href string, found bool){
	nextByAnchorText,
	nextByClass,
	nextAfterCurrent,
}

// nextByAnchorText finds an anchor whose visible text is "next" (or an arrow
// variant of it).
func nextByAnchorText(doc *goquery.Document) (string, bool) {
	var href string
	var found bool
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		switch {
		case text == "next", strings.HasPrefix(text, "next "), text == "next »", text == "›", text == "»":
		default:
			return true
		}
		found = true
		if !anchorDisabled(sel) {
			href, _ = sel.Attr("href")
		}
		return false
	})
	return href, found
}

// nextByClass finds an anchor whose class marks it as the forward pagination
// control.
func nextByClass(doc *goquery.Document) (string, bool) {
	var href string
	var found bool
	doc.Find(`a[class*="next"], a[class*="arrow"], a[class*="forward"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		found = true
		if anchorDisabled(sel) {
			return false
		}
		href, _ = sel.Attr("href")
		return false
	})
	return href, found
}

// nextAfterCurrent finds the numbered page anchor immediately after the
// active one. No anchor after the active item means the last page.
func nextAfterCurrent(doc *goquery.Document) (string, bool) {
	var href string
	var found bool
	doc.Find(`li.active, li.current, a.active, a.current, [class*="pagination__item--active"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		found = true
		node := sel
		if goquery.NodeName(sel) == "a" {
			node = sel.Parent()
		}
		next := node.Next().Find("a[href]").First()
		if next.Length() > 0 {
			href, _ = next.Attr("href")
		}
		return false
	})
	return href, found
}

// anchorDisabled reports whether a pagination anchor is inert: no usable
// href, or marked disabled on itself or its container.
func anchorDisabled(sel *goquery.Selection) bool {
	href, ok := sel.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" || href == "#" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return true
	}
	class, _ := sel.Attr("class")
	if strings.Contains(class, "disabled") {
		return true
	}
	parentClass, _ := sel.Parent().Attr("class")
	return strings.Contains(parentClass, "disabled")
}

// resolveNextURL resolves href against the current page and forces the
// section's type parameter. Returns "" when the result is the current page
// itself.
func resolveNextURL(base *url.URL, href string, section shl.Section) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	q := resolved.Query()
	q.Set("type", section.TypeParam())
	resolved.RawQuery = q.Encode()

	if sameListingPage(base, resolved, section) {
		return ""
	}
	return resolved.String()
}

// sameListingPage compares two listing URLs with the type parameter
// normalized on both sides.
func sameListingPage(base *url.URL, resolved *url.URL, section shl.Section) bool {
	normalized := *base
	q := normalized.Query()
	q.Set("type", section.TypeParam())
	normalized.RawQuery = q.Encode()
	normalized.Fragment = ""
	return resolved.String() == normalized.String()
}
