package shl

import "context"

// ListingExtractor parses catalog listing pages.
type ListingExtractor interface {
	// ExtractListing returns the assessments listed for a section on a
	// single catalog page, in document order. Row-level attributes that the
	// listing exposes (support glyphs, test type codes) are filled in on
	// the returned stubs.
	ExtractListing(html, pageURL string, section Section) ([]*Assessment, error)

	// NextPageURL resolves the URL of the listing page that follows
	// pageURL. It returns "" when no further page exists.
	NextPageURL(html, pageURL string, section Section) (string, error)
}

// DetailEnricher fills in fields that are only available on an assessment's
// own detail page.
type DetailEnricher interface {
	Enrich(ctx context.Context, a *Assessment) error
}
