package mock

import (
	"context"

	shl "github.com/arnnv/shl-recommendation-system"
)

var _ shl.ListingExtractor = (*ListingExtractor)(nil)

// ListingExtractor is a mock implementation of shl.ListingExtractor.
type ListingExtractor struct {
	ExtractListingFn func(html, pageURL string, section shl.Section) ([]*shl.Assessment, error)
	NextPageURLFn    func(html, pageURL string, section shl.Section) (string, error)
}

func (e *ListingExtractor) ExtractListing(html, pageURL string, section shl.Section) ([]*shl.Assessment, error) {
	return e.ExtractListingFn(html, pageURL, section)
}

func (e *ListingExtractor) NextPageURL(html, pageURL string, section shl.Section) (string, error) {
	return e.NextPageURLFn(html, pageURL, section)
}

var _ shl.DetailEnricher = (*DetailEnricher)(nil)

// DetailEnricher is a mock implementation of shl.DetailEnricher.
type DetailEnricher struct {
	EnrichFn func(ctx context.Context, a *shl.Assessment) error
}

func (e *DetailEnricher) Enrich(ctx context.Context, a *shl.Assessment) error {
	return e.EnrichFn(ctx, a)
}
