// Package mock provides function-field mock implementations of the domain
// interfaces for use in tests.
package mock

import (
	"context"

	shl "github.com/arnnv/shl-recommendation-system"
)

var _ shl.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of shl.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

var _ shl.Converter = (*Converter)(nil)

// Converter is a mock implementation of shl.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
