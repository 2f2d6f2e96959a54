package shl

import "context"

// Fetcher retrieves HTML from catalog URLs.
//
// Implementations own the full politeness discipline: identity headers,
// randomized pre-request jitter, per-host pacing, and bounded retry with
// backoff. A non-nil error means retries are exhausted; callers branch on
// the returned error value (see ErrorCode), expected HTTP failure classes
// never panic.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (html string, err error)
}

// Converter renders an HTML fragment as markdown-ish plain text. Used by
// detail enrichment when an assessment's description must be recovered from
// a page section rather than the descriptive meta element.
type Converter interface {
	Convert(html string) (string, error)
}
