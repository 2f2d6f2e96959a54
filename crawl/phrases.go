package crawl

import "strings"

// Phrase tables for classifying listing pages that yielded zero items. Kept
// as data so the vocabulary is independently testable and easy to extend
// when the site's copy changes.
var (
	rateLimitPhrases = []string{
		"rate limit",
		"too many requests",
		"access denied",
		"temporarily blocked",
		"captcha",
	}

	noResultsPhrases = []string{
		"no matching products",
		"no results",
		"end of results",
		"no more products",
	}
)

// IsRateLimitPage reports whether a zero-item page looks like a block or
// throttle response rather than an empty listing.
func IsRateLimitPage(html string) bool {
	return containsAny(strings.ToLower(html), rateLimitPhrases)
}

// IsNoResultsPage reports whether a zero-item page explicitly announces the
// end of the listing.
func IsNoResultsPage(html string) bool {
	return containsAny(strings.ToLower(html), noResultsPhrases)
}

func containsAny(lowered string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
