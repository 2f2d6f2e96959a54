package crawl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// PageFingerprint identifies a fully-harvested listing page by its URL and
// the set of item URLs it exposed. Item order is normalized so cosmetic
// reordering does not defeat the skip check; any change in page membership
// produces a new fingerprint.
func PageFingerprint(pageURL string, itemURLs []string) string {
	sorted := append([]string(nil), itemURLs...)
	sort.Strings(sorted)
	h := xxhash.Sum64String(pageURL + "|" + strings.Join(sorted, ","))
	return fmt.Sprintf("%016x", h)
}
