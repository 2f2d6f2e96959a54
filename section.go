package shl

import (
	"net/url"
	"strconv"
)

// Section identifies one of the two top-level catalog partitions. The
// catalog distinguishes them with a "type" query parameter.
type Section string

// Catalog sections, in the order they are crawled.
const (
	SectionPrePackaged Section = "pre-packaged"
	SectionIndividual  Section = "individual"
)

// Sections lists all catalog sections in crawl order. Pre-packaged job
// solutions are always crawled to completion before individual test
// solutions begin.
var Sections = []Section{SectionPrePackaged, SectionIndividual}

// TypeParam returns the value of the catalog's "type" query parameter for
// the section.
func (s Section) TypeParam() string {
	switch s {
	case SectionPrePackaged:
		return "2"
	case SectionIndividual:
		return "1"
	}
	return ""
}

// Heading returns the section's labeled heading as rendered on listing
// pages. Link extraction locates the section container by this text.
func (s Section) Heading() string {
	switch s {
	case SectionPrePackaged:
		return "Pre-packaged Job Solutions"
	case SectionIndividual:
		return "Individual Test Solutions"
	}
	return ""
}

// Validate returns an error if the section is not a known catalog section.
func (s Section) Validate() error {
	switch s {
	case SectionPrePackaged, SectionIndividual:
		return nil
	}
	return Errorf(EINVALID, "unknown catalog section %q", string(s))
}

// PageStep is the number of items per listing page. Pagination offsets
// advance in multiples of it.
const PageStep = 12

// AdvanceURL returns the listing page URL pages steps ahead of pageURL by
// adjusting the "start" offset parameter. A missing offset is treated as
// zero. The section's type parameter is forced on the result.
func (s Section) AdvanceURL(pageURL string, pages int) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", Errorf(EINVALID, "invalid listing page URL %q: %v", pageURL, err)
	}
	q := u.Query()
	start := 0
	if raw := q.Get("start"); raw != "" {
		start, err = strconv.Atoi(raw)
		if err != nil {
			return "", Errorf(EINVALID, "invalid start offset %q in %q", raw, pageURL)
		}
	}
	q.Set("start", strconv.Itoa(start+pages*PageStep))
	q.Set("type", s.TypeParam())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// StartURL returns the first listing page URL for the section, derived from
// the catalog URL with the section's type parameter forced.
func (s Section) StartURL(catalogURL string) (string, error) {
	u, err := url.Parse(catalogURL)
	if err != nil {
		return "", Errorf(EINVALID, "invalid catalog URL %q: %v", catalogURL, err)
	}
	q := u.Query()
	q.Set("type", s.TypeParam())
	u.RawQuery = q.Encode()
	return u.String(), nil
}
