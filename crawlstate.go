package shl

import (
	"time"
)

// SectionState tracks crawl progress through one catalog section.
type SectionState struct {
	// LastPageURL is the resumption point. Nil means the section finished
	// cleanly; a fresh state also starts nil, in which case the crawl
	// begins from the section's start URL.
	LastPageURL *string `json:"last_page_url"`

	// PageNumber is a display/debug cursor only. Correctness relies on
	// LastPageURL, never on page counting.
	PageNumber int `json:"page_number"`
}

// Complete reports whether the section finished cleanly.
func (s *SectionState) Complete() bool {
	return s.LastPageURL == nil
}

// CrawlState records durable crawl progress. It is saved after every page
// fetch attempt so that durability never lags more than one page behind
// actual progress.
type CrawlState struct {
	RunID         string                    `json:"run_id"`
	LastCrawlTime time.Time                 `json:"last_crawl_time"`
	Completed     bool                      `json:"completed"`
	Sections      map[Section]*SectionState `json:"sections"`

	// ProcessedPageFingerprints identifies listing pages already fully
	// harvested, so a resumed run skips re-extracting them.
	ProcessedPageFingerprints []string `json:"processed_page_fingerprints"`

	fps map[string]struct{}
}

// NewCrawlState returns an empty state with both sections initialized.
func NewCrawlState() *CrawlState {
	s := &CrawlState{Sections: make(map[Section]*SectionState)}
	for _, sec := range Sections {
		s.Sections[sec] = &SectionState{}
	}
	return s
}

// Section returns the state for a section, creating it if a loaded state
// file predates the section.
func (s *CrawlState) Section(sec Section) *SectionState {
	if s.Sections == nil {
		s.Sections = make(map[Section]*SectionState)
	}
	st, ok := s.Sections[sec]
	if !ok {
		st = &SectionState{}
		s.Sections[sec] = st
	}
	return st
}

// HasFingerprint reports whether a page fingerprint was already harvested.
func (s *CrawlState) HasFingerprint(fp string) bool {
	s.indexFingerprints()
	_, ok := s.fps[fp]
	return ok
}

// AddFingerprint records a harvested page fingerprint. Returns false if it
// was already present.
func (s *CrawlState) AddFingerprint(fp string) bool {
	s.indexFingerprints()
	if _, ok := s.fps[fp]; ok {
		return false
	}
	s.fps[fp] = struct{}{}
	s.ProcessedPageFingerprints = append(s.ProcessedPageFingerprints, fp)
	return true
}

// RecomputeCompleted derives the completed flag: true only when every
// section has a nil resumption URL. The flag is never set imperatively.
func (s *CrawlState) RecomputeCompleted() {
	for _, sec := range Sections {
		if !s.Section(sec).Complete() {
			s.Completed = false
			return
		}
	}
	s.Completed = true
}

func (s *CrawlState) indexFingerprints() {
	if s.fps != nil {
		return
	}
	s.fps = make(map[string]struct{}, len(s.ProcessedPageFingerprints))
	for _, fp := range s.ProcessedPageFingerprints {
		s.fps[fp] = struct{}{}
	}
}
