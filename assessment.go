package shl

import (
	"strings"
	"time"
)

// Support describes whether an assessment supports a capability. Missing
// evidence is recorded as SupportNo, the contract default; SupportUnknown is
// reserved for stubs whose listing row could not be inspected at all.
type Support string

// Support values.
const (
	SupportYes     Support = "Yes"
	SupportNo      Support = "No"
	SupportUnknown Support = "Unknown"
)

// Escalate applies escalation-only semantics: a flag may move to SupportYes
// but never away from it. Any other transition returns the receiver
// unchanged unless the new value is strictly more affirmative.
func (s Support) Escalate(to Support) Support {
	if s == SupportYes {
		return s
	}
	if to == SupportYes {
		return SupportYes
	}
	if s == SupportUnknown && (to == SupportNo || to == SupportYes) {
		return to
	}
	return s
}

// TestType is a category label from the catalog's fixed test-type
// vocabulary.
type TestType string

// The fixed test-type vocabulary.
const (
	TestTypeAbility     TestType = "Ability"
	TestTypeBehavioral  TestType = "Behavioral"
	TestTypeCognitive   TestType = "Cognitive"
	TestTypeKnowledge   TestType = "Knowledge"
	TestTypePersonality TestType = "Personality"
	TestTypeSituational TestType = "Situational"
)

// TestTypeCodes maps the catalog's compact single-letter codes to the
// test-type vocabulary. Kept as data so the mapping is independently
// testable.
var TestTypeCodes = map[byte]TestType{
	'A': TestTypeAbility,
	'B': TestTypeBehavioral,
	'C': TestTypeCognitive,
	'K': TestTypeKnowledge,
	'P': TestTypePersonality,
	'S': TestTypeSituational,
}

// TestTypeKeyword associates a lowercase keyword found in detail-page prose
// with a test-type category. The keyword vocabulary is broader than the
// single-letter codes.
type TestTypeKeyword struct {
	Keyword string
	Type    TestType
}

// TestTypeKeywords is the ordered keyword table used when a stub carries no
// type codes. Matches are added in order of first appearance in the
// searched text.
var TestTypeKeywords = []TestTypeKeyword{
	{"ability", TestTypeAbility},
	{"reasoning", TestTypeAbility},
	{"cognitive", TestTypeCognitive},
	{"behavioral", TestTypeBehavioral},
	{"behavioural", TestTypeBehavioral},
	{"work style", TestTypeBehavioral},
	{"competencies", TestTypeBehavioral},
	{"knowledge", TestTypeKnowledge},
	{"skills", TestTypeKnowledge},
	{"technical", TestTypeKnowledge},
	{"personality", TestTypePersonality},
	{"motivation", TestTypePersonality},
	{"preferences", TestTypePersonality},
	{"situational judgment", TestTypeSituational},
	{"scenario", TestTypeSituational},
}

// Assessment is one catalog entry. The JSON field names are a contract with
// the downstream recommendation pipeline: every field is always present,
// and test_types serializes as an ordered list even when empty.
type Assessment struct {
	Name                 string     `json:"name"`
	URL                  string     `json:"url"`
	RemoteTestingSupport Support    `json:"remote_testing_support"`
	AdaptiveIRTSupport   Support    `json:"adaptive_irt_support"`
	Duration             string     `json:"duration"`
	TestTypes            []TestType `json:"test_types"`
	Description          string     `json:"description"`

	// Bookkeeping, not part of the consumer contract. DetailsExtracted is
	// false when enrichment degraded to listing-page data only, so a later
	// run can revisit the detail page.
	FetchedAt        time.Time `json:"fetched_at"`
	DetailsExtracted bool      `json:"details_extracted"`
}

// NewAssessmentStub returns a partially-known record discovered on a
// listing page, with contract defaults applied.
func NewAssessmentStub(name, rawURL string) *Assessment {
	return &Assessment{
		Name:                 strings.TrimSpace(name),
		URL:                  rawURL,
		RemoteTestingSupport: SupportNo,
		AdaptiveIRTSupport:   SupportNo,
		TestTypes:            []TestType{},
	}
}

// Validate returns an error if the assessment violates the dataset
// invariants.
func (a *Assessment) Validate() error {
	if a.Name == "" {
		return Errorf(EINVALID, "assessment name required")
	}
	if a.URL == "" {
		return Errorf(EINVALID, "assessment URL required")
	}
	return nil
}

// AddTestType appends a category, preserving first-seen order and rejecting
// duplicates. Returns false if the category was already present.
func (a *Assessment) AddTestType(t TestType) bool {
	for _, existing := range a.TestTypes {
		if existing == t {
			return false
		}
	}
	a.TestTypes = append(a.TestTypes, t)
	return true
}

// Merge folds fresh extraction results into the receiver. Presence in the
// dataset is monotonic: fields are only filled or escalated, never cleared.
func (a *Assessment) Merge(fresh *Assessment) {
	a.RemoteTestingSupport = a.RemoteTestingSupport.Escalate(fresh.RemoteTestingSupport)
	a.AdaptiveIRTSupport = a.AdaptiveIRTSupport.Escalate(fresh.AdaptiveIRTSupport)
	if a.Duration == "" {
		a.Duration = fresh.Duration
	}
	if a.Description == "" {
		a.Description = fresh.Description
	}
	if len(a.TestTypes) == 0 && len(fresh.TestTypes) > 0 {
		a.TestTypes = append([]TestType{}, fresh.TestTypes...)
	}
	if fresh.DetailsExtracted {
		a.DetailsExtracted = true
		a.FetchedAt = fresh.FetchedAt
	}
}

// Normalize repairs zero values that would break the consumer contract
// after JSON round-trips (a nil test_types slice serializes as null).
func (a *Assessment) Normalize() {
	if a.TestTypes == nil {
		a.TestTypes = []TestType{}
	}
	if a.RemoteTestingSupport == "" {
		a.RemoteTestingSupport = SupportNo
	}
	if a.AdaptiveIRTSupport == "" {
		a.AdaptiveIRTSupport = SupportNo
	}
}
