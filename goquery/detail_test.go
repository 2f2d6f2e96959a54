package goquery_test

import (
	"context"
	"testing"

	shl "github.com/arnnv/shl-recommendation-system"
	"github.com/arnnv/shl-recommendation-system/goquery"
	"github.com/arnnv/shl-recommendation-system/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStub() *shl.Assessment {
	return shl.NewAssessmentStub("Account Manager Solution", "https://www.shl.com/solutions/products/product-catalog/view/account-manager-solution/")
}

func enrichWith(t *testing.T, html string, a *shl.Assessment) {
	t.Helper()
	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, _ string) (string, error) {
			return html, nil
		},
	}
	e := goquery.NewDetailExtractor(fetcher, nil)
	require.NoError(t, e.Enrich(context.Background(), a))
}

func TestDetailExtractor_Enrich_prefers_meta_description(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<meta name="description" content="The Account Manager solution is for mid-level sales positions.">
</head><body>
<h2>Description</h2>
<p>Longer in-page copy that should not win.</p>
</body></html>`

	a := newStub()
	enrichWith(t, html, a)

	assert.Equal(t, "The Account Manager solution is for mid-level sales positions.", a.Description)
	assert.True(t, a.DetailsExtracted)
	assert.False(t, a.FetchedAt.IsZero())
}

func TestDetailExtractor_Enrich_falls_back_to_description_heading(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<h2>Description</h2>
<p>Measures competencies critical to success in account management roles.</p>
</body></html>`

	a := newStub()
	enrichWith(t, html, a)

	assert.Equal(t, "Measures competencies critical to success in account management roles.", a.Description)
}

func TestDetailExtractor_Enrich_converts_description_section(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, _ string) (string, error) {
			return `<html><body><h2>Description</h2><div><p>First paragraph.</p><p>Second paragraph.</p></div></body></html>`, nil
		},
	}
	converter := &mock.Converter{
		ConvertFn: func(html string) (string, error) {
			assert.Contains(t, html, "First paragraph.")
			return "First paragraph.\n\nSecond paragraph.", nil
		},
	}
	e := goquery.NewDetailExtractor(fetcher, converter)

	a := newStub()
	require.NoError(t, e.Enrich(context.Background(), a))
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", a.Description)
}

func TestDetailExtractor_Enrich_duration_range_beats_bare_minutes(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<p>Candidates usually finish in 35 minutes.</p>
<h4>Assessment length</h4>
<p>Completion takes 20-30 minutes for most candidates.</p>
</body></html>`

	a := newStub()
	enrichWith(t, html, a)

	assert.Equal(t, "20-30 minutes", a.Duration)
}

func TestDetailExtractor_Enrich_normalizes_approximate_duration_and_inline_flags(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<meta name="description" content="Measures verbal reasoning.">
</head><body>
<p>Assessment length: approximately 25 minutes. Remote Testing: Yes.</p>
</body></html>`

	a := newStub()
	enrichWith(t, html, a)

	assert.Equal(t, "Measures verbal reasoning.", a.Description)
	assert.Equal(t, "25 minutes", a.Duration)
	assert.Equal(t, shl.SupportYes, a.RemoteTestingSupport)
}

func TestDetailExtractor_Enrich_labeled_duration_beats_stray_range(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<p>Related assessments in this family run 10-15 minutes.</p>
<h4>Assessment length</h4>
<p>Approximately 25 minutes.</p>
</body></html>`

	a := newStub()
	enrichWith(t, html, a)

	assert.Equal(t, "25 minutes", a.Duration)
}

func TestDetailExtractor_Enrich_reads_labeled_completion_time(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<h4>Assessment length</h4>
<p>Approximate Completion Time in minutes = 49</p>
</body></html>`

	a := newStub()
	enrichWith(t, html, a)

	assert.Equal(t, "completion time in minutes = 49", a.Duration)
}

func TestDetailExtractor_Enrich_escalates_support_flags(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<h4>Remote Testing</h4>
<p>Yes</p>
<p>Scoring uses item response theory for precise ability estimates.</p>
</body></html>`

	a := newStub()
	enrichWith(t, html, a)

	assert.Equal(t, shl.SupportYes, a.RemoteTestingSupport)
	assert.Equal(t, shl.SupportYes, a.AdaptiveIRTSupport)
}

func TestDetailExtractor_Enrich_never_clears_listing_flags(t *testing.T) {
	t.Parallel()

	a := newStub()
	a.RemoteTestingSupport = shl.SupportYes
	a.AddTestType(shl.TestTypePersonality)

	enrichWith(t, `<html><body><p>Nothing of interest here.</p></body></html>`, a)

	assert.Equal(t, shl.SupportYes, a.RemoteTestingSupport)
	assert.Equal(t, []shl.TestType{shl.TestTypePersonality}, a.TestTypes)
}

func TestDetailExtractor_Enrich_reads_test_type_keys(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<span class="product-catalogue__key">P</span>
<span class="product-catalogue__key">C</span>
<span class="product-catalogue__key">P</span>
</body></html>`

	a := newStub()
	enrichWith(t, html, a)

	assert.Equal(t, []shl.TestType{shl.TestTypePersonality, shl.TestTypeCognitive}, a.TestTypes)
}

func TestDetailExtractor_Enrich_keyword_fallback_orders_by_appearance(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<p>This personality questionnaire also measures cognitive reasoning skills.</p>
</body></html>`

	a := newStub()
	enrichWith(t, html, a)

	assert.Equal(t, []shl.TestType{shl.TestTypePersonality, shl.TestTypeCognitive, shl.TestTypeAbility, shl.TestTypeKnowledge}, a.TestTypes)
}

func TestDetailExtractor_Enrich_returns_fetch_error(t *testing.T) {
	t.Parallel()

	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, _ string) (string, error) {
			return "", shl.Errorf(shl.EUNAVAILABLE, "fetch failed")
		},
	}
	e := goquery.NewDetailExtractor(fetcher, nil)

	a := newStub()
	err := e.Enrich(context.Background(), a)
	require.Error(t, err)
	assert.Equal(t, shl.EUNAVAILABLE, shl.ErrorCode(err))
	assert.False(t, a.DetailsExtracted)
}
