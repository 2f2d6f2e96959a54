package goquery_test

import (
	"testing"

	shl "github.com/arnnv/shl-recommendation-system"
	"github.com/arnnv/shl-recommendation-system/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_NextPageURL_follows_next_anchor(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<ul class="pagination">
  <li><a href="?start=0&type=2">1</a></li>
  <li><a href="?start=12&type=2">Next</a></li>
</ul>
</body></html>`

	e := goquery.NewExtractor()

	next, err := e.NextPageURL(html, pageURL, shl.SectionPrePackaged)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?start=12&type=2", next)
}

func TestExtractor_NextPageURL_forces_section_type(t *testing.T) {
	t.Parallel()

	// A next link that drops or flips the type parameter must not cross
	// into the other section.
	html := `<a href="?start=12&type=1">Next</a>`

	e := goquery.NewExtractor()

	next, err := e.NextPageURL(html, pageURL, shl.SectionPrePackaged)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?start=12&type=2", next)
}

func TestExtractor_NextPageURL_disabled_next_ends_pagination(t *testing.T) {
	t.Parallel()

	html := `<ul class="pagination"><li class="disabled"><a href="#" class="pagination__arrow -next disabled">Next</a></li></ul>`

	e := goquery.NewExtractor()

	next, err := e.NextPageURL(html, pageURL, shl.SectionPrePackaged)
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestExtractor_NextPageURL_self_referential_next_ends_pagination(t *testing.T) {
	t.Parallel()

	html := `<a href="?start=0&type=2">Next</a>`

	e := goquery.NewExtractor()

	next, err := e.NextPageURL(html, pageURL, shl.SectionPrePackaged)
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestExtractor_NextPageURL_recognizes_arrow_class(t *testing.T) {
	t.Parallel()

	html := `<a class="pagination__arrow -next" href="?start=36&type=2" aria-label="Next page"></a>`

	e := goquery.NewExtractor()

	next, err := e.NextPageURL(html, pageURL, shl.SectionPrePackaged)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?start=36&type=2", next)
}

func TestExtractor_NextPageURL_advances_past_active_page(t *testing.T) {
	t.Parallel()

	html := `<ul class="pagination">
  <li class="active"><a>2</a></li>
  <li><a href="?start=24&type=2">3</a></li>
</ul>`

	e := goquery.NewExtractor()

	next, err := e.NextPageURL(html, "https://www.shl.com/solutions/products/product-catalog/?start=12&type=2", shl.SectionPrePackaged)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?start=24&type=2", next)
}

func TestExtractor_NextPageURL_synthesizes_offset_without_markup(t *testing.T) {
	t.Parallel()

	e := goquery.NewExtractor()

	next, err := e.NextPageURL("<html><body></body></html>", "https://www.shl.com/solutions/products/product-catalog/?start=12&type=1", shl.SectionIndividual)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?start=24&type=1", next)

	// A start URL without an offset begins the arithmetic at zero.
	next, err = e.NextPageURL("<html><body></body></html>", "https://www.shl.com/solutions/products/product-catalog/?type=1", shl.SectionIndividual)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?start=12&type=1", next)
}

func TestJumpAheadURL_skips_pages(t *testing.T) {
	t.Parallel()

	jumped, err := goquery.JumpAheadURL("https://www.shl.com/solutions/products/product-catalog/?start=24&type=2", shl.SectionPrePackaged, 5)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?start=84&type=2", jumped)
}
