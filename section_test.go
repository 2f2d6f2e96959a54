package shl_test

import (
	"testing"

	shl "github.com/arnnv/shl-recommendation-system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSection_TypeParam(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2", shl.SectionPrePackaged.TypeParam())
	assert.Equal(t, "1", shl.SectionIndividual.TypeParam())
}

func TestSection_StartURL_forces_type_parameter(t *testing.T) {
	t.Parallel()

	u, err := shl.SectionIndividual.StartURL("https://www.shl.com/solutions/products/product-catalog/")
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?type=1", u)

	u, err = shl.SectionPrePackaged.StartURL("https://www.shl.com/solutions/products/product-catalog/?type=1")
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?type=2", u, "existing type is overridden")
}

func TestSection_AdvanceURL_steps_the_start_offset(t *testing.T) {
	t.Parallel()

	u, err := shl.SectionPrePackaged.AdvanceURL("https://www.shl.com/solutions/products/product-catalog/?start=24&type=2", 1)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?start=36&type=2", u)

	// A missing offset counts as zero, and the type parameter is forced.
	u, err = shl.SectionIndividual.AdvanceURL("https://www.shl.com/solutions/products/product-catalog/?type=2", 5)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shl.com/solutions/products/product-catalog/?start=60&type=1", u)

	_, err = shl.SectionIndividual.AdvanceURL("https://www.shl.com/?start=abc", 1)
	assert.Equal(t, shl.EINVALID, shl.ErrorCode(err))
}

func TestSection_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, shl.SectionPrePackaged.Validate())
	assert.NoError(t, shl.SectionIndividual.Validate())
	assert.Equal(t, shl.EINVALID, shl.ErrorCode(shl.Section("bundled").Validate()))
}

func TestSections_crawl_order_is_prepackaged_first(t *testing.T) {
	t.Parallel()

	require.Len(t, shl.Sections, 2)
	assert.Equal(t, shl.SectionPrePackaged, shl.Sections[0])
	assert.Equal(t, shl.SectionIndividual, shl.Sections[1])
}
