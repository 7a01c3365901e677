package practices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForSection(t *testing.T) {
	dev := ForSection(SectionDevelopment)
	require.Len(t, dev, 4)
	assert.Contains(t, dev[1], "peer code reviews")

	assert.Nil(t, ForSection("finance"))
}

func TestForSection_ReturnsCopy(t *testing.T) {
	first := ForSection(SectionTesting)
	first[0] = "mutated"
	assert.NotEqual(t, "mutated", ForSection(SectionTesting)[0])
}

func TestAll_StableSectionOrder(t *testing.T) {
	all := All()
	require.Len(t, all, 13)
	assert.Equal(t, ForSection(SectionArchitecture)[0], all[0])
	assert.Equal(t, ForSection(SectionProcess)[2], all[len(all)-1])
}
