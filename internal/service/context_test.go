package service

import (
	"testing"

	"fodmate-backend/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *catalog.Store {
	return catalog.NewStoreWithRecords([]catalog.FoodRecord{
		{ID: "f1", Name: "Banana", Category: "Fruits", Rating: "low", SafeServing: "1 medium ripe banana"},
		{ID: "f2", Name: "Apple", Category: "Fruits", Rating: "high", Alternatives: []string{"orange"}},
	})
}

func TestBuildContextNoMatches(t *testing.T) {
	a := NewContextAssembler(testCatalog())

	block, matches := a.BuildContext("what should I cook tonight")
	assert.Empty(t, block)
	assert.Empty(t, matches)
}

func TestBuildContextRendersMatches(t *testing.T) {
	a := NewContextAssembler(testCatalog())

	block, matches := a.BuildContext("Is banana low FODMAP?")
	require.Len(t, matches, 1)

	assert.Contains(t, block, "Banana: LOW FODMAP")
	assert.Contains(t, block, "Category: Fruits")
	assert.Contains(t, block, "Safe serving: 1 medium ripe banana")
	assert.Contains(t, block, matches[0].Recommendation)
}

func TestBuildContextKeepsSearchOrder(t *testing.T) {
	a := NewContextAssembler(testCatalog())

	_, matches := a.BuildContext("banana and apple for lunch")
	require.Len(t, matches, 2)
	assert.Equal(t, "f1", matches[0].Food.ID)
	assert.Equal(t, "f2", matches[1].Food.ID)
}
