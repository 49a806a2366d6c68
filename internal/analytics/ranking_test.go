package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/supermarket-backend/internal/analytics/types"
)

func TestRankProductsIncludesTiesAtCutoff(t *testing.T) {
	got := rankProducts(map[string]int64{"apple": 5, "banana": 3, "cherry": 3, "date": 1}, 2)
	assert.Equal(t, []types.ProductCount{
		{Product: "apple", Count: 5},
		{Product: "banana", Count: 3},
		{Product: "cherry", Count: 3},
	}, got)
}

func TestRankProductsClampsToAvailable(t *testing.T) {
	got := rankProducts(map[string]int64{"apple": 2, "banana": 1}, 10)
	assert.Equal(t, []types.ProductCount{
		{Product: "apple", Count: 2},
		{Product: "banana", Count: 1},
	}, got)
}

func TestRankProductsEmpty(t *testing.T) {
	got := rankProducts(map[string]int64{}, 3)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRankProductsAllTied(t *testing.T) {
	got := rankProducts(map[string]int64{"c": 1, "a": 1, "b": 1}, 1)
	assert.Equal(t, []types.ProductCount{
		{Product: "a", Count: 1},
		{Product: "b", Count: 1},
		{Product: "c", Count: 1},
	}, got)
}
