package analytics

import (
	"sort"

	"github.com/angelmondragon/supermarket-backend/internal/analytics/types"
)

// rankProducts orders counts by frequency, then name, and keeps every product
// whose count is at least the count found at rank topN. Ties at the cutoff
// therefore all make it in.
func rankProducts(counts map[string]int64, topN int) []types.ProductCount {
	ranked := make([]types.ProductCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, types.ProductCount{Product: name, Count: count})
	}
	if len(ranked) == 0 || topN < 1 {
		return []types.ProductCount{}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Product < ranked[j].Product
	})

	cutoff := topN - 1
	if cutoff >= len(ranked) {
		cutoff = len(ranked) - 1
	}
	threshold := ranked[cutoff].Count

	end := cutoff + 1
	for end < len(ranked) && ranked[end].Count >= threshold {
		end++
	}
	return ranked[:end]
}
