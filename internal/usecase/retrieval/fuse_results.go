package retrieval

import "sort"

// WeightedRanking is one retriever's ranked list of item indices with its fusion weight.
type WeightedRanking struct {
	Ranked []int
	Weight float64
}

// FuseRankings merges rankings with weighted Reciprocal Rank Fusion.
// Each appearance adds weight/(rrfK+rank+1) to the item's score, with rank 0-indexed.
// Items sharing a key count as one item, represented by the first index seen.
// The result is sorted by descending score; ties keep first-appearance order.
func FuseRankings(rankings []WeightedRanking, key func(int) string, rrfK float64) []int {
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}

	type fused struct {
		index int
		score float64
	}
	byKey := make(map[string]*fused)
	var order []*fused

	for _, r := range rankings {
		for rank, idx := range r.Ranked {
			k := key(idx)
			f, ok := byKey[k]
			if !ok {
				f = &fused{index: idx}
				byKey[k] = f
				order = append(order, f)
			}
			f.score += r.Weight / (rrfK + float64(rank+1))
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].score > order[j].score
	})

	out := make([]int, len(order))
	for i, f := range order {
		out[i] = f.index
	}
	return out
}
