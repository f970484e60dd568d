package retrieval

import "health-rag/internal/domain"

// Allocate collapses ranked chunks to their parent documents and keeps the first topN.
// A document takes the position of its best ranked chunk and appears once.
func Allocate(docs []domain.Document, chunks []domain.Chunk, ranked []int, topN int) domain.RankedContext {
	if topN <= 0 {
		topN = DefaultTopN
	}

	seen := make(map[int]bool, len(docs))
	out := make(domain.RankedContext, 0, min(topN, len(docs)))
	for _, ci := range ranked {
		if len(out) >= topN {
			break
		}
		if ci < 0 || ci >= len(chunks) {
			continue
		}
		di := chunks[ci].DocIndex
		if di < 0 || di >= len(docs) || seen[di] {
			continue
		}
		seen[di] = true
		out = append(out, docs[di])
	}
	return out
}
