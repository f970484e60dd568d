package retrieval

import (
	"context"
	"fmt"
	"math"

	"health-rag/internal/domain"
)

// DenseRank embeds query and texts in one call and returns the indices of the top k
// texts by cosine similarity. Ties keep index order.
func DenseRank(ctx context.Context, encoder domain.VectorEncoder, query string, texts []string, k int) ([]int, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	inputs := make([]string, 0, len(texts)+1)
	inputs = append(inputs, query)
	inputs = append(inputs, texts...)

	vectors, err := encoder.Encode(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("encode chunks: %w", err)
	}
	if len(vectors) != len(inputs) {
		return nil, fmt.Errorf("encode chunks: got %d vectors for %d inputs", len(vectors), len(inputs))
	}

	scores := make([]float64, len(texts))
	for i := range texts {
		scores[i] = cosine(vectors[0], vectors[i+1])
	}
	return topK(scores, k), nil
}

// cosine returns 0 when either vector has zero norm or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
