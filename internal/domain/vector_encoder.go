package domain

import "context"

// VectorEncoder turns texts into dense embeddings, one vector per input in input order.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}
