package domain

import "context"

// RerankCandidate is a piece of text scored against the question by a cross-encoder.
type RerankCandidate struct {
	// ID maps a result back to its candidate.
	ID string
	// Content is the text scored against the query.
	Content string
	// Score is the score from the previous stage, kept for logging.
	Score float32
}

// RerankResult is a relevance score for one candidate.
type RerankResult struct {
	ID    string
	Score float32
}

// Reranker scores candidates against a query with a cross-encoder model.
// Results may cover a subset of the candidates. On error callers keep the previous order.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error)
	ModelName() string
}
