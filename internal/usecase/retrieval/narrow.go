package retrieval

import (
	"context"
	"log/slog"

	"health-rag/internal/domain"
)

// Narrower reduces a candidate set to the most relevant documents for a question (Stage 3).
// Implementations return at most their configured top-N documents, all taken from the input.
// Only context cancellation is reported as an error.
type Narrower interface {
	Narrow(ctx context.Context, candidates *domain.CandidateSet, question string) (domain.RankedContext, error)
	Name() string
}

// DirectRerankNarrower scores whole candidate documents with a cross-encoder.
type DirectRerankNarrower struct {
	reranker domain.Reranker
	topN     int
	rerank   RerankConfig
	logger   *slog.Logger
}

// NewDirectRerankNarrower builds the narrower. A nil reranker keeps candidate order.
func NewDirectRerankNarrower(reranker domain.Reranker, topN int, rerank RerankConfig, logger *slog.Logger) *DirectRerankNarrower {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &DirectRerankNarrower{reranker: reranker, topN: topN, rerank: rerank, logger: logger}
}

// Name implements Narrower.
func (n *DirectRerankNarrower) Name() string {
	return StrategyRerank
}

// Narrow implements Narrower.
func (n *DirectRerankNarrower) Narrow(ctx context.Context, candidates *domain.CandidateSet, question string) (domain.RankedContext, error) {
	if candidates == nil || candidates.Len() == 0 {
		return domain.RankedContext{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := candidates.Documents()
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Title + "\n" + d.Summary
	}

	order, reranked := Rerank(ctx, n.reranker, question, texts, n.rerank, n.logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := min(n.topN, len(order))
	out := make(domain.RankedContext, 0, limit)
	for _, idx := range order[:limit] {
		out = append(out, docs[idx])
	}

	n.logger.InfoContext(ctx, "narrowing_completed",
		slog.String("strategy", StrategyRerank),
		slog.Bool("reranked", reranked),
		slog.Int("candidate_count", len(docs)),
		slog.Int("context_count", len(out)))

	return out, nil
}

var _ Narrower = (*DirectRerankNarrower)(nil)
