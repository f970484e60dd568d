package retrieval

import (
	"context"
	"log/slog"
	"time"

	"health-rag/internal/domain"
)

// HybridConfig holds hybrid narrowing parameters.
type HybridConfig struct {
	TopN          int
	RetrieverK    int
	LexicalWeight float64
	DenseWeight   float64
	RRFK          float64
	Rerank        RerankConfig
}

// HybridNarrower chunks candidate summaries, retrieves chunks lexically and densely,
// fuses both rankings, reranks the fused chunks and collapses them back to documents.
type HybridNarrower struct {
	chunker  domain.Chunker
	encoder  domain.VectorEncoder
	reranker domain.Reranker
	cfg      HybridConfig
	logger   *slog.Logger
}

// NewHybridNarrower builds the narrower. A nil encoder skips dense retrieval and
// a nil reranker keeps the fused order.
func NewHybridNarrower(
	chunker domain.Chunker,
	encoder domain.VectorEncoder,
	reranker domain.Reranker,
	cfg HybridConfig,
	logger *slog.Logger,
) *HybridNarrower {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.RetrieverK <= 0 {
		cfg.RetrieverK = DefaultRetrieverK
	}
	if cfg.LexicalWeight <= 0 && cfg.DenseWeight <= 0 {
		cfg.LexicalWeight = DefaultLexicalWeight
		cfg.DenseWeight = DefaultDenseWeight
	}
	if cfg.RRFK <= 0 {
		cfg.RRFK = DefaultRRFK
	}
	return &HybridNarrower{chunker: chunker, encoder: encoder, reranker: reranker, cfg: cfg, logger: logger}
}

// Name implements Narrower.
func (n *HybridNarrower) Name() string {
	return StrategyHybrid
}

// Narrow implements Narrower.
func (n *HybridNarrower) Narrow(ctx context.Context, candidates *domain.CandidateSet, question string) (domain.RankedContext, error) {
	if candidates == nil || candidates.Len() == 0 {
		return domain.RankedContext{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	docs := candidates.Documents()
	chunks := n.chunker.Chunk(docs)
	if len(chunks) == 0 {
		n.logger.InfoContext(ctx, "narrowing_no_chunks",
			slog.String("strategy", StrategyHybrid),
			slog.Int("candidate_count", len(docs)))
		return domain.RankedContext{}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	rankings := []WeightedRanking{{
		Ranked: BM25Rank(question, texts, n.cfg.RetrieverK),
		Weight: n.cfg.LexicalWeight,
	}}

	if n.encoder != nil {
		dense, err := DenseRank(ctx, n.encoder, question, texts, n.cfg.RetrieverK)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			n.logger.WarnContext(ctx, "dense_retrieval_failed_using_lexical_only",
				slog.String("model", n.encoder.Version()),
				slog.String("error", err.Error()))
		} else {
			rankings = append(rankings, WeightedRanking{Ranked: dense, Weight: n.cfg.DenseWeight})
		}
	}

	fused := FuseRankings(rankings, func(i int) string { return chunks[i].Hash }, n.cfg.RRFK)

	fusedTexts := make([]string, len(fused))
	for i, ci := range fused {
		fusedTexts[i] = texts[ci]
	}
	order, reranked := Rerank(ctx, n.reranker, question, fusedTexts, n.cfg.Rerank, n.logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := make([]int, len(order))
	for i, o := range order {
		ranked[i] = fused[o]
	}
	out := Allocate(docs, chunks, ranked, n.cfg.TopN)

	n.logger.InfoContext(ctx, "narrowing_completed",
		slog.String("strategy", StrategyHybrid),
		slog.String("chunker", string(n.chunker.Version())),
		slog.Bool("reranked", reranked),
		slog.Int("candidate_count", len(docs)),
		slog.Int("chunk_count", len(chunks)),
		slog.Int("fused_count", len(fused)),
		slog.Int("context_count", len(out)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return out, nil
}

var _ Narrower = (*HybridNarrower)(nil)
