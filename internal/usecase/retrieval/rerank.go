package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"health-rag/internal/domain"
)

// RerankConfig holds reranking parameters.
type RerankConfig struct {
	Timeout time.Duration
	// MaxCandidates caps how many items are sent to the cross-encoder. Items past the cap
	// keep their incoming order behind the scored ones.
	MaxCandidates int
}

// Rerank orders texts by cross-encoder relevance to query and returns their indices.
// Scores sort descending and ties keep incoming order; texts the reranker did not score
// follow in incoming order. ok is false when no reranker is set or the call failed,
// in which case the incoming order is returned.
func Rerank(
	ctx context.Context,
	reranker domain.Reranker,
	query string,
	texts []string,
	cfg RerankConfig,
	logger *slog.Logger,
) (order []int, ok bool) {
	order = make([]int, len(texts))
	for i := range order {
		order[i] = i
	}
	if reranker == nil || len(texts) == 0 {
		return order, false
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRerankTimeout
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxRerankItems
	}

	sent := texts
	if len(sent) > cfg.MaxCandidates {
		sent = sent[:cfg.MaxCandidates]
	}
	candidates := make([]domain.RerankCandidate, len(sent))
	for i, text := range sent {
		candidates[i] = domain.RerankCandidate{ID: strconv.Itoa(i), Content: text}
	}

	rerankStart := time.Now()
	rerankCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	reranked, err := reranker.Rerank(rerankCtx, query, candidates)
	cancel()

	if err != nil {
		logger.WarnContext(ctx, "reranking_failed_using_original_order",
			slog.String("model", reranker.ModelName()),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(rerankStart).Milliseconds()))
		return order, false
	}

	scores := make(map[int]float32, len(reranked))
	for _, r := range reranked {
		idx, convErr := strconv.Atoi(r.ID)
		if convErr != nil || idx < 0 || idx >= len(texts) {
			continue
		}
		scores[idx] = r.Score
	}

	sort.SliceStable(order, func(a, b int) bool {
		sa, okA := scores[order[a]]
		sb, okB := scores[order[b]]
		if okA != okB {
			return okA
		}
		if !okA {
			return false
		}
		return sa > sb
	})

	logger.InfoContext(ctx, "reranking_completed",
		slog.String("model", reranker.ModelName()),
		slog.Int("candidate_count", len(candidates)),
		slog.Int("reranked_count", len(reranked)),
		slog.Int64("duration_ms", time.Since(rerankStart).Milliseconds()))

	return order, true
}
