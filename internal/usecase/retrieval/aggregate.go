package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"health-rag/internal/domain"
)

// AggregateConfig holds candidate aggregation parameters.
type AggregateConfig struct {
	PerQueryLimit int
	Concurrency   int
}

// Aggregate looks up every query concurrently and merges the results into one set
// keyed by title (Stage 2). Results are merged in query order, not completion order.
func Aggregate(
	ctx context.Context,
	source domain.DocumentSource,
	queries []string,
	cfg AggregateConfig,
	logger *slog.Logger,
) *domain.CandidateSet {
	set := domain.NewCandidateSet()

	unique := uniqueQueries(queries)
	if len(unique) == 0 {
		return set
	}
	if cfg.PerQueryLimit <= 0 {
		cfg.PerQueryLimit = DefaultPerQueryLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	start := time.Now()
	results := make([][]domain.Document, len(unique))

	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)
	for i, q := range unique {
		g.Go(func() error {
			results[i] = source.Search(ctx, q, cfg.PerQueryLimit)
			return nil
		})
	}
	_ = g.Wait()

	fetched := 0
	for _, docs := range results {
		fetched += len(docs)
		for _, d := range docs {
			if d.Valid() {
				set.Add(d)
			}
		}
	}

	logger.InfoContext(ctx, "candidates_aggregated",
		slog.Int("query_count", len(unique)),
		slog.Int("fetched_count", fetched),
		slog.Int("candidate_count", set.Len()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return set
}

func uniqueQueries(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}
