package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"health-rag/internal/domain"
	"health-rag/internal/infra/metrics"
	"health-rag/internal/usecase/retrieval"
)

// RetrieveContextUsecase runs query expansion, candidate aggregation and narrowing,
// filling Queries, Candidates and Context on the stage context.
// Errors are domain.ErrGeneration from expansion or a context error.
type RetrieveContextUsecase interface {
	Execute(ctx context.Context, sc *retrieval.StageContext) error
}

type retrieveContextUsecase struct {
	llmClient domain.LLMClient
	source    domain.DocumentSource
	narrower  retrieval.Narrower
	config    RetrievalConfig
	logger    *slog.Logger
}

// NewRetrieveContextUsecase creates a new RetrieveContextUsecase.
func NewRetrieveContextUsecase(
	llmClient domain.LLMClient,
	source domain.DocumentSource,
	narrower retrieval.Narrower,
	config RetrievalConfig,
	logger *slog.Logger,
) RetrieveContextUsecase {
	return &retrieveContextUsecase{
		llmClient: llmClient,
		source:    source,
		narrower:  narrower,
		config:    config,
		logger:    logger,
	}
}

func (u *retrieveContextUsecase) Execute(ctx context.Context, sc *retrieval.StageContext) error {
	sc.Candidates = domain.NewCandidateSet()
	sc.Context = domain.RankedContext{}

	// Stage 1: Expand
	err := runStage(ctx, StageExpand, func(ctx context.Context) error {
		queries, err := retrieval.ExpandQueries(ctx, sc.Question, sc.History, u.llmClient, u.config.expand(), u.logger)
		if err != nil {
			u.logger.ErrorContext(ctx, "query_expansion_failed", slog.String("error", err.Error()))
			return err
		}
		sc.Queries = queries
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("health.query.count", len(queries)))
		return nil
	})
	if err != nil {
		return err
	}
	if len(sc.Queries) == 0 {
		u.logger.InfoContext(ctx, "retrieval_no_queries")
		return nil
	}

	// Stage 2: Aggregate
	_ = runStage(ctx, StageAggregate, func(ctx context.Context) error {
		sc.Candidates = retrieval.Aggregate(ctx, u.source, sc.Queries, u.config.aggregate(), u.logger)
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("health.candidate.count", sc.Candidates.Len()))
		return nil
	})
	if sc.Candidates.Len() == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		u.logger.InfoContext(ctx, "retrieval_no_candidates", slog.Any("queries", sc.Queries))
		return nil
	}

	// Stage 3: Narrow
	return runStage(ctx, StageNarrow, func(ctx context.Context) error {
		narrowed, err := u.narrower.Narrow(ctx, sc.Candidates, sc.Question)
		if err != nil {
			return err
		}
		sc.Context = narrowed
		metrics.RecordNarrowed(u.narrower.Name(), len(narrowed))
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("health.narrowing.strategy", u.narrower.Name()),
			attribute.Int("health.context.count", len(narrowed)),
		)
		return nil
	})
}
