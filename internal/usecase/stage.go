package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"health-rag/internal/infra/logger"
	"health-rag/internal/infra/metrics"
)

// Pipeline stage names used in spans, logs and metrics.
const (
	StageExpand     = "expand"
	StageAggregate  = "aggregate"
	StageNarrow     = "narrow"
	StageSynthesize = "synthesize"
)

var tracer = otel.Tracer("health-rag/usecase")

// runStage runs fn inside a span named after the stage, tags the context for logging
// and records the stage duration.
func runStage(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	ctx = logger.WithPipelineStage(ctx, stage)
	ctx, span := tracer.Start(ctx, "pipeline."+stage)
	defer span.End()
	span.SetAttributes(attribute.String("health.pipeline.stage", stage))

	start := time.Now()
	err := fn(ctx)
	metrics.RecordStage(stage, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
