package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"health-rag/internal/domain"
	"health-rag/internal/infra/logger"
	"health-rag/internal/infra/metrics"
	"health-rag/internal/usecase/retrieval"
)

// Chat outcomes.
const (
	OutcomeAnswered         = "answered"
	OutcomeNotFound         = "not_found"
	OutcomeGenerationFailed = "generation_failed"
)

// ChatInput is one user turn plus the prior conversation in alternating user/assistant order.
type ChatInput struct {
	Question string
	History  []string
}

// ContextRef identifies a document the answer was grounded on.
type ContextRef struct {
	Title string
	URL   string
}

// ChatOutput is the answer together with the updated history.
type ChatOutput struct {
	Answer    string
	History   []string
	Outcome   string
	Queries   []string
	Contexts  []ContextRef
	RequestID string
}

// ChatUsecase answers one conversational health question.
type ChatUsecase interface {
	Execute(ctx context.Context, input ChatInput) (*ChatOutput, error)
}

type chatUsecase struct {
	retrieve    RetrieveContextUsecase
	synthesizer AnswerSynthesizer
	logger      *slog.Logger
}

// NewChatUsecase wires retrieval and synthesis.
func NewChatUsecase(retrieve RetrieveContextUsecase, synthesizer AnswerSynthesizer, logger *slog.Logger) ChatUsecase {
	return &chatUsecase{
		retrieve:    retrieve,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// Execute runs the pipeline. The only errors are domain.ErrEmptyQuestion and context
// cancellation; every other failure is reported through Outcome.
func (u *chatUsecase) Execute(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	requestID := logger.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logger.WithRequestID(ctx, requestID)
	}

	ctx, span := tracer.Start(ctx, "chat")
	defer span.End()
	span.SetAttributes(attribute.String("health.request.id", requestID))

	start := time.Now()
	history := domain.LoadHistory(input.History)
	sc := &retrieval.StageContext{
		RequestID: requestID,
		Question:  question,
		History:   history,
	}

	var answer, outcome string
	err := u.retrieve.Execute(ctx, sc)
	switch {
	case errors.Is(err, domain.ErrGeneration):
		answer, outcome = apologyAnswer, OutcomeGenerationFailed
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		u.logger.WarnContext(ctx, "chat_aborted", slog.String("error", err.Error()))
		return nil, err
	case len(sc.Context) == 0:
		answer, outcome = domain.WithDisclaimer(domain.NotFoundMessage), OutcomeNotFound
	default:
		err = runStage(ctx, StageSynthesize, func(ctx context.Context) error {
			answer = u.synthesizer.Synthesize(ctx, question, history, sc.Context)
			return ctx.Err()
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			u.logger.WarnContext(ctx, "chat_aborted", slog.String("error", err.Error()))
			return nil, err
		}
		outcome = OutcomeAnswered
		if answer == apologyAnswer {
			outcome = OutcomeGenerationFailed
		}
	}

	history.Append(question, answer)
	metrics.RecordOutcome(outcome)
	span.SetAttributes(attribute.String("health.chat.outcome", outcome))

	refs := make([]ContextRef, len(sc.Context))
	for i, d := range sc.Context {
		refs[i] = ContextRef{Title: d.Title, URL: d.URL}
	}
	queries := sc.Queries
	if queries == nil {
		queries = []string{}
	}

	u.logger.InfoContext(ctx, "chat_completed",
		slog.String("outcome", outcome),
		slog.Int("query_count", len(queries)),
		slog.Int("context_count", len(refs)),
		slog.Int("history_length", history.Len()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &ChatOutput{
		Answer:    answer,
		History:   history.Raw(),
		Outcome:   outcome,
		Queries:   queries,
		Contexts:  refs,
		RequestID: requestID,
	}, nil
}
