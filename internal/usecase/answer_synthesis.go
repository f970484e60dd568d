package usecase

import (
	"context"
	"log/slog"
	"time"

	"health-rag/internal/domain"
)

// AnswerSynthesizer produces the final answer text (Stage 4). It never fails: model
// errors and empty replies become the apology message.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, history *domain.ConversationHistory, rc domain.RankedContext) string
}

type answerSynthesizer struct {
	promptBuilder PromptBuilder
	llmClient     domain.LLMClient
	validator     OutputValidator
	maxTokens     int
	logger        *slog.Logger
}

// NewAnswerSynthesizer wires the prompt builder, model and output validator.
func NewAnswerSynthesizer(
	promptBuilder PromptBuilder,
	llmClient domain.LLMClient,
	validator OutputValidator,
	maxTokens int,
	logger *slog.Logger,
) AnswerSynthesizer {
	return &answerSynthesizer{
		promptBuilder: promptBuilder,
		llmClient:     llmClient,
		validator:     validator,
		maxTokens:     maxTokens,
		logger:        logger,
	}
}

// apologyAnswer is what every failed synthesis returns.
var apologyAnswer = domain.WithDisclaimer(domain.ApologyMessage)

func (s *answerSynthesizer) Synthesize(
	ctx context.Context,
	question string,
	history *domain.ConversationHistory,
	rc domain.RankedContext,
) string {
	messages, err := s.promptBuilder.Build(PromptInput{Question: question, History: history, Context: rc})
	if err != nil {
		s.logger.ErrorContext(ctx, "answer_prompt_build_failed", slog.String("error", err.Error()))
		return apologyAnswer
	}

	start := time.Now()
	resp, err := s.llmClient.Chat(ctx, messages, s.maxTokens)
	if err != nil {
		s.logger.ErrorContext(ctx, "answer_generation_failed",
			slog.String("model", s.llmClient.Version()),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return apologyAnswer
	}
	if resp == nil {
		s.logger.ErrorContext(ctx, "answer_generation_empty", slog.String("model", s.llmClient.Version()))
		return apologyAnswer
	}
	if !resp.Done {
		s.logger.WarnContext(ctx, "answer_generation_incomplete", slog.String("model", s.llmClient.Version()))
	}

	answer, ok := s.validator.Finalize(resp.Text)
	if !ok {
		s.logger.ErrorContext(ctx, "answer_generation_empty", slog.String("model", s.llmClient.Version()))
		return apologyAnswer
	}

	s.logger.InfoContext(ctx, "answer_generated",
		slog.String("model", s.llmClient.Version()),
		slog.Int("context_count", len(rc)),
		slog.Int("answer_length", len(answer)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return answer
}
