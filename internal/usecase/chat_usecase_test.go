package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"health-rag/internal/domain"
	"health-rag/internal/infra/logger"
	"health-rag/internal/usecase"
	"health-rag/internal/usecase/retrieval"
)

// expansionCall matches the single-message search phrase request.
var expansionCall = mock.MatchedBy(func(msgs []domain.Message) bool { return len(msgs) == 1 })

// synthesisCall matches the system+...+user answer request.
var synthesisCall = mock.MatchedBy(func(msgs []domain.Message) bool {
	return len(msgs) >= 2 && msgs[0].Role == domain.RoleSystem
})

func newChat(llm domain.LLMClient, source domain.DocumentSource, narrower retrieval.Narrower, synth usecase.AnswerSynthesizer) usecase.ChatUsecase {
	retrieve := usecase.NewRetrieveContextUsecase(llm, source, narrower, usecase.DefaultRetrievalConfig(), discardLogger())
	if synth == nil {
		synth = newSynthesizer(llm)
	}
	return usecase.NewChatUsecase(retrieve, synth, discardLogger())
}

func TestChat_AnswersFromRetrievedContext(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, expansionCall, mock.Anything).
		Return(&domain.LLMResponse{Text: "asthma", Done: true}, nil).Once()
	llm.On("Chat", mock.Anything, synthesisCall, mock.Anything).
		Return(&domain.LLMResponse{Text: "### Asthma\nAsthma is a condition affecting airways.", Done: true}, nil).Once()

	source := &fakeSource{results: map[string][]domain.Document{
		"asthma": {{Title: "Asthma", Summary: "Asthma is a condition affecting airways...", URL: "https://medlineplus.gov/asthma.html"}},
	}}

	out, err := newChat(llm, source, passThroughNarrower{}, nil).Execute(context.Background(), usecase.ChatInput{Question: "What is asthma?"})

	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeAnswered, out.Outcome)
	assert.Contains(t, out.Answer, "Asthma")
	assert.True(t, strings.HasSuffix(out.Answer, domain.DisclaimerSeparator+domain.Disclaimer))
	assert.Equal(t, []string{"asthma"}, out.Queries)
	assert.Equal(t, []usecase.ContextRef{{Title: "Asthma", URL: "https://medlineplus.gov/asthma.html"}}, out.Contexts)
	assert.Equal(t, []string{"User: What is asthma?", "Assistant: " + out.Answer}, out.History)
	assert.NotEmpty(t, out.RequestID)
	llm.AssertExpectations(t)
}

func TestChat_NoDocumentsSkipsSynthesis(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, expansionCall, mock.Anything).
		Return(&domain.LLMResponse{Text: "zzqxnonexistent", Done: true}, nil).Once()
	synth := new(MockSynthesizer)
	source := &fakeSource{}

	out, err := newChat(llm, source, passThroughNarrower{}, synth).Execute(context.Background(), usecase.ChatInput{Question: "zzqxnonexistent"})

	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeNotFound, out.Outcome)
	assert.Equal(t, domain.WithDisclaimer(domain.NotFoundMessage), out.Answer)
	assert.Contains(t, out.Answer, "couldn't find any information")
	assert.Empty(t, out.Contexts)
	assert.Len(t, out.History, 2)
	synth.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChat_FollowUpUsesHistory(t *testing.T) {
	llm := new(MockLLMClient)
	var expansionPrompt string
	llm.On("Chat", mock.Anything, expansionCall, mock.Anything).
		Run(func(args mock.Arguments) { expansionPrompt = args.Get(1).([]domain.Message)[0].Content }).
		Return(&domain.LLMResponse{Text: "itchy rash causes, contact dermatitis", Done: true}, nil).Once()

	source := &fakeSource{results: map[string][]domain.Document{
		"contact dermatitis": {{Title: "Contact Dermatitis", Summary: "A rash from touching an irritant.", URL: "https://medlineplus.gov/contactdermatitis.html"}},
	}}

	synth := new(MockSynthesizer)
	synth.On("Synthesize", mock.Anything, "what else could it be?",
		mock.MatchedBy(func(h *domain.ConversationHistory) bool { return h.Len() == 2 }),
		mock.Anything).
		Return(domain.WithDisclaimer("It could also be contact dermatitis.")).Once()

	prior := []string{"User: I have a red itchy rash", "Assistant: It may be eczema."}
	out, err := newChat(llm, source, passThroughNarrower{}, synth).Execute(context.Background(), usecase.ChatInput{
		Question: "what else could it be?",
		History:  prior,
	})

	require.NoError(t, err)
	assert.Contains(t, expansionPrompt, "I have a red itchy rash")
	assert.Equal(t, usecase.OutcomeAnswered, out.Outcome)
	require.Len(t, out.History, 4)
	assert.Equal(t, prior, out.History[:2])
	assert.Equal(t, "User: what else could it be?", out.History[2])
	assert.Equal(t, []string{"itchy rash causes", "contact dermatitis"}, out.Queries)
	assert.Equal(t, 2, source.callCount())
	synth.AssertExpectations(t)
}

func TestChat_ExpansionFailureReturnsApology(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, expansionCall, mock.Anything).Return(nil, errors.New("model offline"))
	source := &fakeSource{}

	out, err := newChat(llm, source, passThroughNarrower{}, nil).Execute(context.Background(), usecase.ChatInput{Question: "What is flu?"})

	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeGenerationFailed, out.Outcome)
	assert.Equal(t, domain.WithDisclaimer(domain.ApologyMessage), out.Answer)
	assert.Len(t, out.History, 2)
	assert.Zero(t, source.callCount())
}

func TestChat_NoQueriesIsNotFound(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, expansionCall, mock.Anything).Return(&domain.LLMResponse{Text: " , ", Done: true}, nil)
	source := &fakeSource{}

	out, err := newChat(llm, source, passThroughNarrower{}, nil).Execute(context.Background(), usecase.ChatInput{Question: "hmm"})

	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeNotFound, out.Outcome)
	assert.Empty(t, out.Queries)
	assert.Zero(t, source.callCount())
}

func TestChat_EmptyNarrowingIsNotFound(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, expansionCall, mock.Anything).Return(&domain.LLMResponse{Text: "flu", Done: true}, nil)
	source := &fakeSource{results: map[string][]domain.Document{"flu": {{Title: "Flu", Summary: "Influenza."}}}}
	narrower := new(MockNarrower)
	narrower.On("Narrow", mock.Anything, mock.Anything, "What is flu?").Return(domain.RankedContext{}, nil)

	out, err := newChat(llm, source, narrower, nil).Execute(context.Background(), usecase.ChatInput{Question: "What is flu?"})

	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeNotFound, out.Outcome)
	narrower.AssertExpectations(t)
}

func TestChat_SynthesisFailureIsGenerationFailed(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, expansionCall, mock.Anything).Return(&domain.LLMResponse{Text: "flu", Done: true}, nil)
	llm.On("Chat", mock.Anything, synthesisCall, mock.Anything).Return(nil, errors.New("timeout"))
	source := &fakeSource{results: map[string][]domain.Document{"flu": {{Title: "Flu", Summary: "Influenza."}}}}

	out, err := newChat(llm, source, passThroughNarrower{}, nil).Execute(context.Background(), usecase.ChatInput{Question: "What is flu?"})

	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeGenerationFailed, out.Outcome)
	assert.Equal(t, domain.WithDisclaimer(domain.ApologyMessage), out.Answer)
	assert.Len(t, out.Contexts, 1)
}

func TestChat_NarrowingCancellationPropagates(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, expansionCall, mock.Anything).Return(&domain.LLMResponse{Text: "flu", Done: true}, nil)
	source := &fakeSource{results: map[string][]domain.Document{"flu": {{Title: "Flu", Summary: "Influenza."}}}}
	narrower := new(MockNarrower)
	narrower.On("Narrow", mock.Anything, mock.Anything, mock.Anything).Return(nil, context.Canceled)

	out, err := newChat(llm, source, narrower, nil).Execute(context.Background(), usecase.ChatInput{Question: "What is flu?"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

func TestChat_SynthesisCancellationPropagates(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, expansionCall, mock.Anything).Return(&domain.LLMResponse{Text: "flu", Done: true}, nil)
	source := &fakeSource{results: map[string][]domain.Document{"flu": {{Title: "Flu", Summary: "Influenza."}}}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	synth := new(MockSynthesizer)
	synth.On("Synthesize", mock.Anything, "What is flu?", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(domain.WithDisclaimer(domain.ApologyMessage)).Once()

	out, err := newChat(llm, source, passThroughNarrower{}, synth).Execute(ctx, usecase.ChatInput{Question: "What is flu?"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	synth.AssertExpectations(t)
}

func TestChat_BlankQuestion(t *testing.T) {
	llm := new(MockLLMClient)

	out, err := newChat(llm, &fakeSource{}, passThroughNarrower{}, nil).Execute(context.Background(), usecase.ChatInput{Question: "   "})

	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	assert.Nil(t, out)
	llm.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything)
}

func TestChat_KeepsRequestIDFromContext(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, expansionCall, mock.Anything).Return(&domain.LLMResponse{Text: "", Done: true}, nil)

	ctx := logger.WithRequestID(context.Background(), "req-42")
	out, err := newChat(llm, &fakeSource{}, passThroughNarrower{}, nil).Execute(ctx, usecase.ChatInput{Question: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "req-42", out.RequestID)
}

func TestRetrievalConfig_Validate(t *testing.T) {
	assert.NoError(t, usecase.DefaultRetrievalConfig().Validate())

	cfg := usecase.DefaultRetrievalConfig()
	cfg.PerQueryLimit = 0
	assert.Error(t, cfg.Validate())
}
