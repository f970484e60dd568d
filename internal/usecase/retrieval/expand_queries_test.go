package retrieval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"health-rag/internal/domain"
	"health-rag/internal/usecase/retrieval"
)

func TestExpandQueries_ParsesCommaSeparatedPhrases(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, mock.Anything, 128).
		Return(&domain.LLMResponse{Text: "asthma, asthma treatment, inhaler", Done: true}, nil)

	queries, err := retrieval.ExpandQueries(context.Background(), "What is asthma?", nil, llm,
		retrieval.ExpandConfig{}, discardLogger())

	require.NoError(t, err)
	assert.Equal(t, []string{"asthma", "asthma treatment", "inhaler"}, queries)
	llm.AssertExpectations(t)
}

func TestExpandQueries_PromptCarriesHistoryAndQuestion(t *testing.T) {
	llm := new(MockLLMClient)
	var captured []domain.Message
	llm.On("Chat", mock.Anything, mock.Anything, 64).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]domain.Message)
		}).
		Return(&domain.LLMResponse{Text: "skin rash causes", Done: true}, nil)

	history := domain.LoadHistory([]string{"I have a red itchy rash", "It may be eczema."})
	_, err := retrieval.ExpandQueries(context.Background(), "what else could it be?", history, llm,
		retrieval.ExpandConfig{MaxQueries: 3, MaxTokens: 64}, discardLogger())

	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, domain.RoleUser, captured[0].Role)
	assert.Contains(t, captured[0].Content, "User: I have a red itchy rash")
	assert.Contains(t, captured[0].Content, "Assistant: It may be eczema.")
	assert.Contains(t, captured[0].Content, "what else could it be?")
	assert.Contains(t, captured[0].Content, "between 1 and 3")
}

func TestExpandQueries_EmptyHistoryUsesPlaceholder(t *testing.T) {
	llm := new(MockLLMClient)
	var prompt string
	llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			prompt = args.Get(1).([]domain.Message)[0].Content
		}).
		Return(&domain.LLMResponse{Text: "headache"}, nil)

	_, err := retrieval.ExpandQueries(context.Background(), "headache", domain.LoadHistory(nil), llm,
		retrieval.ExpandConfig{}, discardLogger())

	require.NoError(t, err)
	assert.Contains(t, prompt, domain.EmptyHistoryPlaceholder)
}

func TestExpandQueries_CleansAndDedupes(t *testing.T) {
	tests := []struct {
		name   string
		output string
		limit  int
		want   []string
	}{
		{
			name:   "label and list markers",
			output: "Search phrases:\n1. Flu symptoms\n2) influenza treatment\n- fever.",
			limit:  5,
			want:   []string{"Flu symptoms", "influenza treatment", "fever"},
		},
		{
			name:   "quotes and case-insensitive duplicates",
			output: `"diabetes", 'Diabetes', type 2 diabetes`,
			limit:  5,
			want:   []string{"diabetes", "type 2 diabetes"},
		},
		{
			name:   "caps at limit",
			output: "a1, b2, c3, d4",
			limit:  2,
			want:   []string{"a1", "b2"},
		},
		{
			name:   "blank output",
			output: "  \n , ",
			limit:  5,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := new(MockLLMClient)
			llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).
				Return(&domain.LLMResponse{Text: tt.output}, nil)

			queries, err := retrieval.ExpandQueries(context.Background(), "q", nil, llm,
				retrieval.ExpandConfig{MaxQueries: tt.limit}, discardLogger())

			require.NoError(t, err)
			assert.Equal(t, tt.want, queries)
		})
	}
}

func TestExpandQueries_ModelFailureWrapsGenerationError(t *testing.T) {
	llm := new(MockLLMClient)
	llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	queries, err := retrieval.ExpandQueries(context.Background(), "q", nil, llm,
		retrieval.ExpandConfig{}, discardLogger())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, queries)
}
