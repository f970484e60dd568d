package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"health-rag/internal/domain"
	"health-rag/internal/usecase/retrieval"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// MockLLMClient is a test double for domain.LLMClient.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Chat(ctx context.Context, messages []domain.Message, maxTokens int) (*domain.LLMResponse, error) {
	args := m.Called(ctx, messages, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LLMResponse), args.Error(1)
}

func (m *MockLLMClient) Version() string {
	return "mock-llm"
}

// MockNarrower is a test double for retrieval.Narrower.
type MockNarrower struct {
	mock.Mock
}

func (m *MockNarrower) Narrow(ctx context.Context, candidates *domain.CandidateSet, question string) (domain.RankedContext, error) {
	args := m.Called(ctx, candidates, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.RankedContext), args.Error(1)
}

func (m *MockNarrower) Name() string {
	return "mock"
}

// MockSynthesizer is a test double for usecase.AnswerSynthesizer.
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, question string, history *domain.ConversationHistory, rc domain.RankedContext) string {
	args := m.Called(ctx, question, history, rc)
	return args.String(0)
}

// fakeSource serves canned documents per lowercased query and records calls.
type fakeSource struct {
	mu      sync.Mutex
	results map[string][]domain.Document
	calls   []string
}

func (f *fakeSource) Search(_ context.Context, query string, maxResults int) []domain.Document {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()

	docs := f.results[strings.ToLower(query)]
	if len(docs) > maxResults {
		docs = docs[:maxResults]
	}
	return docs
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// passThroughNarrower keeps every candidate in order.
type passThroughNarrower struct{}

func (passThroughNarrower) Narrow(_ context.Context, candidates *domain.CandidateSet, _ string) (domain.RankedContext, error) {
	return domain.RankedContext(candidates.Documents()), nil
}

func (passThroughNarrower) Name() string { return "pass" }

var _ retrieval.Narrower = passThroughNarrower{}
