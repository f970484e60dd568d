package retrieval_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"health-rag/internal/domain"
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

// MockReranker is a test double for domain.Reranker.
type MockReranker struct {
	mock.Mock
}

func (m *MockReranker) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]domain.RerankResult, error) {
	args := m.Called(ctx, query, candidates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RerankResult), args.Error(1)
}

func (m *MockReranker) ModelName() string {
	return "mock-reranker"
}

// MockVectorEncoder is a test double for domain.VectorEncoder.
type MockVectorEncoder struct {
	mock.Mock
}

func (m *MockVectorEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func (m *MockVectorEncoder) Version() string {
	return "mock-embedder"
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

func candidateSet(docs ...domain.Document) *domain.CandidateSet {
	set := domain.NewCandidateSet()
	for _, d := range docs {
		set.Add(d)
	}
	return set
}

func titles(rc domain.RankedContext) []string {
	out := make([]string, len(rc))
	for i, d := range rc {
		out[i] = d.Title
	}
	return out
}
