package rag_augur

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"health-rag/internal/domain"
	"health-rag/internal/infra/metrics"
)

const rerankProvider = "augur"

type rerankRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	Model      string   `json:"model,omitempty"`
}

type rerankScore struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

type rerankResponse struct {
	Results []rerankScore `json:"results"`
	Model   string        `json:"model"`
}

// RerankerClient scores health topic passages with a cross-encoder served at POST <base>/v1/rerank.
type RerankerClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRerankerClient builds a client for the rerank service at baseURL.
// Without an explicit client a plain http.Client with the given timeout is used.
func NewRerankerClient(baseURL, model string, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *RerankerClient {
	httpClient := &http.Client{Timeout: timeout}
	if len(client) > 0 && client[0] != nil {
		httpClient = client[0]
	}
	return &RerankerClient{
		endpoint:   strings.TrimRight(baseURL, "/") + "/v1/rerank",
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Rerank returns one result per scored passage, in the order the service reports them.
func (c *RerankerClient) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]domain.RerankResult, error) {
	if len(candidates) == 0 {
		return []domain.RerankResult{}, nil
	}
	start := time.Now()

	scores, model, err := c.score(ctx, query, candidates)
	if err != nil {
		metrics.RecordRerank(rerankProvider, "error")
		c.logger.WarnContext(ctx, "reranking_failed",
			slog.String("provider", rerankProvider),
			slog.Int("candidate_count", len(candidates)),
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, err
	}

	results := make([]domain.RerankResult, 0, len(scores))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(candidates) {
			metrics.RecordRerank(rerankProvider, "error")
			return nil, fmt.Errorf("rerank: invalid result index %d for %d candidates", s.Index, len(candidates))
		}
		results = append(results, domain.RerankResult{ID: candidates[s.Index].ID, Score: s.Score})
	}

	metrics.RecordRerank(rerankProvider, "ok")
	c.logger.InfoContext(ctx, "reranking_completed",
		slog.String("provider", rerankProvider),
		slog.String("model", model),
		slog.Int("candidate_count", len(candidates)),
		slog.Int("result_count", len(results)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return results, nil
}

func (c *RerankerClient) score(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]rerankScore, string, error) {
	passages := make([]string, len(candidates))
	for i, cand := range candidates {
		passages[i] = cand.Content
	}

	payload, err := json.Marshal(rerankRequest{Query: query, Candidates: passages, Model: c.model})
	if err != nil {
		return nil, "", fmt.Errorf("rerank: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("rerank: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("rerank: call endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("rerank: endpoint returned %d: %s", resp.StatusCode, truncateString(string(body), 500))
	}

	var decoded rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, "", fmt.Errorf("rerank: decode response: %w", err)
	}
	return decoded.Results, decoded.Model, nil
}

// ModelName returns the configured cross-encoder.
func (c *RerankerClient) ModelName() string {
	return c.model
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ domain.Reranker = (*RerankerClient)(nil)
