// Package cohere is a domain.Reranker backed by the Cohere v2 rerank API.
package cohere

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

const (
	DefaultBaseURL = "https://api.cohere.com"
	DefaultModel   = "rerank-english-v3.0"
)

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	ID      string `json:"id"`
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float32 `json:"relevance_score"`
	} `json:"results"`
}

// Client calls POST /v2/rerank.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	topN       int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient fails with domain.ErrMissingAPIKey when apiKey is blank.
// topN 0 asks Cohere to score every document.
func NewClient(baseURL, apiKey, model string, topN int, logger *slog.Logger, httpClient *http.Client) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("cohere: %w", domain.ErrMissingAPIKey)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		topN:       topN,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Rerank implements domain.Reranker. Results come back most relevant first.
func (c *Client) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]domain.RerankResult, error) {
	if len(candidates) == 0 {
		return []domain.RerankResult{}, nil
	}
	start := time.Now()

	docs := make([]string, len(candidates))
	for i, cand := range candidates {
		docs[i] = cand.Content
	}

	body, err := json.Marshal(rerankRequest{Model: c.model, Query: query, Documents: docs, TopN: c.topN})
	if err != nil {
		return nil, fmt.Errorf("cohere: marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cohere: create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordRerank("cohere", "error")
		return nil, fmt.Errorf("cohere: call rerank endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.RecordRerank("cohere", "error")
		c.logger.WarnContext(ctx, "reranking_failed",
			slog.String("provider", "cohere"),
			slog.Int("status_code", resp.StatusCode),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("cohere: rerank endpoint returned %d: %s", resp.StatusCode, string(buf))
	}

	var payload rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordRerank("cohere", "error")
		return nil, fmt.Errorf("cohere: decode rerank response: %w", err)
	}

	results := make([]domain.RerankResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.Index < 0 || r.Index >= len(candidates) {
			metrics.RecordRerank("cohere", "error")
			return nil, fmt.Errorf("cohere: invalid result index %d for %d candidates", r.Index, len(candidates))
		}
		results = append(results, domain.RerankResult{ID: candidates[r.Index].ID, Score: r.RelevanceScore})
	}

	metrics.RecordRerank("cohere", "ok")
	c.logger.InfoContext(ctx, "reranking_completed",
		slog.String("provider", "cohere"),
		slog.String("model", c.model),
		slog.Int("candidate_count", len(candidates)),
		slog.Int("result_count", len(results)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return results, nil
}

// ModelName returns the rerank model.
func (c *Client) ModelName() string {
	return c.model
}

var _ domain.Reranker = (*Client)(nil)
