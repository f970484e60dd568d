// Package tavily is a web search DocumentSource used when MedlinePlus has nothing on a topic.
package tavily

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
	// SourceName labels metrics and logs.
	SourceName = "tavily"

	DefaultBaseURL    = "https://api.tavily.com"
	DefaultMaxResults = 3
)

type searchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Client calls POST /search. Failures are logged and degrade to an empty result.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient fails with domain.ErrMissingAPIKey when apiKey is blank.
func NewClient(baseURL, apiKey string, maxResults int, timeout time.Duration, logger *slog.Logger, httpClient *http.Client) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("tavily: %w", domain.ErrMissingAPIKey)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		maxResults: maxResults,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Search implements domain.DocumentSource.
func (c *Client) Search(ctx context.Context, query string, maxResults int) []domain.Document {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Document{}
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	start := time.Now()
	docs, err := c.search(ctx, query, maxResults)
	if err != nil {
		metrics.RecordDocumentSearch(SourceName, "error")
		c.logger.WarnContext(ctx, "web_search_failed",
			slog.String("source", SourceName),
			slog.String("query", query),
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return []domain.Document{}
	}

	status := "ok"
	if len(docs) == 0 {
		status = "empty"
	}
	metrics.RecordDocumentSearch(SourceName, status)
	c.logger.InfoContext(ctx, "web_search_completed",
		slog.String("source", SourceName),
		slog.String("query", query),
		slog.Int("document_count", len(docs)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return docs
}

func (c *Client) search(ctx context.Context, query string, maxResults int) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(searchRequest{Query: query, MaxResults: maxResults, SearchDepth: "basic"})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call search endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(buf)))
	}

	var payload searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]domain.Document, 0, len(payload.Results))
	for _, r := range payload.Results {
		doc := domain.Document{
			Title:   strings.TrimSpace(r.Title),
			Summary: strings.TrimSpace(r.Content),
			URL:     r.URL,
		}
		if !doc.Valid() {
			continue
		}
		docs = append(docs, doc)
		if len(docs) == maxResults {
			break
		}
	}
	return docs, nil
}

var _ domain.DocumentSource = (*Client)(nil)
