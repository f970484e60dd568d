// Package medlineplus is a DocumentSource backed by the NLM MedlinePlus health topics search service.
package medlineplus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"health-rag/internal/domain"
	"health-rag/internal/infra/metrics"
)

const (
	// SourceName labels metrics and logs.
	SourceName = "medlineplus"

	DefaultBaseURL    = "https://wsearch.nlm.nih.gov/ws/query"
	DefaultTimeout    = 20 * time.Second
	DefaultMaxResults = 3
	// DefaultRatePerMinute stays under the 85 requests/minute/IP NLM allows.
	DefaultRatePerMinute = 80

	healthTopicsDB = "healthTopics"
)

// Config holds client settings. Zero values fall back to defaults; CacheSize 0 disables caching
// and RatePerMinute 0 disables rate limiting.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	MaxResults    int
	RatePerMinute int
	CacheSize     int
	CacheTTL      time.Duration
}

// Client searches MedlinePlus health topics. Every failure degrades to an empty result.
type Client struct {
	baseURL    string
	timeout    time.Duration
	maxResults int
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *expirable.LRU[string, []domain.Document]
	logger     *slog.Logger
}

// NewClient builds a client. A nil httpClient gets a plain client bounded by the configured timeout.
func NewClient(cfg Config, logger *slog.Logger, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1)
	}

	var cache *expirable.LRU[string, []domain.Document]
	if cfg.CacheSize > 0 {
		cache = expirable.NewLRU[string, []domain.Document](cfg.CacheSize, nil, cfg.CacheTTL)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		maxResults: cfg.MaxResults,
		httpClient: httpClient,
		limiter:    limiter,
		cache:      cache,
		logger:     logger,
	}
}

// Search returns at most maxResults documents for query. Blank queries return nothing
// without a network call.
func (c *Client) Search(ctx context.Context, query string, maxResults int) []domain.Document {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Document{}
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	key := strconv.Itoa(maxResults) + "|" + strings.ToLower(query)
	if c.cache != nil {
		if docs, ok := c.cache.Get(key); ok {
			metrics.RecordDocumentSearch(SourceName, "cache_hit")
			return slices.Clone(docs)
		}
	}

	start := time.Now()
	docs, err := c.fetch(ctx, query, maxResults)
	if err != nil {
		metrics.RecordDocumentSearch(SourceName, "error")
		c.logger.WarnContext(ctx, "document_search_failed",
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
	c.logger.InfoContext(ctx, "document_search_completed",
		slog.String("source", SourceName),
		slog.String("query", query),
		slog.Int("document_count", len(docs)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	if c.cache != nil {
		c.cache.Add(key, slices.Clone(docs))
	}
	return docs
}

func (c *Client) fetch(ctx context.Context, query string, maxResults int) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("db", healthTopicsDB)
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call search endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	docs, err := parseDocuments(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(docs) > maxResults {
		docs = docs[:maxResults]
	}
	return docs, nil
}

var _ domain.DocumentSource = (*Client)(nil)
