package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"health-rag/internal/domain"
)

// ExpandConfig holds query expansion parameters.
type ExpandConfig struct {
	MaxQueries int
	MaxTokens  int
}

var searchTermsTemplate = domain.MustPromptTemplate("search_terms", `You are a medical search assistant. Generate between 1 and {{.max_queries}} short, distinct search phrases for a medical encyclopedia that together cover the different facets of the user's question: symptoms, conditions, treatments and anything established earlier in the conversation.

If the question is a follow-up (for example "what else could it be"), resolve it against the original symptoms or topic from the conversation history, not only the latest message.

Return ONLY the phrases, separated by commas. No numbering, no explanations.

Conversation history:
{{.history}}

User question: {{.question}}

Search phrases:`, "history", "question", "max_queries")

var (
	listMarker = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)
	labelRE    = regexp.MustCompile(`(?i)^(?:search (?:phrases|terms|queries)|queries|terms)\s*:\s*`)
)

// ExpandQueries asks the model for search phrases covering the question (Stage 1).
// A model failure is returned wrapped in domain.ErrGeneration; an empty parse is not an error.
func ExpandQueries(
	ctx context.Context,
	question string,
	history *domain.ConversationHistory,
	llm domain.LLMClient,
	cfg ExpandConfig,
	logger *slog.Logger,
) ([]string, error) {
	if cfg.MaxQueries <= 0 {
		cfg.MaxQueries = DefaultMaxQueries
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 128
	}

	historyText := domain.EmptyHistoryPlaceholder
	if history != nil {
		historyText = history.Formatted()
	}

	prompt, err := searchTermsTemplate.Render(map[string]string{
		"history":     historyText,
		"question":    question,
		"max_queries": strconv.Itoa(cfg.MaxQueries),
	})
	if err != nil {
		return nil, fmt.Errorf("render %s prompt: %w", searchTermsTemplate.Name(), err)
	}

	start := time.Now()
	resp, err := llm.Chat(ctx, []domain.Message{{Role: domain.RoleUser, Content: prompt}}, cfg.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("expand queries: %w: %w", domain.ErrGeneration, err)
	}

	queries := parseQueries(resp.Text, cfg.MaxQueries)
	logger.InfoContext(ctx, "query_expanded",
		slog.String("model", llm.Version()),
		slog.Any("queries", queries),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return queries, nil
}

// parseQueries splits model output on commas and newlines, strips list markers and quotes,
// drops empties, dedupes case-insensitively and keeps at most limit entries.
func parseQueries(text string, limit int) []string {
	text = labelRE.ReplaceAllString(strings.TrimSpace(text), "")
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	seen := make(map[string]bool, len(parts))
	queries := make([]string, 0, len(parts))
	for _, p := range parts {
		q := strings.TrimSpace(p)
		q = listMarker.ReplaceAllString(q, "")
		q = strings.Trim(q, "\"'`“”‘’ \t")
		q = strings.TrimRight(q, ".")
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, q)
		if len(queries) == limit {
			break
		}
	}
	return queries
}
