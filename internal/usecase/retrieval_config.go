package usecase

import (
	"fmt"

	"health-rag/internal/usecase/retrieval"
)

// RetrievalConfig holds tunable parameters for query expansion and candidate aggregation.
// Narrowing parameters live on the Narrower itself.
type RetrievalConfig struct {
	// MaxQueries caps the search phrases taken from the model.
	MaxQueries int
	// ExpandMaxTokens bounds the expansion reply.
	ExpandMaxTokens int
	// PerQueryLimit is the number of documents requested per search phrase.
	PerQueryLimit int
	// Concurrency bounds parallel document source lookups.
	Concurrency int
}

// DefaultRetrievalConfig returns the defaults used when nothing is configured.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MaxQueries:      retrieval.DefaultMaxQueries,
		ExpandMaxTokens: 128,
		PerQueryLimit:   retrieval.DefaultPerQueryLimit,
		Concurrency:     retrieval.DefaultConcurrency,
	}
}

// Validate checks if the configuration values are within acceptable ranges.
func (c RetrievalConfig) Validate() error {
	if c.MaxQueries <= 0 {
		return fmt.Errorf("maxQueries must be positive, got %d", c.MaxQueries)
	}
	if c.ExpandMaxTokens <= 0 {
		return fmt.Errorf("expandMaxTokens must be positive, got %d", c.ExpandMaxTokens)
	}
	if c.PerQueryLimit <= 0 {
		return fmt.Errorf("perQueryLimit must be positive, got %d", c.PerQueryLimit)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}

func (c RetrievalConfig) expand() retrieval.ExpandConfig {
	return retrieval.ExpandConfig{MaxQueries: c.MaxQueries, MaxTokens: c.ExpandMaxTokens}
}

func (c RetrievalConfig) aggregate() retrieval.AggregateConfig {
	return retrieval.AggregateConfig{PerQueryLimit: c.PerQueryLimit, Concurrency: c.Concurrency}
}
