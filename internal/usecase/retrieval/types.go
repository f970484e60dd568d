package retrieval

import (
	"time"

	"health-rag/internal/domain"
)

// StageContext carries data between pipeline stages of one chat request.
type StageContext struct {
	// Input
	RequestID string
	Question  string
	History   *domain.ConversationHistory

	// Stage 1 output
	Queries []string

	// Stage 2 output
	Candidates *domain.CandidateSet

	// Stage 3 output
	Context domain.RankedContext
}

// Narrowing strategies.
const (
	StrategyRerank = "rerank"
	StrategyHybrid = "hybrid"
)

// Defaults shared by the stages and the config layer.
const (
	DefaultMaxQueries     = 5
	DefaultPerQueryLimit  = 3
	DefaultConcurrency    = 4
	DefaultTopN           = 5
	DefaultRetrieverK     = 10
	DefaultLexicalWeight  = 0.4
	DefaultDenseWeight    = 0.6
	DefaultRRFK           = 60.0
	DefaultRerankTimeout  = 10 * time.Second
	DefaultMaxRerankItems = 30
)
