package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	LogLevel        string
}

// MedlineConfig holds the MedlinePlus search client settings.
type MedlineConfig struct {
	URL           string
	Timeout       time.Duration
	RatePerMinute int
	CacheSize     int
	CacheTTL      time.Duration
}

// WebConfig holds the optional web search fallback settings.
type WebConfig struct {
	Enabled    bool
	URL        string
	APIKey     string
	MaxResults int
	Timeout    time.Duration
}

// LLMConfig holds the generative model settings.
type LLMConfig struct {
	Provider    string // ollama or openai
	URL         string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxTokens   int
	APIKey      string
}

// EmbedderConfig holds the embedding model settings used by hybrid narrowing.
type EmbedderConfig struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// RerankConfig holds cross-encoder settings.
type RerankConfig struct {
	Provider string // none, augur or cohere
	URL      string
	Model    string
	Timeout  time.Duration
	APIKey   string
}

// RAGConfig holds pipeline tuning.
type RAGConfig struct {
	NarrowingStrategy    string
	TopN                 int
	PerQueryLimit        int
	MaxQueries           int
	ChunkSize            int
	ChunkOverlap         int
	LexicalWeight        float64
	DenseWeight          float64
	RetrieverK           int
	AggregateConcurrency int
	ExpandMaxTokens      int
}

// OTelConfig holds OpenTelemetry export settings.
type OTelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

type Config struct {
	Env      string
	Server   ServerConfig
	Medline  MedlineConfig
	Web      WebConfig
	LLM      LLMConfig
	Embedder EmbedderConfig
	Rerank   RerankConfig
	RAG      RAGConfig
	OTel     OTelConfig
}

// Provider and strategy names accepted by Validate.
const (
	LLMProviderOllama = "ollama"
	LLMProviderOpenAI = "openai"

	RerankProviderNone   = "none"
	RerankProviderAugur  = "augur"
	RerankProviderCohere = "cohere"

	NarrowingRerank = "rerank"
	NarrowingHybrid = "hybrid"
)

// Load reads an optional .env file (ENV_FILE, default ".env") and then the environment.
// Variables already set in the environment win over the file.
func Load() *Config {
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))
	return fromEnv()
}

// LoadFile is Load with an explicit env file that must exist.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("load env file %s: %w", path, err)
	}
	return fromEnv(), nil
}

func fromEnv() *Config {
	llmProvider := strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderOllama))
	llmURL := "http://localhost:11434"
	llmModel := "llama3.1:8b"
	if llmProvider == LLMProviderOpenAI {
		llmURL = "https://api.openai.com/v1"
		llmModel = "gpt-4o-mini"
	}

	return &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "9010"),
			ShutdownTimeout: getEnvSeconds("SHUTDOWN_TIMEOUT", 10),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
		},
		Medline: MedlineConfig{
			URL:           getEnv("MEDLINE_URL", "https://wsearch.nlm.nih.gov/ws/query"),
			Timeout:       getEnvSeconds("MEDLINE_TIMEOUT", 20),
			RatePerMinute: getEnvInt("MEDLINE_RATE_PER_MIN", 80),
			CacheSize:     getEnvInt("MEDLINE_CACHE_SIZE", 256),
			CacheTTL:      time.Duration(getEnvInt("MEDLINE_CACHE_TTL_MINUTES", 30)) * time.Minute,
		},
		Web: WebConfig{
			Enabled:    getEnvBool("WEB_FALLBACK_ENABLED", false),
			URL:        getEnv("TAVILY_URL", "https://api.tavily.com"),
			APIKey:     getSecret("TAVILY_API_KEY", "TAVILY_API_KEY_FILE", ""),
			MaxResults: getEnvInt("TAVILY_MAX_RESULTS", 3),
			Timeout:    getEnvSeconds("TAVILY_TIMEOUT", 20),
		},
		LLM: LLMConfig{
			Provider:    llmProvider,
			URL:         getEnv("LLM_URL", llmURL),
			Model:       getEnv("LLM_MODEL", llmModel),
			Temperature: getEnvFloat64("LLM_TEMPERATURE", 0),
			Timeout:     getEnvSeconds("LLM_TIMEOUT", 120),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1024),
			APIKey:      getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
		},
		Embedder: EmbedderConfig{
			URL:     getEnv("EMBEDDER_URL", "http://localhost:11434"),
			Model:   getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			Timeout: getEnvSeconds("EMBEDDER_TIMEOUT", 30),
		},
		Rerank: RerankConfig{
			Provider: strings.ToLower(getEnv("RERANK_PROVIDER", RerankProviderNone)),
			URL:      getEnv("RERANK_URL", "http://localhost:8080"),
			Model:    getEnv("RERANK_MODEL", ""),
			Timeout:  getEnvSeconds("RERANK_TIMEOUT", 10),
			APIKey:   getSecret("COHERE_API_KEY", "COHERE_API_KEY_FILE", ""),
		},
		RAG: RAGConfig{
			NarrowingStrategy:    strings.ToLower(getEnv("RAG_NARROWING_STRATEGY", NarrowingRerank)),
			TopN:                 getEnvInt("RAG_TOP_N", 5),
			PerQueryLimit:        getEnvInt("RAG_PER_QUERY_LIMIT", 3),
			MaxQueries:           getEnvInt("RAG_MAX_QUERIES", 5),
			ChunkSize:            getEnvInt("RAG_CHUNK_SIZE", 500),
			ChunkOverlap:         getEnvInt("RAG_CHUNK_OVERLAP", 100),
			LexicalWeight:        getEnvFloat64("RAG_LEXICAL_WEIGHT", 0.4),
			DenseWeight:          getEnvFloat64("RAG_DENSE_WEIGHT", 0.6),
			RetrieverK:           getEnvInt("RAG_RETRIEVER_K", 10),
			AggregateConcurrency: getEnvInt("RAG_AGGREGATE_CONCURRENCY", 4),
			ExpandMaxTokens:      getEnvInt("RAG_EXPAND_MAX_TOKENS", 128),
		},
		OTel: OTelConfig{
			Enabled:     getEnvBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "health-rag"),
			SampleRatio: getEnvFloat64("OTEL_TRACE_SAMPLE_RATIO", 0.1),
		},
	}
}

// Validate checks ranges and provider names. Missing API keys are reported by the
// adapters at construction time.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case LLMProviderOllama, LLMProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", LLMProviderOllama, LLMProviderOpenAI, c.LLM.Provider))
	}
	switch c.Rerank.Provider {
	case RerankProviderNone, RerankProviderAugur, RerankProviderCohere:
	default:
		errs = append(errs, fmt.Errorf("RERANK_PROVIDER must be one of none, augur, cohere, got %q", c.Rerank.Provider))
	}
	switch c.RAG.NarrowingStrategy {
	case NarrowingRerank, NarrowingHybrid:
	default:
		errs = append(errs, fmt.Errorf("RAG_NARROWING_STRATEGY must be %q or %q, got %q", NarrowingRerank, NarrowingHybrid, c.RAG.NarrowingStrategy))
	}

	if c.RAG.TopN <= 0 {
		errs = append(errs, fmt.Errorf("RAG_TOP_N must be positive, got %d", c.RAG.TopN))
	}
	if c.RAG.PerQueryLimit <= 0 {
		errs = append(errs, fmt.Errorf("RAG_PER_QUERY_LIMIT must be positive, got %d", c.RAG.PerQueryLimit))
	}
	if c.RAG.MaxQueries <= 0 {
		errs = append(errs, fmt.Errorf("RAG_MAX_QUERIES must be positive, got %d", c.RAG.MaxQueries))
	}
	if c.RAG.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("RAG_CHUNK_SIZE must be positive, got %d", c.RAG.ChunkSize))
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		errs = append(errs, fmt.Errorf("RAG_CHUNK_OVERLAP must be in [0, %d), got %d", c.RAG.ChunkSize, c.RAG.ChunkOverlap))
	}
	if c.RAG.LexicalWeight < 0 || c.RAG.DenseWeight < 0 || c.RAG.LexicalWeight+c.RAG.DenseWeight == 0 {
		errs = append(errs, fmt.Errorf("RAG_LEXICAL_WEIGHT and RAG_DENSE_WEIGHT must be non-negative and not both zero"))
	}
	if c.RAG.RetrieverK <= 0 {
		errs = append(errs, fmt.Errorf("RAG_RETRIEVER_K must be positive, got %d", c.RAG.RetrieverK))
	}
	if c.RAG.AggregateConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("RAG_AGGREGATE_CONCURRENCY must be positive, got %d", c.RAG.AggregateConcurrency))
	}
	if c.Medline.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("MEDLINE_TIMEOUT must be positive"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens))
	}
	if c.OTel.SampleRatio < 0 || c.OTel.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("OTEL_TRACE_SAMPLE_RATIO must be in [0, 1], got %v", c.OTel.SampleRatio))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getSecret prefers the variable itself, then the file named by fileEnvKey.
func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return strings.TrimSpace(value)
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}
