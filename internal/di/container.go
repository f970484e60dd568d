package di

import (
	"fmt"
	"log/slog"

	"health-rag/internal/adapter/cohere"
	"health-rag/internal/adapter/medlineplus"
	"health-rag/internal/adapter/openai"
	"health-rag/internal/adapter/rag_augur"
	"health-rag/internal/adapter/tavily"
	"health-rag/internal/domain"
	"health-rag/internal/infra/config"
	"health-rag/internal/infra/httpclient"
	"health-rag/internal/usecase"
	"health-rag/internal/usecase/retrieval"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Adapters
	Medline  *medlineplus.Client
	Source   domain.DocumentSource
	LLM      domain.LLMClient
	Reranker domain.Reranker
	Narrower retrieval.Narrower

	// Usecases
	RetrieveUsecase usecase.RetrieveContextUsecase
	Synthesizer     usecase.AnswerSynthesizer
	ChatUsecase     usecase.ChatUsecase
}

// NewApplicationComponents wires all dependencies from config. Adapters reject missing
// API keys for the selected providers, so those surface here as startup errors.
func NewApplicationComponents(cfg *config.Config, log *slog.Logger) (*ApplicationComponents, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Document sources
	medline := medlineplus.NewClient(medlineplus.Config{
		BaseURL:       cfg.Medline.URL,
		Timeout:       cfg.Medline.Timeout,
		MaxResults:    cfg.RAG.PerQueryLimit,
		RatePerMinute: cfg.Medline.RatePerMinute,
		CacheSize:     cfg.Medline.CacheSize,
		CacheTTL:      cfg.Medline.CacheTTL,
	}, log, httpclient.NewPooledClient(cfg.Medline.Timeout))

	var source domain.DocumentSource = medline
	if cfg.Web.Enabled {
		web, err := tavily.NewClient(cfg.Web.URL, cfg.Web.APIKey, cfg.Web.MaxResults, cfg.Web.Timeout, log,
			httpclient.NewPooledClient(cfg.Web.Timeout))
		if err != nil {
			return nil, fmt.Errorf("web fallback: %w", err)
		}
		source = domain.FallbackSource{Primary: medline, Fallback: web}
		log.Info("web_fallback_enabled", slog.String("url", cfg.Web.URL))
	}

	llm, err := newLLMClient(cfg.LLM, log)
	if err != nil {
		return nil, err
	}

	reranker, err := newReranker(cfg.Rerank, log)
	if err != nil {
		return nil, err
	}

	narrower, err := newNarrower(cfg, reranker, log)
	if err != nil {
		return nil, err
	}

	retrievalConfig := usecase.RetrievalConfig{
		MaxQueries:      cfg.RAG.MaxQueries,
		ExpandMaxTokens: cfg.RAG.ExpandMaxTokens,
		PerQueryLimit:   cfg.RAG.PerQueryLimit,
		Concurrency:     cfg.RAG.AggregateConcurrency,
	}
	if err := retrievalConfig.Validate(); err != nil {
		return nil, fmt.Errorf("retrieval config invalid: %w", err)
	}

	retrieveUsecase := usecase.NewRetrieveContextUsecase(llm, source, narrower, retrievalConfig, log)
	synthesizer := usecase.NewAnswerSynthesizer(
		usecase.NewAnswerPromptBuilder(),
		llm,
		usecase.NewOutputValidator(),
		cfg.LLM.MaxTokens,
		log,
	)
	chatUsecase := usecase.NewChatUsecase(retrieveUsecase, synthesizer, log)

	log.Info("components_wired",
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("llm_model", llm.Version()),
		slog.String("rerank_provider", cfg.Rerank.Provider),
		slog.String("narrowing_strategy", narrower.Name()))

	return &ApplicationComponents{
		Medline:         medline,
		Source:          source,
		LLM:             llm,
		Reranker:        reranker,
		Narrower:        narrower,
		RetrieveUsecase: retrieveUsecase,
		Synthesizer:     synthesizer,
		ChatUsecase:     chatUsecase,
	}, nil
}

func newLLMClient(cfg config.LLMConfig, log *slog.Logger) (domain.LLMClient, error) {
	httpClient := httpclient.NewPooledClient(cfg.Timeout)
	switch cfg.Provider {
	case config.LLMProviderOpenAI:
		client, err := openai.NewClient(cfg.APIKey, cfg.Model, log,
			openai.WithBaseURL(cfg.URL),
			openai.WithHTTPClient(httpClient),
			openai.WithTemperature(cfg.Temperature),
		)
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
		return client, nil
	default:
		return rag_augur.NewOllamaGenerator(cfg.URL, cfg.Model, cfg.Temperature, log, httpClient), nil
	}
}

// newReranker returns nil for the "none" provider.
func newReranker(cfg config.RerankConfig, log *slog.Logger) (domain.Reranker, error) {
	httpClient := httpclient.NewPooledClient(cfg.Timeout)
	switch cfg.Provider {
	case config.RerankProviderAugur:
		log.Info("reranker_enabled", slog.String("provider", cfg.Provider), slog.String("url", cfg.URL))
		return rag_augur.NewRerankerClient(cfg.URL, cfg.Model, cfg.Timeout, log, httpClient), nil
	case config.RerankProviderCohere:
		client, err := cohere.NewClient("", cfg.APIKey, cfg.Model, 0, log, httpClient)
		if err != nil {
			return nil, fmt.Errorf("reranker: %w", err)
		}
		log.Info("reranker_enabled", slog.String("provider", cfg.Provider), slog.String("model", client.ModelName()))
		return client, nil
	default:
		return nil, nil
	}
}

func newNarrower(cfg *config.Config, reranker domain.Reranker, log *slog.Logger) (retrieval.Narrower, error) {
	rerankCfg := retrieval.RerankConfig{Timeout: cfg.Rerank.Timeout}

	if cfg.RAG.NarrowingStrategy != config.NarrowingHybrid {
		return retrieval.NewDirectRerankNarrower(reranker, cfg.RAG.TopN, rerankCfg, log), nil
	}

	splitter, err := domain.NewTextSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("hybrid narrowing: %w", err)
	}
	chunker := domain.NewChunker(splitter, domain.NewSourceHashPolicy())

	var encoder domain.VectorEncoder
	if cfg.RAG.DenseWeight > 0 {
		encoder = rag_augur.NewOllamaEmbedder(cfg.Embedder.URL, cfg.Embedder.Model, log,
			httpclient.NewPooledClient(cfg.Embedder.Timeout))
	}

	return retrieval.NewHybridNarrower(chunker, encoder, reranker, retrieval.HybridConfig{
		TopN:          cfg.RAG.TopN,
		RetrieverK:    cfg.RAG.RetrieverK,
		LexicalWeight: cfg.RAG.LexicalWeight,
		DenseWeight:   cfg.RAG.DenseWeight,
		RRFK:          retrieval.DefaultRRFK,
		Rerank:        rerankCfg,
	}, log), nil
}
