package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/moku180/legalaichatbot/internal/agents"
	"github.com/moku180/legalaichatbot/internal/blob"
	"github.com/moku180/legalaichatbot/internal/chunker"
	"github.com/moku180/legalaichatbot/internal/config"
	"github.com/moku180/legalaichatbot/internal/db"
	"github.com/moku180/legalaichatbot/internal/embeddings"
	"github.com/moku180/legalaichatbot/internal/history"
	"github.com/moku180/legalaichatbot/internal/ingest"
	"github.com/moku180/legalaichatbot/internal/llm"
	"github.com/moku180/legalaichatbot/internal/pipeline"
	"github.com/moku180/legalaichatbot/internal/retriever"
	"github.com/moku180/legalaichatbot/internal/vectorindex"
)

// components is the fully wired service graph shared by the serve, ingest
// and query commands.
type components struct {
	cfg       *config.Config
	database  *db.DB
	chunker   *chunker.Chunker
	index     *vectorindex.Store
	documents *ingest.Store
	processor *ingest.Processor
	history   *history.Store
	pipeline  *pipeline.Pipeline
}

func (c *components) Close() {
	if c.database != nil {
		c.database.Close()
	}
}

// buildComponents loads configuration and assembles every component the
// commands need, from the embedding client up to the query pipeline.
func buildComponents(ctx context.Context) (*components, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.VectorStoreDir(), cfg.UploadDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.Limits.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.Limits.RequestsPerMinute)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	adaptive := embeddings.NewAdaptiveClient(embedder, time.Duration(cfg.RAG.EmbedBatchDelayMS)*time.Millisecond)

	var mirror blob.Storage
	if cfg.S3.Enabled {
		mirror, err = blob.NewS3Storage(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("creating S3 mirror: %w", err)
		}
	}

	index := vectorindex.NewStore(cfg.VectorStoreDir(), adaptive, mirror)
	ch := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)

	documents := ingest.NewStore(database)
	processor := ingest.NewProcessor(documents, ch, index, nil)
	hist := history.NewStore(database)

	ret := retriever.New(index, cfg.RAG.RetrievalTopK, cfg.RAG.MMRDiversity)
	pipe := pipeline.New(
		agents.NewSafetyAgent(provider, cfg.Model),
		agents.NewClassifier(provider, cfg.Model),
		agents.NewSpecialistSet(provider, cfg.Model, cfg.Limits.MaxContractChars),
		agents.NewVerifier(provider, cfg.Model),
		ret,
		hist,
		config.DefaultDisclaimer,
		time.Duration(cfg.Limits.StageTimeoutSecs)*time.Second,
	)

	return &components{
		cfg:       cfg,
		database:  database,
		chunker:   ch,
		index:     index,
		documents: documents,
		processor: processor,
		history:   hist,
		pipeline:  pipe,
	}, nil
}

func newEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil

	case config.ProviderOllama:
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, 768, host), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}
