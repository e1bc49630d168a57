package config

// DefaultDisclaimer is appended to every completed response and attached to
// refusals. It is a product requirement, not configurable per tenant.
const DefaultDisclaimer = "This platform provides general legal information and not legal advice. Consult a qualified attorney for specific legal matters."

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		Port:              8080,
		DataDir:           "data",
		RAG: RAGConfig{
			ChunkSize:         600,
			ChunkOverlap:      100,
			RetrievalTopK:     5,
			MMRDiversity:      0.3,
			EmbedBatchDelayMS: 200,
		},
		Limits: LimitConfig{
			RequestsPerMinute: 60,
			MaxTokens:         2000,
			MaxContractChars:  20000,
			StageTimeoutSecs:  60,
		},
		S3: S3Config{
			Enabled: false,
			Region:  "us-east-1",
			Prefix:  "vector_stores",
		},
	}
}
