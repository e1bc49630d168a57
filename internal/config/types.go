package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level service configuration, corresponding to legalai.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	Port    int    `yaml:"port" koanf:"port"`
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	RAG    RAGConfig   `yaml:"rag" koanf:"rag"`
	Limits LimitConfig `yaml:"limits" koanf:"limits"`
	S3     S3Config    `yaml:"s3" koanf:"s3"`
}

// RAGConfig holds chunking and retrieval tuning.
type RAGConfig struct {
	ChunkSize         int     `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap      int     `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	RetrievalTopK     int     `yaml:"retrieval_top_k" koanf:"retrieval_top_k"`
	MMRDiversity      float64 `yaml:"mmr_diversity" koanf:"mmr_diversity"`
	EmbedBatchDelayMS int     `yaml:"embed_batch_delay_ms" koanf:"embed_batch_delay_ms"`
}

// LimitConfig bounds external calls and specialist inputs.
type LimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	MaxTokens         int `yaml:"max_tokens" koanf:"max_tokens"`
	MaxContractChars  int `yaml:"max_contract_chars" koanf:"max_contract_chars"`
	StageTimeoutSecs  int `yaml:"stage_timeout_secs" koanf:"stage_timeout_secs"`
}

// S3Config controls the optional remote mirror for tenant indexes.
type S3Config struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	Bucket  string `yaml:"bucket" koanf:"bucket"`
	Region  string `yaml:"region" koanf:"region"`
	Prefix  string `yaml:"prefix" koanf:"prefix"`
}

// VectorStoreDir returns the directory holding per-tenant index files.
func (c *Config) VectorStoreDir() string {
	return c.DataDir + "/vector_stores"
}

// UploadDir returns the directory holding uploaded documents.
func (c *Config) UploadDir() string {
	return c.DataDir + "/uploads"
}

// DatabasePath returns the sqlite database location.
func (c *Config) DatabasePath() string {
	return c.DataDir + "/legalai.db"
}
