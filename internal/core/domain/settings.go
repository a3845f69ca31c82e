package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a provider for embeddings or answer generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderTemplate composes answers from a fixed template, no model.
	AIProviderTemplate AIProvider = "template"
)

// IsValidEmbedding returns true if the provider can produce embeddings.
func (p AIProvider) IsValidEmbedding() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// IsValidLLM returns true if the provider can compose answers.
func (p AIProvider) IsValidLLM() bool {
	return p == AIProviderTemplate || p == AIProviderOpenAI
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Feature hashing (offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderTemplate:
		return "Template (no model)"
	default:
		return unknownDescription
	}
}

// IndexSettings configures the versioned vector index.
type IndexSettings struct {
	// Dir is the base directory holding index versions.
	Dir string `toml:"dir"`

	// Dimension is the embedding vector length.
	Dimension int `toml:"dimension"`

	// KeepVersions prunes older versions after a successful run. Zero keeps all.
	KeepVersions int `toml:"keep_versions"`
}

// ChunkerSettings configures campaign chunking.
type ChunkerSettings struct {
	Strategy  ChunkingStrategy `toml:"strategy"`
	ChunkSize int              `toml:"chunk_size"`
	Overlap   int              `toml:"overlap"`
}

// RetrievalSettings configures query defaults.
type RetrievalSettings struct {
	Strategy            SearchStrategy `toml:"strategy"`
	K                   int            `toml:"k"`
	SimilarityThreshold float64        `toml:"similarity_threshold"`
	OverFetchFactor     int            `toml:"overfetch_factor"`
	KeywordFactor       int            `toml:"keyword_factor"`
	FallbackCount       int            `toml:"fallback_count"`
}

// ScoringSettings holds the tunable rerank constants. Their relative
// precedence is fixed by the retriever; only magnitudes are configurable.
type ScoringSettings struct {
	SemanticWeight        float64 `toml:"semantic_weight"`
	OverlapWeight         float64 `toml:"overlap_weight"`
	TitleDescriptionBonus float64 `toml:"title_description_bonus"`
	VariationBonus        float64 `toml:"variation_bonus"`
	VariationTitleBonus   float64 `toml:"variation_title_bonus"`
	VariationIDBonus      float64 `toml:"variation_id_bonus"`
	HybridTitleBonus      float64 `toml:"hybrid_title_bonus"`
	HybridIDBonus         float64 `toml:"hybrid_id_bonus"`
	MaxScore              float64 `toml:"max_score"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider          AIProvider `toml:"provider"`
	Model             string     `toml:"model"`
	BaseURL           string     `toml:"base_url"`
	APIKeyEnv         string     `toml:"api_key_env"`
	TimeoutSeconds    int        `toml:"timeout_seconds"`
	BatchSize         int        `toml:"batch_size"`
	RequestsPerSecond float64    `toml:"requests_per_second"`
}

// LLMSettings holds answer generator configuration.
type LLMSettings struct {
	Provider       AIProvider `toml:"provider"`
	Model          string     `toml:"model"`
	BaseURL        string     `toml:"base_url"`
	APIKeyEnv      string     `toml:"api_key_env"`
	TimeoutSeconds int        `toml:"timeout_seconds"`
	MaxTokens      int        `toml:"max_tokens"`
	Temperature    float32    `toml:"temperature"`
}

// StorageSettings configures the campaign and run metadata database.
type StorageSettings struct {
	// DataDir holds the SQLite database. Empty uses ~/.campaign-rag/data.
	DataDir string `toml:"data_dir"`
}

// FeedSettings configures where campaign records are read from.
type FeedSettings struct {
	Dir string `toml:"dir"`
}

// Settings is the root application configuration.
type Settings struct {
	Index     IndexSettings     `toml:"index"`
	Chunker   ChunkerSettings   `toml:"chunker"`
	Retrieval RetrievalSettings `toml:"retrieval"`
	Scoring   ScoringSettings   `toml:"scoring"`
	Embedding EmbeddingSettings `toml:"embedding"`
	LLM       LLMSettings       `toml:"llm"`
	Storage   StorageSettings   `toml:"storage"`
	Feed      FeedSettings      `toml:"feed"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexSettings{
			Dir:       "data/vector_index",
			Dimension: 768,
		},
		Chunker: ChunkerSettings{
			Strategy:  ChunkingCampaign,
			ChunkSize: 300,
			Overlap:   50,
		},
		Retrieval: RetrievalSettings{
			Strategy:            SearchStrategyHybrid,
			K:                   5,
			SimilarityThreshold: 50.0,
			OverFetchFactor:     15,
			KeywordFactor:       5,
			FallbackCount:       10,
		},
		Scoring: DefaultScoringSettings(),
		Embedding: EmbeddingSettings{
			Provider:          AIProviderHashing,
			APIKeyEnv:         "OPENAI_API_KEY",
			TimeoutSeconds:    60,
			BatchSize:         64,
			RequestsPerSecond: 0,
		},
		LLM: LLMSettings{
			Provider:       AIProviderTemplate,
			Model:          "gpt-4.1-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			TimeoutSeconds: 60,
			MaxTokens:      800,
			Temperature:    0.7,
		},
		Feed: FeedSettings{
			Dir: "data/campaigns",
		},
	}
}

// DefaultScoringSettings returns the hand-tuned rerank constants.
func DefaultScoringSettings() ScoringSettings {
	return ScoringSettings{
		SemanticWeight:        0.4,
		OverlapWeight:         0.3,
		TitleDescriptionBonus: 0.1,
		VariationBonus:        0.01,
		VariationTitleBonus:   0.02,
		VariationIDBonus:      0.03,
		HybridTitleBonus:      0.01,
		HybridIDBonus:         0.02,
		MaxScore:              0.99,
	}
}

// ApplyDefaults fills zero values with the built-in defaults.
func (s *Settings) ApplyDefaults() {
	d := DefaultSettings()
	if s.Index.Dir == "" {
		s.Index.Dir = d.Index.Dir
	}
	if s.Index.Dimension <= 0 {
		s.Index.Dimension = d.Index.Dimension
	}
	if !s.Chunker.Strategy.IsValid() {
		s.Chunker.Strategy = d.Chunker.Strategy
	}
	if s.Chunker.ChunkSize <= 0 {
		s.Chunker.ChunkSize = d.Chunker.ChunkSize
	}
	if s.Chunker.Overlap < 0 || s.Chunker.Overlap >= s.Chunker.ChunkSize {
		s.Chunker.Overlap = d.Chunker.Overlap
		if s.Chunker.Overlap >= s.Chunker.ChunkSize {
			s.Chunker.Overlap = s.Chunker.ChunkSize / 4
		}
	}
	if !s.Retrieval.Strategy.IsValid() {
		s.Retrieval.Strategy = d.Retrieval.Strategy
	}
	if s.Retrieval.K <= 0 {
		s.Retrieval.K = d.Retrieval.K
	}
	if s.Retrieval.SimilarityThreshold <= 0 {
		s.Retrieval.SimilarityThreshold = d.Retrieval.SimilarityThreshold
	}
	if s.Retrieval.OverFetchFactor <= 0 {
		s.Retrieval.OverFetchFactor = d.Retrieval.OverFetchFactor
	}
	if s.Retrieval.KeywordFactor <= 0 {
		s.Retrieval.KeywordFactor = d.Retrieval.KeywordFactor
	}
	if s.Retrieval.FallbackCount <= 0 {
		s.Retrieval.FallbackCount = d.Retrieval.FallbackCount
	}
	if s.Scoring == (ScoringSettings{}) {
		s.Scoring = d.Scoring
	}
	if s.Scoring.MaxScore <= 0 || s.Scoring.MaxScore >= 1 {
		s.Scoring.MaxScore = d.Scoring.MaxScore
	}
	if !s.Embedding.Provider.IsValidEmbedding() {
		s.Embedding.Provider = d.Embedding.Provider
	}
	if s.Embedding.APIKeyEnv == "" {
		s.Embedding.APIKeyEnv = d.Embedding.APIKeyEnv
	}
	if s.Embedding.TimeoutSeconds <= 0 {
		s.Embedding.TimeoutSeconds = d.Embedding.TimeoutSeconds
	}
	if s.Embedding.BatchSize <= 0 {
		s.Embedding.BatchSize = d.Embedding.BatchSize
	}
	if !s.LLM.Provider.IsValidLLM() {
		s.LLM.Provider = d.LLM.Provider
	}
	if s.LLM.Model == "" {
		s.LLM.Model = d.LLM.Model
	}
	if s.LLM.APIKeyEnv == "" {
		s.LLM.APIKeyEnv = d.LLM.APIKeyEnv
	}
	if s.LLM.TimeoutSeconds <= 0 {
		s.LLM.TimeoutSeconds = d.LLM.TimeoutSeconds
	}
	if s.LLM.MaxTokens <= 0 {
		s.LLM.MaxTokens = d.LLM.MaxTokens
	}
	if s.Feed.Dir == "" {
		s.Feed.Dir = d.Feed.Dir
	}
}

// Timeout returns the embedding request timeout.
func (e EmbeddingSettings) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// Timeout returns the generation request timeout.
func (l LLMSettings) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}
