package config

const (
	defaultDBProvider    = "sqlite"
	defaultDBTarget      = "bookvec.db"
	defaultPrecisionBits = 32
	defaultDimensions    = 768

	defaultTopK            = 10
	defaultSimilarityFloor = 0.0

	defaultEmbeddingProvider = "ollama"
	defaultEmbeddingTarget   = "http://localhost:11434"
	defaultEmbeddingModel    = "nomic-embed-text"

	defaultTracingEndpoint = "http://localhost:6006/v1/traces"

	defaultEventsTopic = "bookvec.chunks"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		DB: DBConfig{
			Provider:      defaultDBProvider,
			Target:        defaultDBTarget,
			PrecisionBits: defaultPrecisionBits,
			Dimensions:    defaultDimensions,
		},
		Query: QueryConfig{
			TopK:            defaultTopK,
			SimilarityFloor: defaultSimilarityFloor,
			Approximate:     false,
		},
		Embedding: EmbeddingConfig{
			Provider: defaultEmbeddingProvider,
			Target:   defaultEmbeddingTarget,
			Model:    defaultEmbeddingModel,
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: defaultTracingEndpoint,
		},
		Events: EventsConfig{
			Enabled: false,
			Topic:   defaultEventsTopic,
		},
	}
}
