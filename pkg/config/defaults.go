package config

const (
	defaultK          = 6
	defaultMinWords   = 50
	defaultSearchMode = "exact"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "all-minilm"
	defaultEmbeddingDimensions = 384
	defaultEmbeddingAPIKeyEnv  = "GEMINI_API_KEY"

	defaultAPIListen       = ":8080"
	defaultAllowOrigins    = "*"
	defaultClientAPITarget = "http://localhost:8080"

	defaultFeedbackProvider = "jsonl"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "clusterlens.feedback"

	defaultQdrantPort       = 6334
	defaultQdrantCollection = "clusterlens_reference"
	defaultQdrantHnswEf     = 128
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Classifier: ClassifierConfig{
			K:          defaultK,
			MinWords:   defaultMinWords,
			SearchMode: defaultSearchMode,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
			APIKeyEnv:  defaultEmbeddingAPIKeyEnv,
		},
		API: APIConfig{
			Listen:       defaultAPIListen,
			AllowOrigins: defaultAllowOrigins,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Feedback: FeedbackConfig{
			Provider: defaultFeedbackProvider,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Qdrant: QdrantConfig{
			Port:       defaultQdrantPort,
			Collection: defaultQdrantCollection,
			HnswEf:     defaultQdrantHnswEf,
		},
	}
}
