package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/clusterlens/clusterlens/pkg/dotdir"
)

// EnvPrefix is prepended to every environment override,
// e.g. CLUSTERLENS_CLASSIFIER_K.
const EnvPrefix = "CLUSTERLENS"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the CLUSTERLENS_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (CLUSTERLENS_API_LISTEN, CLUSTERLENS_CLASSIFIER_K, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if v.GetInt("version") != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", v.GetInt("version"), CurrentV)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Reference
	v.SetDefault("reference.snapshot_path", d.Reference.SnapshotPath)
	v.SetDefault("reference.labels_path", d.Reference.LabelsPath)
	v.SetDefault("reference.catalog_path", d.Reference.CatalogPath)

	// Classifier
	v.SetDefault("classifier.k", d.Classifier.K)
	v.SetDefault("classifier.min_words", d.Classifier.MinWords)
	v.SetDefault("classifier.search_mode", d.Classifier.SearchMode)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.api_key_env", d.Embedding.APIKeyEnv)

	// API
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.allow_origins", d.API.AllowOrigins)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Feedback
	v.SetDefault("feedback.provider", d.Feedback.Provider)
	v.SetDefault("feedback.target", d.Feedback.Target)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	// Qdrant
	v.SetDefault("qdrant.host", d.Qdrant.Host)
	v.SetDefault("qdrant.port", d.Qdrant.Port)
	v.SetDefault("qdrant.collection", d.Qdrant.Collection)
	v.SetDefault("qdrant.hnsw_ef", d.Qdrant.HnswEf)
}

// FromViper materializes the resolved precedence chain into a Config.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Reference: ReferenceConfig{
			SnapshotPath: v.GetString("reference.snapshot_path"),
			LabelsPath:   v.GetString("reference.labels_path"),
			CatalogPath:  v.GetString("reference.catalog_path"),
		},
		Classifier: ClassifierConfig{
			K:          v.GetUint("classifier.k"),
			MinWords:   v.GetUint("classifier.min_words"),
			SearchMode: v.GetString("classifier.search_mode"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
			APIKeyEnv:  v.GetString("embedding.api_key_env"),
		},
		API: APIConfig{
			Listen:       v.GetString("api.listen"),
			AllowOrigins: v.GetString("api.allow_origins"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		Feedback: FeedbackConfig{
			Provider: v.GetString("feedback.provider"),
			Target:   v.GetString("feedback.target"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
		Qdrant: QdrantConfig{
			Host:       v.GetString("qdrant.host"),
			Port:       v.GetUint("qdrant.port"),
			Collection: v.GetString("qdrant.collection"),
			HnswEf:     v.GetUint("qdrant.hnsw_ef"),
		},
	}
}
