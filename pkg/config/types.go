package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent clusterlens configuration stored as
// config.toml in the .clusterlens/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Reference  ReferenceConfig  `toml:"reference"`
	Classifier ClassifierConfig `toml:"classifier"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	API        APIConfig        `toml:"api"`
	Client     ClientConfig     `toml:"client"`
	Feedback   FeedbackConfig   `toml:"feedback"`
	Events     EventsConfig     `toml:"events"`
	Qdrant     QdrantConfig     `toml:"qdrant"`
}

// ReferenceConfig locates the frozen reference artifacts. Empty paths resolve
// inside the .clusterlens/ directory.
type ReferenceConfig struct {
	SnapshotPath string `toml:"snapshot_path,omitempty"`
	LabelsPath   string `toml:"labels_path,omitempty"`
	CatalogPath  string `toml:"catalog_path,omitempty"`
}

// ClassifierConfig holds the vote parameters and search mode.
type ClassifierConfig struct {
	K          uint   `toml:"k,omitempty"`
	MinWords   uint   `toml:"min_words,omitempty"`
	SearchMode string `toml:"search_mode,omitempty"`
}

// EmbeddingConfig holds embedding provider settings. The API key itself is
// never stored; APIKeyEnv names the environment variable that holds it.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	APIKeyEnv  string `toml:"api_key_env,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen       string `toml:"listen,omitempty"`
	AllowOrigins string `toml:"allow_origins,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running API
// server (e.g. clusterlens predict --api-target).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// FeedbackConfig selects the feedback store.
type FeedbackConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// EventsConfig selects where feedback events are published.
// Brokers is a comma-separated list.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// QdrantConfig is used by the qdrant search mode and "index push".
type QdrantConfig struct {
	Host       string `toml:"host,omitempty"`
	Port       uint   `toml:"port,omitempty"`
	Collection string `toml:"collection,omitempty"`
	HnswEf     uint   `toml:"hnsw_ef,omitempty"`
}

// BrokerList splits the comma-separated broker string.
func (e EventsConfig) BrokerList() []string {
	return splitList(e.Brokers)
}

// OriginList splits the comma-separated origin string.
func (a APIConfig) OriginList() []string {
	return splitList(a.AllowOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"reference.snapshot_path": stringKey(func(c *Config) *string { return &c.Reference.SnapshotPath }),
	"reference.labels_path":   stringKey(func(c *Config) *string { return &c.Reference.LabelsPath }),
	"reference.catalog_path":  stringKey(func(c *Config) *string { return &c.Reference.CatalogPath }),

	"classifier.k":         uintKey("classifier.k", func(c *Config) *uint { return &c.Classifier.K }),
	"classifier.min_words": uintKey("classifier.min_words", func(c *Config) *uint { return &c.Classifier.MinWords }),
	"classifier.search_mode": {
		get: func(c *Config) string { return c.Classifier.SearchMode },
		set: func(c *Config, v string) error {
			switch v {
			case "exact", "sqlitevec", "qdrant":
				c.Classifier.SearchMode = v
				return nil
			default:
				return fmt.Errorf("invalid value for classifier.search_mode: %q (available: exact, sqlitevec, qdrant)", v)
			}
		},
	},

	"embedding.provider":    stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":      stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":       stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions":  uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.api_key_env": stringKey(func(c *Config) *string { return &c.Embedding.APIKeyEnv }),

	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"api.allow_origins": stringKey(func(c *Config) *string { return &c.API.AllowOrigins }),

	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"feedback.provider": stringKey(func(c *Config) *string { return &c.Feedback.Provider }),
	"feedback.target":   stringKey(func(c *Config) *string { return &c.Feedback.Target }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),

	"qdrant.host":       stringKey(func(c *Config) *string { return &c.Qdrant.Host }),
	"qdrant.port":       uintKey("qdrant.port", func(c *Config) *uint { return &c.Qdrant.Port }),
	"qdrant.collection": stringKey(func(c *Config) *string { return &c.Qdrant.Collection }),
	"qdrant.hnsw_ef":    uintKey("qdrant.hnsw_ef", func(c *Config) *uint { return &c.Qdrant.HnswEf }),
}
