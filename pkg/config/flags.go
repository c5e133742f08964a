package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --snapshot
// on "clusterlens serve", "clusterlens predict" and "clusterlens index eval").
type Flag struct {
	// Name is the long flag name (e.g. "snapshot").
	Name string

	// Shorthand is the one-letter short flag (e.g. "k"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "reference.snapshot_path").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagSnapshot       = "snapshot"
	FlagLabels         = "labels"
	FlagCatalog        = "catalog"
	FlagK              = "k"
	FlagMinWords       = "min-words"
	FlagSearchMode     = "search-mode"
	FlagEmbeddingProv  = "embedding-provider"
	FlagEmbeddingTgt   = "embedding-target"
	FlagEmbeddingModel = "embedding-model"
	FlagEmbeddingDims  = "embedding-dimensions"
	FlagListen         = "listen"
	FlagAllowOrigins   = "allow-origins"
	FlagAPITarget      = "api-target"
	FlagFeedbackProv   = "feedback-provider"
	FlagFeedbackTgt    = "feedback-target"
	FlagEventsProv     = "events-provider"
	FlagEventsBrokers  = "events-brokers"
	FlagEventsTopic    = "events-topic"
	FlagQdrantHost     = "qdrant-host"
	FlagQdrantPort     = "qdrant-port"
	FlagQdrantColl     = "qdrant-collection"
	FlagQdrantHnswEf   = "qdrant-hnsw-ef"
)

// Flags is the shared registry every command draws from.
var Flags = FlagSet{
	FlagSnapshot:       {Name: "snapshot", ViperKey: "reference.snapshot_path", Description: "Path to the reference snapshot database"},
	FlagLabels:         {Name: "labels", ViperKey: "reference.labels_path", Description: "Path to the reference labels JSON file"},
	FlagCatalog:        {Name: "catalog", ViperKey: "reference.catalog_path", Description: "Path to a response catalog TOML file (default: built-in)"},
	FlagK:              {Name: "k", ViperKey: "classifier.k", Description: "Number of nearest neighbors that vote"},
	FlagMinWords:       {Name: "min-words", ViperKey: "classifier.min_words", Description: "Minimum number of words a submission must contain"},
	FlagSearchMode:     {Name: "search-mode", ViperKey: "classifier.search_mode", Description: "Search mode (exact, sqlitevec, qdrant)"},
	FlagEmbeddingProv:  {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, genai)"},
	FlagEmbeddingTgt:   {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel: {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:  {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensions D"},
	FlagListen:         {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagAllowOrigins:   {Name: "allow-origins", ViperKey: "api.allow_origins", Description: "Comma-separated CORS origins"},
	FlagAPITarget:      {Name: "api-target", ViperKey: "client.api_target", Description: "URL of a running clusterlens API server"},
	FlagFeedbackProv:   {Name: "feedback-provider", ViperKey: "feedback.provider", Description: "Feedback store (jsonl, sqlite, postgres, memory)"},
	FlagFeedbackTgt:    {Name: "feedback-target", ViperKey: "feedback.target", Description: "Feedback file path or connection string"},
	FlagEventsProv:     {Name: "events-provider", ViperKey: "events.provider", Description: "Feedback event stream (nop, kafka)"},
	FlagEventsBrokers:  {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma-separated Kafka brokers"},
	FlagEventsTopic:    {Name: "events-topic", ViperKey: "events.topic", Description: "Kafka topic for feedback events"},
	FlagQdrantHost:     {Name: "qdrant-host", ViperKey: "qdrant.host", Description: "Qdrant host"},
	FlagQdrantPort:     {Name: "qdrant-port", ViperKey: "qdrant.port", Description: "Qdrant gRPC port"},
	FlagQdrantColl:     {Name: "qdrant-collection", ViperKey: "qdrant.collection", Description: "Qdrant collection holding the reference set"},
	FlagQdrantHnswEf:   {Name: "qdrant-hnsw-ef", ViperKey: "qdrant.hnsw_ef", Description: "Qdrant hnsw_ef search parameter"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
