// Package setup resolves configuration and builds the long-lived components
// shared by clusterlens commands.
package setup

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/clusterlens/clusterlens/pkg/catalog"
	"github.com/clusterlens/clusterlens/pkg/classifier"
	"github.com/clusterlens/clusterlens/pkg/config"
	"github.com/clusterlens/clusterlens/pkg/dotdir"
	"github.com/clusterlens/clusterlens/pkg/embeddings"
	embeddingutils "github.com/clusterlens/clusterlens/pkg/embeddings/utils"
	"github.com/clusterlens/clusterlens/pkg/feedback"
	feedbackutils "github.com/clusterlens/clusterlens/pkg/feedback/utils"
	"github.com/clusterlens/clusterlens/pkg/logger"
	"github.com/clusterlens/clusterlens/pkg/reference"
	"github.com/clusterlens/clusterlens/pkg/vector/qdrant"
)

// QdrantAPIKeyEnv holds the Qdrant API key, when one is needed.
const QdrantAPIKeyEnv = "QDRANT_API_KEY"

// ClassifierFlags are the registry keys every command that loads reference
// data and classifies text binds.
var ClassifierFlags = []string{
	config.FlagSnapshot,
	config.FlagLabels,
	config.FlagCatalog,
	config.FlagK,
	config.FlagMinWords,
	config.FlagSearchMode,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagQdrantHost,
	config.FlagQdrantPort,
	config.FlagQdrantColl,
	config.FlagQdrantHnswEf,
}

// FeedbackFlags select the feedback store.
var FeedbackFlags = []string{
	config.FlagFeedbackProv,
	config.FlagFeedbackTgt,
}

// ConfigDir returns the --config-dir persistent flag, or "" when unset.
func ConfigDir(cmd *cobra.Command) string {
	configDir, _ := cmd.Flags().GetString("config-dir")
	return configDir
}

// Config resolves flags > env > config.toml > defaults for the given
// registry keys. Flags must already be registered on cmd.
func Config(cmd *cobra.Command, keys []string) (*config.Config, error) {
	v, err := config.InitViper(ConfigDir(cmd))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)
	return config.FromViper(v), nil
}

// Logger builds the CLI logger from the --debug persistent flag.
func Logger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	)
}

// Artifacts returns the snapshot and labels paths, falling back to the
// .clusterlens/reference directory.
func Artifacts(cfg *config.Config, configDir string) (snapshot, labels string, err error) {
	paths, err := dotdir.NewManager().Paths(configDir)
	if err != nil {
		return "", "", err
	}
	return dotdir.Or(cfg.Reference.SnapshotPath, paths.Snapshot),
		dotdir.Or(cfg.Reference.LabelsPath, paths.Labels),
		nil
}

// QdrantConfig converts the [qdrant] section.
func QdrantConfig(cfg *config.Config) qdrant.Config {
	return qdrant.Config{
		Host:       cfg.Qdrant.Host,
		Port:       int(cfg.Qdrant.Port),
		APIKey:     os.Getenv(QdrantAPIKeyEnv),
		UseTLS:     os.Getenv(QdrantAPIKeyEnv) != "",
		Collection: cfg.Qdrant.Collection,
		Dimensions: int(cfg.Embedding.Dimensions),
		HnswEf:     uint64(cfg.Qdrant.HnswEf),
	}
}

// Reference loads and cross-checks the reference artifacts.
func Reference(ctx context.Context, cfg *config.Config, configDir string, log *slog.Logger) (*reference.Bundle, error) {
	snapshot, labels, err := Artifacts(cfg, configDir)
	if err != nil {
		return nil, err
	}

	return reference.Load(ctx, reference.LoadOptions{
		SnapshotPath: snapshot,
		LabelsPath:   labels,
		SearchMode:   cfg.Classifier.SearchMode,
		Dimensions:   int(cfg.Embedding.Dimensions),
		Qdrant:       QdrantConfig(cfg),
		Logger:       log,
	})
}

// Embedder builds the configured embedding provider. The API key is read from
// the environment variable named by embedding.api_key_env.
func Embedder(ctx context.Context, cfg *config.Config) (embeddings.Embedder, error) {
	var apiKey string
	if cfg.Embedding.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.Embedding.APIKeyEnv)
	}

	return embeddingutils.NewEmbedder(ctx, &embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		APIKey:       apiKey,
		Dimensions:   int(cfg.Embedding.Dimensions),
	})
}

// Classifier wires the bundle, catalog and embedder. Labels present in the
// reference set without a catalog entry are logged once.
func Classifier(cfg *config.Config, b *reference.Bundle, e embeddings.Embedder, log *slog.Logger) (*classifier.Classifier, error) {
	cat, err := catalog.Load(cfg.Reference.CatalogPath)
	if err != nil {
		return nil, err
	}

	var unannotated []string
	for _, l := range b.Labels.Labels() {
		if !cat.Has(l) {
			unannotated = append(unannotated, l)
		}
	}
	if len(unannotated) > 0 {
		log.Warn("clusters without a catalog response", "labels", unannotated)
	}

	return classifier.New(classifier.Config{
		Searcher:   b.Searcher,
		Labels:     b.Labels,
		BuildID:    b.BuildID,
		Catalog:    cat,
		Embedder:   e,
		K:          int(cfg.Classifier.K),
		MinWords:   int(cfg.Classifier.MinWords),
		Dimensions: int(cfg.Embedding.Dimensions),
		Logger:     log,
	})
}

// FeedbackStore opens the configured store. A jsonl store with no target
// writes to .clusterlens/feedback.jsonl.
func FeedbackStore(ctx context.Context, cfg *config.Config, configDir string) (feedback.Store, error) {
	target := cfg.Feedback.Target
	if target == "" && (cfg.Feedback.Provider == "" || cfg.Feedback.Provider == "jsonl") {
		paths, err := dotdir.NewManager().Paths(configDir)
		if err != nil {
			return nil, err
		}
		target = paths.Feedback
	}

	return feedbackutils.NewStore(ctx, &feedbackutils.NewStoreOpts{
		ProviderType: cfg.Feedback.Provider,
		Target:       target,
	})
}
