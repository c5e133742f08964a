// Package servecmder provides the serve command for running the clusterlens
// API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/clusterlens/clusterlens/api"
	"github.com/clusterlens/clusterlens/cmd/clusterlens/setup"
	"github.com/clusterlens/clusterlens/pkg/config"
	"github.com/clusterlens/clusterlens/pkg/eventstream"
	eventstreamutils "github.com/clusterlens/clusterlens/pkg/eventstream/utils"
	"github.com/clusterlens/clusterlens/pkg/feedback/worker"
	"github.com/clusterlens/clusterlens/pkg/logger"
	"github.com/clusterlens/clusterlens/pkg/utils"
)

type serveCommander struct {
	flags serveFlags

	jsonLogs     bool
	logFile      string
	mcp          bool
	readTimeout  time.Duration
	writeTimeout time.Duration

	logger *slog.Logger
}

// serveFlags are bound into viper; their values are only read through config.
type serveFlags struct {
	snapshot, labels, catalog, searchMode          string
	embeddingProvider, embeddingTarget, embedModel string
	listen, allowOrigins                           string
	feedbackProvider, feedbackTarget               string
	eventsProvider, eventsBrokers, eventsTopic     string
	qdrantHost, qdrantCollection                   string
	k, minWords, embeddingDims, qdrantPort, hnswEf uint
}

var serveFlagKeys = append(append(append([]string{},
	setup.ClassifierFlags...),
	setup.FeedbackFlags...),
	config.FlagListen,
	config.FlagAllowOrigins,
	config.FlagEventsProv,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
)

const serveLongDesc string = `Run the clusterlens API server.

The reference snapshot and labels are loaded and cross-checked before the
listener starts; the server never answers from a partial reference set.

Routes:
  POST /v1/predict             Classify free text
  POST /predict                Legacy alias of /v1/predict
  POST /v1/predict/embedding   Classify a precomputed embedding
  POST /v1/feedback            Record a rating for a prediction
  GET  /v1/reference           Describe the loaded reference set
  GET  /debug/vars             Counters
  POST /mcp                    MCP classify tool (unless --mcp=false)

Examples:
  clusterlens serve
  clusterlens serve --listen :9000 --search-mode sqlitevec
  clusterlens serve --json-logs --log-file /var/log/clusterlens.log`

const serveShortDesc string = "Run the clusterlens API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup.Config(cmd, serveFlagKeys)
			if err != nil {
				return err
			}

			debug, _ := cmd.Flags().GetBool("debug")
			closeLog, err := cmder.initLogger(cmd, debug)
			if err != nil {
				return err
			}
			defer closeLog()

			return cmder.run(cmd.Context(), cfg, setup.ConfigDir(cmd))
		},
	}

	f := &cmder.flags
	config.AddStringFlag(cmd, config.Flags, config.FlagSnapshot, &f.snapshot)
	config.AddStringFlag(cmd, config.Flags, config.FlagLabels, &f.labels)
	config.AddStringFlag(cmd, config.Flags, config.FlagCatalog, &f.catalog)
	config.AddUintFlag(cmd, config.Flags, config.FlagK, &f.k)
	config.AddUintFlag(cmd, config.Flags, config.FlagMinWords, &f.minWords)
	config.AddStringFlag(cmd, config.Flags, config.FlagSearchMode, &f.searchMode)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &f.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &f.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &f.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &f.embeddingDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &f.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagAllowOrigins, &f.allowOrigins)
	config.AddStringFlag(cmd, config.Flags, config.FlagFeedbackProv, &f.feedbackProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagFeedbackTgt, &f.feedbackTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProv, &f.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &f.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &f.eventsTopic)
	config.AddStringFlag(cmd, config.Flags, config.FlagQdrantHost, &f.qdrantHost)
	config.AddUintFlag(cmd, config.Flags, config.FlagQdrantPort, &f.qdrantPort)
	config.AddStringFlag(cmd, config.Flags, config.FlagQdrantColl, &f.qdrantCollection)
	config.AddUintFlag(cmd, config.Flags, config.FlagQdrantHnswEf, &f.hnswEf)

	cmd.Flags().BoolVar(&cmder.jsonLogs, "json-logs", false, "Log JSON instead of human-readable output")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.mcp, "mcp", true, "Serve the MCP classify tool at /mcp")
	cmd.Flags().DurationVar(&cmder.readTimeout, "read-timeout", 30*time.Second, "Maximum duration for reading a request")
	cmd.Flags().DurationVar(&cmder.writeTimeout, "write-timeout", 60*time.Second, "Maximum duration for writing a response")

	return cmd
}

// initLogger builds the console logger and, with --log-file, fans out to a
// JSON file as well. The returned func closes the file.
func (c *serveCommander) initLogger(cmd *cobra.Command, debug bool) (func(), error) {
	console := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(c.jsonLogs),
		logger.WithPretty(!c.jsonLogs),
		logger.WithWriter(cmd.ErrOrStderr()),
	)

	if c.logFile == "" {
		c.logger = console
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)
	c.logger = logger.Multi(console, file)
	return func() { _ = f.Close() }, nil
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config, configDir string) error {
	bundle, err := setup.Reference(ctx, cfg, configDir, c.logger)
	if err != nil {
		return fmt.Errorf("loading reference data: %w", err)
	}
	defer bundle.Close()

	embedder, err := setup.Embedder(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	cl, err := setup.Classifier(cfg, bundle, embedder, c.logger)
	if err != nil {
		return fmt.Errorf("creating classifier: %w", err)
	}
	if err := cl.CheckEmbedder(ctx); err != nil {
		return fmt.Errorf("checking embedder against reference data: %w", err)
	}

	store, err := setup.FeedbackStore(ctx, cfg, configDir)
	if err != nil {
		return fmt.Errorf("opening feedback store: %w", err)
	}
	defer store.Close()

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.BrokerList(),
		Topic:        cfg.Events.Topic,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Source:    eventstream.EventSource{Service: "clusterlens", Version: utils.Version},
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event worker pool: %w", err)
	}
	// Drain queued events before the publisher closes.
	defer pool.Close()

	server, err := api.NewServer(api.Config{
		ListenAddr:   cfg.API.Listen,
		AllowOrigins: cfg.API.AllowOrigins,
		ReadTimeout:  c.readTimeout,
		WriteTimeout: c.writeTimeout,
		Classifier:   cl,
		Reference:    bundle,
		Feedback:     store,
		Events:       pool,
		MCP:          c.mcp,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("feedback configured",
		"provider", cfg.Feedback.Provider,
		"events", cfg.Events.Provider,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Run(); err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down API server")
		return server.Shutdown()
	})

	return g.Wait()
}
