package api

import (
	"errors"
	"expvar"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/clusterlens/clusterlens/api/mcp"
)

var metrics = expvar.NewMap("clusterlens")

// Server is the API server for classifying submissions and collecting feedback.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The classifier and its reference data
// must be fully loaded before the server is created.
func NewServer(config Config, logger *slog.Logger) (*Server, error) {
	if config.Classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
	})

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	origins := config.AllowOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	app.Get("/ping", s.handlePing)
	app.Get("/debug/vars", adaptor.HTTPHandler(expvar.Handler()))

	app.Post("/predict", s.handlePredict)
	app.Post("/v1/predict", s.handlePredict)
	app.Post("/v1/predict/embedding", s.handlePredictEmbedding)
	app.Post("/v1/feedback", s.handleFeedback)
	app.Get("/v1/reference", s.handleReference)

	if config.MCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Classifier: config.Classifier,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"build_id", s.config.Classifier.BuildID(),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
