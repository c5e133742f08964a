// Package api provides the HTTP API server for classifying submissions and
// recording feedback.
package api

import (
	"time"

	"github.com/clusterlens/clusterlens/pkg/classifier"
	"github.com/clusterlens/clusterlens/pkg/feedback"
	"github.com/clusterlens/clusterlens/pkg/feedback/worker"
	"github.com/clusterlens/clusterlens/pkg/reference"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// AllowOrigins is a comma-separated CORS origin list. Empty allows all.
	AllowOrigins string

	// ReadTimeout and WriteTimeout bound each request at the server boundary.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Classifier serves every prediction route.
	Classifier *classifier.Classifier

	// Reference, when set, adds external ids to returned neighbors.
	Reference *reference.Bundle

	// Feedback stores ratings. Feedback routes return 503 without it.
	Feedback feedback.Store

	// Events, when set, receives every accepted feedback record.
	Events *worker.Pool

	// MCP mounts the classify tool at /mcp.
	MCP bool
}
