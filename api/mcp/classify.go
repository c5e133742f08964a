package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clusterlens/clusterlens/pkg/classifier"
	"github.com/clusterlens/clusterlens/pkg/utils"
)

var (
	classifyToolName    = "classify"
	classifyDescription = "Classify a free-text submission into one of the reference clusters by nearest-neighbor majority vote. Returns the cluster, a certainty between 0 and 1, and an explanatory response. Submissions shorter than the minimum word count are rejected."
)

// ClassifyInput represents the input arguments for the classify tool.
type ClassifyInput struct {
	Text string `json:"text" jsonschema:"the submission to classify"`
}

// ClassifyOutput represents the output of the classify tool.
type ClassifyOutput struct {
	Cluster   string  `json:"cluster"`
	Certainty float64 `json:"certainty"`
	Votes     int     `json:"votes"`
	K         int     `json:"k"`
	Response  string  `json:"response"`
	BuildID   string  `json:"build_id"`
}

// handleClassify processes a classify request. Classification failures are
// reported as tool errors, not protocol errors.
func (s *Server) handleClassify(ctx context.Context, _ *mcp.CallToolRequest, input ClassifyInput) (*mcp.CallToolResult, ClassifyOutput, error) {
	logger := s.config.Logger

	pred, err := s.config.Classifier.Classify(ctx, input.Text)
	if err != nil {
		var verr *classifier.ValidationError
		if !errors.As(err, &verr) {
			logger.Error("MCP classify failed", "error", err)
		}
		return toolError(fmt.Sprintf("Failed to classify: %v", err)), ClassifyOutput{}, nil
	}

	output := ClassifyOutput{
		Cluster:   pred.Cluster,
		Certainty: utils.Rounded(pred.Certainty, 2),
		Votes:     pred.Votes,
		K:         pred.K,
		Response:  pred.Response,
		BuildID:   pred.BuildID,
	}

	// Structured output is mirrored as JSON text for clients that only read
	// text content.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal classify output", "error", err)
		return toolError(fmt.Sprintf("Failed to serialize result: %v", err)), ClassifyOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
