package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/clusterlens/clusterlens/pkg/classifier"
	"github.com/clusterlens/clusterlens/pkg/embeddings"
	"github.com/clusterlens/clusterlens/pkg/feedback"
	"github.com/clusterlens/clusterlens/pkg/feedback/worker"
	"github.com/clusterlens/clusterlens/pkg/reference"
	"github.com/clusterlens/clusterlens/pkg/utils"
	"github.com/clusterlens/clusterlens/pkg/vector"
)

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handlePredict classifies free text. Serves both /v1/predict and the legacy
// /predict route.
func (s *Server) handlePredict(c *fiber.Ctx) error {
	var req PredictRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	pred, err := s.config.Classifier.Classify(c.UserContext(), req.Text)
	if err != nil {
		metrics.Add("predict_errors", 1)
		return s.predictError(c, err)
	}

	metrics.Add("predictions", 1)
	return c.JSON(s.predictResponse(pred))
}

// handlePredictEmbedding classifies a client-supplied embedding, skipping
// validation and the embedder.
func (s *Server) handlePredictEmbedding(c *fiber.Ctx) error {
	var req EmbeddingPredictRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	cl := s.config.Classifier
	pred, err := cl.Predict(c.UserContext(), req.Embedding, cl.K())
	if err != nil {
		metrics.Add("predict_errors", 1)
		return s.predictError(c, err)
	}

	metrics.Add("predictions", 1)
	return c.JSON(s.predictResponse(pred))
}

// predictError maps classifier failures to HTTP statuses.
func (s *Server) predictError(c *fiber.Ctx, err error) error {
	var verr *classifier.ValidationError

	switch {
	case errors.As(err, &verr):
		metrics.Add("rejected", 1)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error: fmt.Sprintf("Input must be at least %d words.", verr.MinWords),
		})

	// Embedder failures, including output of the wrong size, are the
	// server's fault and must be matched before client vector errors.
	case errors.Is(err, embeddings.ErrEmbedding):
		s.logger.Error("embedding failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "embedding service failed"})

	case errors.Is(err, vector.ErrDimensionMismatch), errors.Is(err, vector.ErrInvalidVector):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})

	case errors.Is(err, classifier.ErrNoEmbedder):
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "text classification is not configured"})

	default:
		s.logger.Error("prediction failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "prediction failed"})
	}
}

func (s *Server) predictResponse(p *classifier.Prediction) PredictResponse {
	return NewPredictResponse(p, s.config.Reference)
}

// NewPredictResponse converts a prediction to its wire form. Neighbor ids are
// filled in when ref is non-nil.
func NewPredictResponse(p *classifier.Prediction, ref *reference.Bundle) PredictResponse {
	neighbors := make([]NeighborResponse, len(p.Neighbors))
	for i, n := range p.Neighbors {
		neighbors[i] = NeighborResponse{
			Position: n.Position,
			Distance: n.Distance,
			Label:    n.Label,
		}
		if ref != nil {
			if id, err := ref.ID(n.Position); err == nil {
				neighbors[i].ID = id
			}
		}
	}

	return PredictResponse{
		Cluster:   p.Cluster,
		Certainty: utils.Rounded(p.Certainty, 2),
		Response:  p.Response,
		Votes:     p.Votes,
		K:         p.K,
		Annotated: p.Annotated,
		Neighbors: neighbors,
		BuildID:   p.BuildID,
	}
}

// handleFeedback appends a rating to the feedback store and, when configured,
// publishes a feedback event.
func (s *Server) handleFeedback(c *fiber.Ctx) error {
	if s.config.Feedback == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "feedback is not configured"})
	}

	var req FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	record := feedback.NewRecord(req.Text, req.Cluster, req.Certainty, req.Rating, req.Comment, s.config.Classifier.BuildID())
	if err := record.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if err := s.config.Feedback.Record(c.UserContext(), record); err != nil {
		metrics.Add("feedback_failed", 1)
		s.logger.Warn("failed to record feedback",
			"id", record.ID,
			"error", err,
		)
		return c.JSON(FeedbackResponse{
			Acknowledged: false,
			Warning:      "feedback could not be saved",
		})
	}

	metrics.Add("feedback_recorded", 1)
	s.logger.Info("feedback recorded",
		"id", record.ID,
		"cluster", record.PredictedCluster,
		"rating", record.Rating,
	)

	if s.config.Events != nil && !s.config.Events.Enqueue(worker.Job{Record: record}) {
		s.logger.Warn("feedback event dropped", "id", record.ID)
	}

	return c.JSON(FeedbackResponse{Acknowledged: true, ID: record.ID})
}

// handleReference describes the loaded reference set.
func (s *Server) handleReference(c *fiber.Ctx) error {
	cl := s.config.Classifier
	labels := cl.Labels()

	unannotated := make([]string, 0)
	for _, l := range labels {
		if !cl.Catalog().Has(l) {
			unannotated = append(unannotated, l)
		}
	}

	return c.JSON(ReferenceResponse{
		BuildID:     cl.BuildID(),
		Count:       cl.Len(),
		Dimensions:  cl.Dimensions(),
		K:           cl.K(),
		MinWords:    cl.MinWords(),
		Labels:      labels,
		Unannotated: unannotated,
	})
}
