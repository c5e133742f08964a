package predictcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/clusterlens/clusterlens/api"
	"github.com/clusterlens/clusterlens/pkg/classifier"
	"github.com/clusterlens/clusterlens/pkg/feedback"
)

// result is what the CLI shows for one prediction. Certainty is exact for
// local predictions and rounded to two decimals when it came over HTTP.
type result struct {
	Cluster   string  `json:"cluster"`
	Certainty float64 `json:"certainty"`
	Votes     int     `json:"votes"`
	K         int     `json:"k"`
	Response  string  `json:"response"`
	Annotated bool    `json:"annotated"`
	BuildID   string  `json:"build_id"`
}

// predictor classifies text and records ratings, either in-process or through
// a running API server.
type predictor interface {
	Classify(ctx context.Context, text string) (*result, error)
	Feedback(ctx context.Context, req api.FeedbackRequest) (*api.FeedbackResponse, error)
}

// localPredictor classifies against artifacts loaded into this process.
type localPredictor struct {
	classifier *classifier.Classifier
	store      feedback.Store
}

func (p *localPredictor) Classify(ctx context.Context, text string) (*result, error) {
	pred, err := p.classifier.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	return &result{
		Cluster:   pred.Cluster,
		Certainty: pred.Certainty,
		Votes:     pred.Votes,
		K:         pred.K,
		Response:  pred.Response,
		Annotated: pred.Annotated,
		BuildID:   pred.BuildID,
	}, nil
}

func (p *localPredictor) Feedback(ctx context.Context, req api.FeedbackRequest) (*api.FeedbackResponse, error) {
	if p.store == nil {
		return nil, errors.New("feedback is not configured")
	}

	record := feedback.NewRecord(req.Text, req.Cluster, req.Certainty, req.Rating, req.Comment, p.classifier.BuildID())
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := p.store.Record(ctx, record); err != nil {
		return &api.FeedbackResponse{Acknowledged: false, Warning: err.Error()}, nil
	}
	return &api.FeedbackResponse{Acknowledged: true, ID: record.ID}, nil
}

// remotePredictor calls a clusterlens API server.
type remotePredictor struct {
	target string
	client *http.Client
}

func newRemotePredictor(target string) (*remotePredictor, error) {
	if _, err := url.Parse(target); err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	return &remotePredictor{target: target, client: http.DefaultClient}, nil
}

func (p *remotePredictor) Classify(ctx context.Context, text string) (*result, error) {
	var resp api.PredictResponse
	if err := p.post(ctx, "/v1/predict", api.PredictRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return &result{
		Cluster:   resp.Cluster,
		Certainty: resp.Certainty,
		Votes:     resp.Votes,
		K:         resp.K,
		Response:  resp.Response,
		Annotated: resp.Annotated,
		BuildID:   resp.BuildID,
	}, nil
}

func (p *remotePredictor) Feedback(ctx context.Context, req api.FeedbackRequest) (*api.FeedbackResponse, error) {
	var resp api.FeedbackResponse
	if err := p.post(ctx, "/v1/feedback", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *remotePredictor) post(ctx context.Context, path string, in, out any) error {
	u, err := url.JoinPath(p.target, path)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to clusterlens API at %s: %w", p.target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e api.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
