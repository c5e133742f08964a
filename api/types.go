package api

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PredictRequest is the body of POST /v1/predict.
type PredictRequest struct {
	Text string `json:"text"`
}

// EmbeddingPredictRequest is the body of POST /v1/predict/embedding.
type EmbeddingPredictRequest struct {
	Embedding []float32 `json:"embedding"`
}

// PredictResponse is a prediction. Certainty is rounded to two decimals;
// Votes/K is the exact fraction.
type PredictResponse struct {
	Cluster   string             `json:"cluster"`
	Certainty float64            `json:"certainty"`
	Response  string             `json:"response"`
	Votes     int                `json:"votes"`
	K         int                `json:"k"`
	Annotated bool               `json:"annotated"`
	Neighbors []NeighborResponse `json:"neighbors"`
	BuildID   string             `json:"build_id"`
}

// NeighborResponse is one voting reference point.
type NeighborResponse struct {
	Position int     `json:"position"`
	ID       string  `json:"id,omitempty"`
	Distance float64 `json:"distance"`
	Label    string  `json:"label"`
}

// FeedbackRequest is the body of POST /v1/feedback.
type FeedbackRequest struct {
	Text      string  `json:"text"`
	Cluster   string  `json:"cluster"`
	Certainty float64 `json:"certainty"`
	Rating    int     `json:"rating"`
	Comment   string  `json:"comment"`
}

// FeedbackResponse acknowledges a feedback submission. A storage failure is
// reported with Acknowledged false and a Warning rather than an error status.
type FeedbackResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	ID           string `json:"id,omitempty"`
	Warning      string `json:"warning,omitempty"`
}

// ReferenceResponse describes the loaded reference set.
type ReferenceResponse struct {
	BuildID     string   `json:"build_id"`
	Count       int      `json:"count"`
	Dimensions  int      `json:"dimensions"`
	K           int      `json:"k"`
	MinWords    int      `json:"min_words"`
	Labels      []string `json:"labels"`
	Unannotated []string `json:"unannotated"`
}
