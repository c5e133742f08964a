package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/clusterlens/clusterlens/pkg/feedback"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeFeedbackRecorded is emitted after a feedback record is stored.
	EventTypeFeedbackRecorded = "clusterlens.feedback.recorded"
)

// FeedbackRecordedEvent is a transport-neutral event payload for a stored
// feedback record. The submitted text and comment are not included.
type FeedbackRecordedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	Feedback      FeedbackMeta `json:"feedback"`
}

// EventSource identifies the emitting process.
type EventSource struct {
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
}

// FeedbackMeta summarizes the stored record.
type FeedbackMeta struct {
	RecordID         string    `json:"record_id"`
	RecordedAt       time.Time `json:"recorded_at"`
	PredictedCluster string    `json:"predicted_cluster"`
	Certainty        float64   `json:"certainty"`
	Rating           int       `json:"rating"`
	HasComment       bool      `json:"has_comment"`
	BuildID          string    `json:"build_id,omitempty"`
}

// NewFeedbackRecordedEvent builds the event for r.
func NewFeedbackRecordedEvent(r feedback.Record, source EventSource) *FeedbackRecordedEvent {
	return &FeedbackRecordedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeFeedbackRecorded,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Feedback: FeedbackMeta{
			RecordID:         r.ID,
			RecordedAt:       r.Timestamp,
			PredictedCluster: r.PredictedCluster,
			Certainty:        r.Certainty,
			Rating:           r.Rating,
			HasComment:       r.Comment != "",
			BuildID:          r.BuildID,
		},
	}
}
