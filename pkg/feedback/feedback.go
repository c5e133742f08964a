// Package feedback records prediction outcomes and user ratings in an
// append-only store.
package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Record is one feedback entry. Entries are never modified once stored.
type Record struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	InputText        string    `json:"input_text"`
	PredictedCluster string    `json:"predicted_cluster"`
	Certainty        float64   `json:"certainty"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"user_comment"`
	BuildID          string    `json:"build_id,omitempty"`
}

// NewRecord stamps a record with a fresh id and the current UTC time.
func NewRecord(text, cluster string, certainty float64, rating int, comment, buildID string) Record {
	return Record{
		ID:               uuid.NewString(),
		Timestamp:        time.Now().UTC(),
		InputText:        text,
		PredictedCluster: cluster,
		Certainty:        certainty,
		Rating:           rating,
		Comment:          comment,
		BuildID:          buildID,
	}
}

// Validate checks the fields every store requires.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidRecord)
	}
	if r.PredictedCluster == "" {
		return fmt.Errorf("%w: missing predicted cluster", ErrInvalidRecord)
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidRating, r.Rating, MinRating, MaxRating)
	}
	if r.Certainty < 0 || r.Certainty > 1 {
		return fmt.Errorf("%w: certainty %v not in [0, 1]", ErrInvalidRecord, r.Certainty)
	}
	return nil
}

// Store is an append-only feedback log. Implementations must be safe for
// concurrent use and must never rewrite prior entries.
type Store interface {
	// Record appends r. Storage failures are returned as *StorageError.
	Record(ctx context.Context, r Record) error

	// List returns every stored record in append order.
	List(ctx context.Context) ([]Record, error)

	// Close releases any resources held by the store.
	Close() error
}
