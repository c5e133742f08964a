package classifier

import (
	"errors"
	"fmt"
)

var (
	// ErrInputTooShort is wrapped by ValidationError when a submission has
	// fewer words than the configured minimum.
	ErrInputTooShort = errors.New("input too short")

	// ErrNoEmbedder is returned by Classify when no embedder is configured.
	ErrNoEmbedder = errors.New("no embedder configured")
)

// ValidationError reports a submission rejected before it was embedded.
type ValidationError struct {
	Words    int
	MinWords int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("input has %d words, at least %d required", e.Words, e.MinWords)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputTooShort
}
