package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when an embedding does not have the
	// index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInsufficientData is returned when more neighbors are requested than
	// the index holds.
	ErrInsufficientData = errors.New("insufficient reference data")

	// ErrInvalidK is returned when the neighbor count is below 1.
	ErrInvalidK = errors.New("neighbor count must be at least 1")

	// ErrEmptyIndex is returned when building an index from no embeddings.
	ErrEmptyIndex = errors.New("cannot build index from empty reference set")

	// ErrInvalidVector is returned for embeddings with NaN or infinite components.
	ErrInvalidVector = errors.New("embedding contains non-finite values")

	// ErrConnection is returned when a remote vector store cannot be reached.
	ErrConnection = errors.New("vector store connection failed")
)
