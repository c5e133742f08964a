package feedback

import "errors"

var (
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("feedback storage failed")

	// ErrInvalidRating is returned for ratings outside [MinRating, MaxRating].
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidRecord is returned for records missing required fields.
	ErrInvalidRecord = errors.New("invalid feedback record")
)

// StorageError wraps a failure of the underlying storage medium.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "feedback storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports a match against ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
