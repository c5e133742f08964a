package reference

import "errors"

// ErrIntegrity is returned when the snapshot and labels artifacts disagree on
// build id, count or ordering. It is fatal at startup; data is never truncated
// or padded to make them agree.
var ErrIntegrity = errors.New("reference data integrity check failed")
