package eventstream

import "errors"

// ErrNilFeedbackEvent indicates a nil feedback event payload was provided to a publisher.
var ErrNilFeedbackEvent = errors.New("nil feedback event")
