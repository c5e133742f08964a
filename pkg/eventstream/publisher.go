package eventstream

import "context"

// Publisher publishes feedback events to an event stream backend.
type Publisher interface {
	PublishFeedback(ctx context.Context, event *FeedbackRecordedEvent) error
	Close() error
}
