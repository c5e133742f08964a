package nop

import (
	"context"
	"sync"

	"github.com/clusterlens/clusterlens/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
// It remembers what it was given so tests can inspect it.
type Publisher struct {
	mu     sync.Mutex
	events []*eventstream.FeedbackRecordedEvent
}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishFeedback validates input and otherwise does nothing.
func (p *Publisher) PublishFeedback(_ context.Context, event *eventstream.FeedbackRecordedEvent) error {
	if event == nil {
		return eventstream.ErrNilFeedbackEvent
	}

	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

// Published returns the events seen so far.
func (p *Publisher) Published() []*eventstream.FeedbackRecordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*eventstream.FeedbackRecordedEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
