// Package kafka publishes feedback events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/clusterlens/clusterlens/pkg/eventstream"
)

// DefaultTopic receives feedback events when no topic is configured.
const DefaultTopic = "clusterlens.feedback"

// Config holds Kafka writer settings.
type Config struct {
	Brokers []string
	Topic   string

	// BatchTimeout bounds how long the writer waits to fill a batch.
	BatchTimeout time.Duration
}

// Publisher writes one message per event, keyed by feedback record id.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher. No connection is made until the first
// publish.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	batchTimeout := c.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 50 * time.Millisecond
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(c.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           batchTimeout,
		},
	}, nil
}

// PublishFeedback serializes event as JSON and writes it synchronously.
func (p *Publisher) PublishFeedback(ctx context.Context, event *eventstream.FeedbackRecordedEvent) error {
	if event == nil {
		return eventstream.ErrNilFeedbackEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding feedback event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Feedback.RecordID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(fmt.Sprint(event.SchemaVersion))},
		},
	})
	if err != nil {
		return fmt.Errorf("writing feedback event to %s: %w", p.writer.Topic, err)
	}
	return nil
}

// Topic is the destination topic.
func (p *Publisher) Topic() string {
	return p.writer.Topic
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
