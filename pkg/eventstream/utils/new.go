// Package eventstreamutils builds event publishers from configuration.
package eventstreamutils

import (
	"fmt"

	"github.com/clusterlens/clusterlens/pkg/eventstream"
	"github.com/clusterlens/clusterlens/pkg/eventstream/kafka"
	"github.com/clusterlens/clusterlens/pkg/eventstream/nop"
)

// NewPublisherOpts selects an event stream backend.
type NewPublisherOpts struct {
	// ProviderType is "kafka", or "" / "nop" to disable publishing.
	ProviderType string
	Brokers      []string
	Topic        string
}

// NewPublisher builds the publisher named by o.ProviderType.
func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported event stream provider: %s", o.ProviderType)
	}
}
