package kafka_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/clusterlens/clusterlens/pkg/eventstream"
	"github.com/clusterlens/clusterlens/pkg/eventstream/kafka"
)

var _ = Describe("Publisher", func() {
	It("requires brokers", func() {
		_, err := kafka.NewPublisher(kafka.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("defaults the topic", func() {
		p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Topic()).To(Equal(kafka.DefaultTopic))
		Expect(p.Close()).To(Succeed())
	})

	It("returns ErrNilFeedbackEvent for nil events", func() {
		p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		Expect(p.PublishFeedback(context.Background(), nil)).To(MatchError(eventstream.ErrNilFeedbackEvent))
	})
})
