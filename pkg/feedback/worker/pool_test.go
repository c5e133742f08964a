package worker

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/goleak"

	"github.com/clusterlens/clusterlens/pkg/eventstream"
	"github.com/clusterlens/clusterlens/pkg/eventstream/nop"
	"github.com/clusterlens/clusterlens/pkg/feedback"
	"github.com/clusterlens/clusterlens/pkg/logger"
)

// blockingPublisher holds every publish until release is closed.
type blockingPublisher struct {
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func (b *blockingPublisher) PublishFeedback(ctx context.Context, _ *eventstream.FeedbackRecordedEvent) error {
	<-b.release
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
	return nil
}

func (b *blockingPublisher) Close() error { return nil }

type failingPublisher struct{}

func (failingPublisher) PublishFeedback(context.Context, *eventstream.FeedbackRecordedEvent) error {
	return errors.New("broker down")
}

func (failingPublisher) Close() error { return nil }

func record(cluster string) feedback.Record {
	return feedback.NewRecord("text", cluster, 1, 5, "", "build-1")
}

var _ = Describe("Worker Pool", func() {
	var baseline goleak.Option

	BeforeEach(func() {
		baseline = goleak.IgnoreCurrent()
	})

	AfterEach(func() {
		goleak.VerifyNone(GinkgoT(), baseline)
	})

	It("requires a publisher", func() {
		_, err := NewPool(&Config{Logger: logger.Nop()})
		Expect(err).To(HaveOccurred())
	})

	It("publishes one event per enqueued record and drains on Close", func() {
		pub := nop.NewPublisher()
		wp, err := NewPool(&Config{
			Publisher: pub,
			Source:    eventstream.EventSource{Service: "clusterlens"},
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		records := []feedback.Record{record("13"), record("3"), record("0")}
		for _, r := range records {
			Expect(wp.Enqueue(Job{Record: r})).To(BeTrue())
		}
		wp.Close()

		published := pub.Published()
		Expect(published).To(HaveLen(3))

		ids := []string{}
		for _, e := range published {
			Expect(e.Source.Service).To(Equal("clusterlens"))
			ids = append(ids, e.Feedback.RecordID)
		}
		Expect(ids).To(ConsistOf(records[0].ID, records[1].ID, records[2].ID))
	})

	It("drops jobs when the queue is full", func() {
		pub := &blockingPublisher{release: make(chan struct{})}
		wp, err := NewPool(&Config{
			Publisher:  pub,
			NumWorkers: 1,
			QueueSize:  1,
			Logger:     logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		accepted := 0
		for range 5 {
			if wp.Enqueue(Job{Record: record("13")}) {
				accepted++
			}
		}
		Expect(accepted).To(BeNumerically(">=", 1))
		Expect(accepted).To(BeNumerically("<=", 2))

		close(pub.release)
		wp.Close()
		Expect(pub.count).To(Equal(accepted))
	})

	It("rejects jobs after Close and tolerates a second Close", func() {
		wp, err := NewPool(&Config{Publisher: nop.NewPublisher(), Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		wp.Close()
		Expect(wp.Enqueue(Job{Record: record("13")})).To(BeFalse())
		Expect(wp.Close).NotTo(Panic())
	})

	It("keeps running after publish failures", func() {
		wp, err := NewPool(&Config{Publisher: failingPublisher{}, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		for range 3 {
			Expect(wp.Enqueue(Job{Record: record("13")})).To(BeTrue())
		}
		wp.Close()
	})
})
