package crawler

import (
	"context"
	"time"

	"github.com/rwnet/sitesearch/internal/index"
	"github.com/rwnet/sitesearch/pkg/kafka"
)

// Event types for the crawl event stream.
const (
	EventPageIndexed = "page_indexed"
	EventPageFailed  = "page_failed"
)

// PageEvent is emitted for every page the crawler indexes or fails to fetch.
type PageEvent struct {
	Type        string        `json:"type"`
	Address     string        `json:"address"`
	DocID       string        `json:"doc_id,omitempty"`
	Title       string        `json:"title,omitempty"`
	ContentType index.DocType `json:"content_type,omitempty"`
	Size        int           `json:"size,omitempty"`
	Depth       int           `json:"depth"`
	Error       string        `json:"error,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// EventPublisher receives crawl events. A nil publisher disables the stream.
type EventPublisher interface {
	Publish(ctx context.Context, event PageEvent) error
}

// KafkaPublisher sends crawl events to a Kafka topic, keyed by address so
// events for one page land on one partition.
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher wraps a configured producer.
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event PageEvent) error {
	return p.producer.Publish(ctx, kafka.Event{
		Key:   event.Address,
		Value: event,
	})
}
