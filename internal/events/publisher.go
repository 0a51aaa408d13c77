package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/pkg/kafka"
)

// Event types published on the deals topic.
const (
	TypePriceDropped = "deal.price_dropped"
	TypeRunCompleted = "scrape.run_completed"

	eventSource = "service-deals"
)

// PriceDropEvent is published when a re-observed listing's price went
// down, so downstream alerting can notify watchers.
type PriceDropEvent struct {
	DealID           string    `json:"deal_id"`
	NaturalKey       string    `json:"natural_key"`
	CruiseLine       string    `json:"cruise_line"`
	ShipName         string    `json:"ship_name"`
	OldTotalPrice    float64   `json:"old_total_price"`
	NewTotalPrice    float64   `json:"new_total_price"`
	NewPricePerNight float64   `json:"new_price_per_night"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// RunCompletedEvent summarizes one finished ingestion run.
type RunCompletedEvent struct {
	RunID        string    `json:"run_id"`
	Status       string    `json:"status"`
	PagesFetched int       `json:"pages_fetched"`
	PagesFailed  int       `json:"pages_failed"`
	DealsParsed  int       `json:"deals_parsed"`
	Rejected     int       `json:"rejected"`
	Created      int       `json:"created"`
	Updated      int       `json:"updated"`
	Deactivated  int       `json:"deactivated"`
	GuardSkipped bool      `json:"guard_skipped"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Publisher emits ingestion events. Implementations must never block a
// run on delivery problems; callers treat errors as log-and-continue.
type Publisher interface {
	PublishPriceDrop(ctx context.Context, event PriceDropEvent) error
	PublishRunCompleted(ctx context.Context, event RunCompletedEvent) error
	Close() error
}

// KafkaPublisher publishes events to a Kafka topic.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *zap.Logger
}

// NewKafkaPublisher creates a publisher writing to the given topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: kafka.NewProducer(brokers, logger),
		topic:    topic,
		logger:   logger,
	}
}

// PublishPriceDrop emits a price-drop event keyed by natural key.
func (p *KafkaPublisher) PublishPriceDrop(ctx context.Context, event PriceDropEvent) error {
	return p.producer.Publish(ctx, p.topic, eventSource, TypePriceDropped, event.NaturalKey, event)
}

// PublishRunCompleted emits a run summary keyed by run id.
func (p *KafkaPublisher) PublishRunCompleted(ctx context.Context, event RunCompletedEvent) error {
	return p.producer.Publish(ctx, p.topic, eventSource, TypeRunCompleted, event.RunID, event)
}

// Close closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishPriceDrop(context.Context, PriceDropEvent) error       { return nil }
func (NoopPublisher) PublishRunCompleted(context.Context, RunCompletedEvent) error { return nil }
func (NoopPublisher) Close() error                                                 { return nil }
