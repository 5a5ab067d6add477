package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher mirrors verification outcomes to an external stream. Publishing
// is best effort: the verification log row is the source of truth and a
// publish failure must never fail a review.
type Publisher interface {
	Publish(ctx context.Context, log VerificationLog)
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, VerificationLog) {}

// KafkaPublisher produces one JSON record per review action.
type KafkaPublisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewKafkaPublisher connects to the given brokers, producing to topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, logger: logger}, nil
}

type reviewEvent struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	VerifiedBy    string    `json:"verified_by"`
	Result        string    `json:"result"`
	Notes         string    `json:"notes,omitempty"`
	VerifiedAt    time.Time `json:"verified_at"`
}

// Publish produces asynchronously; delivery failures are logged and dropped.
func (p *KafkaPublisher) Publish(ctx context.Context, log VerificationLog) {
	payload, err := json.Marshal(reviewEvent{
		ID:            log.ID.String(),
		ApplicationID: log.ApplicationID.String(),
		VerifiedBy:    log.VerifiedBy.String(),
		Result:        string(log.Result),
		Notes:         log.Notes,
		VerifiedAt:    log.VerifiedAt,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal review event", "error", err)
		return
	}

	record := &kgo.Record{
		Key:   []byte(log.ApplicationID.String()),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.ErrorContext(ctx, "publish review event",
				"application_id", log.ApplicationID.String(),
				"error", err,
			)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return err
	}
	p.client.Close()
	return nil
}
