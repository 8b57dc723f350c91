package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pitchside/streaming/internal/domain"
	"github.com/pitchside/streaming/internal/infra"
)

// KafkaPublisher publishes match snapshots to a single topic, keyed by match
// id so all messages for one match land on the same partition in order.
type KafkaPublisher struct {
	producer *infra.KafkaProducer
	topic    string
	now      func() time.Time
}

// NewKafkaPublisher wraps a producer for the given topic.
func NewKafkaPublisher(producer *infra.KafkaProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, matchID, messageType string, rows []domain.ProjectionRow) error {
	if rows == nil {
		rows = []domain.ProjectionRow{}
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode snapshot for match %s: %w", matchID, err)
	}

	headers := map[string]string{
		"match_id":     matchID,
		"message_type": messageType,
		"timestamp":    p.now().UTC().Format(time.RFC3339),
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(matchID), body, headers); err != nil {
		return fmt.Errorf("publish %s for match %s: %w", messageType, matchID, err)
	}
	return nil
}
