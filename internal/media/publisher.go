package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// Publisher emits media lifecycle events onto the configured topic.
type Publisher struct {
	pub *pubsub.Publisher
}

// NewPublisher wraps a topic publisher handle.
func NewPublisher(pub *pubsub.Publisher) (*Publisher, error) {
	if pub == nil {
		return nil, errors.New("media events publisher handle is required")
	}
	return &Publisher{pub: pub}, nil
}

var _ eventPublisher = (*Publisher)(nil)

// PublishMediaEvent marshals the event and waits for broker acceptance.
// Callers treat failures as best-effort; the service logs and continues.
func (p *Publisher) PublishMediaEvent(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal media event: %w", err)
	}
	result := p.pub.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": event.Type,
			"media_id":   event.MediaID,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish media event: %w", err)
	}
	return nil
}
