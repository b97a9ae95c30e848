package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/velvetrowhq/velvetrow-backend/pkg/errors"
	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
)

type deleter interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

// purgeRequest asks for the full removal of one media record, remote asset
// included. Catalog and moderation tooling publish these when a product or
// account is taken down.
type purgeRequest struct {
	MediaID string `json:"media_id"`
	Reason  string `json:"reason,omitempty"`
}

// PurgeConsumer processes purge requests from Pub/Sub and drives them
// through the media service delete cascade.
type PurgeConsumer struct {
	service      deleter
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewPurgeConsumer constructs a consumer that watches the provided
// subscription.
func NewPurgeConsumer(service deleter, subscription *pubsub.Subscriber, logg *logger.Logger) (*PurgeConsumer, error) {
	if service == nil {
		return nil, errors.New("media service is required")
	}
	if subscription == nil {
		return nil, errors.New("purge subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &PurgeConsumer{
		service:      service,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription
// errors.
func (c *PurgeConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns true when the message should be acked. Malformed messages
// are acked so they do not loop forever; transient delete failures are
// nacked for redelivery.
func (c *PurgeConsumer) process(ctx context.Context, msg *pubsub.Message) bool {
	logCtx := c.logg.WithFields(ctx, map[string]any{"message_id": msg.ID})

	var req purgeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal purge request", err)
		return true
	}
	if strings.TrimSpace(req.MediaID) == "" {
		c.logg.Error(logCtx, "purge request missing media id", errors.New("empty media_id"))
		return true
	}

	id, err := uuid.Parse(req.MediaID)
	if err != nil {
		c.logg.Error(logCtx, "purge request carries malformed media id", err)
		return true
	}

	logCtx = c.logg.WithMediaID(logCtx, id.String())
	if req.Reason != "" {
		logCtx = c.logg.WithField(logCtx, "reason", req.Reason)
	}

	if err := c.service.Delete(logCtx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			c.logg.Info(logCtx, "purge target already gone")
			return true
		}
		c.logg.Error(logCtx, "purge delete failed", err)
		return false
	}

	c.logg.Info(logCtx, "media purged")
	return true
}
