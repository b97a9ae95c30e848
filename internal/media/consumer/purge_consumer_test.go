package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/velvetrowhq/velvetrow-backend/pkg/errors"
	"github.com/velvetrowhq/velvetrow-backend/pkg/logger"
)

type stubDeleter struct {
	deleted []uuid.UUID
	err     error
}

func (s *stubDeleter) Delete(_ context.Context, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func purgeMessage(t *testing.T, req purgeRequest) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return &pubsub.Message{ID: "msg-1", Data: data}
}

func TestNewPurgeConsumerValidation(t *testing.T) {
	if _, err := NewPurgeConsumer(nil, &pubsub.Subscriber{}, testLogger()); err == nil {
		t.Fatal("expected error without service")
	}
	if _, err := NewPurgeConsumer(&stubDeleter{}, nil, testLogger()); err == nil {
		t.Fatal("expected error without subscription")
	}
	if _, err := NewPurgeConsumer(&stubDeleter{}, &pubsub.Subscriber{}, nil); err == nil {
		t.Fatal("expected error without logger")
	}
}

func TestPurgeConsumerProcessDeletes(t *testing.T) {
	service := &stubDeleter{}
	consumer := &PurgeConsumer{service: service, logg: testLogger()}

	id := uuid.New()
	ack := consumer.process(context.Background(), purgeMessage(t, purgeRequest{MediaID: id.String(), Reason: "takedown"}))
	if !ack {
		t.Fatal("expected successful purge to ack")
	}
	if len(service.deleted) != 1 || service.deleted[0] != id {
		t.Fatalf("expected delete call for %s, got %v", id, service.deleted)
	}
}

func TestPurgeConsumerAcksMalformedMessages(t *testing.T) {
	service := &stubDeleter{}
	consumer := &PurgeConsumer{service: service, logg: testLogger()}

	if !consumer.process(context.Background(), &pubsub.Message{ID: "bad", Data: []byte("{")}) {
		t.Fatal("malformed payload must be acked, not redelivered")
	}
	if !consumer.process(context.Background(), purgeMessage(t, purgeRequest{MediaID: ""})) {
		t.Fatal("missing media id must be acked")
	}
	if !consumer.process(context.Background(), purgeMessage(t, purgeRequest{MediaID: "not-a-uuid"})) {
		t.Fatal("malformed media id must be acked")
	}
	if len(service.deleted) != 0 {
		t.Fatalf("no deletes expected for malformed messages, got %v", service.deleted)
	}
}

func TestPurgeConsumerAcksMissingTarget(t *testing.T) {
	service := &stubDeleter{err: pkgerrors.New(pkgerrors.CodeNotFound, "media not found")}
	consumer := &PurgeConsumer{service: service, logg: testLogger()}

	if !consumer.process(context.Background(), purgeMessage(t, purgeRequest{MediaID: uuid.NewString()})) {
		t.Fatal("already-deleted target must be acked")
	}
}

func TestPurgeConsumerNacksTransientFailure(t *testing.T) {
	service := &stubDeleter{err: errors.New("store unavailable")}
	consumer := &PurgeConsumer{service: service, logg: testLogger()}

	if consumer.process(context.Background(), purgeMessage(t, purgeRequest{MediaID: uuid.NewString()})) {
		t.Fatal("transient failure must be nacked for redelivery")
	}
}
