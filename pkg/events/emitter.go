package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/arena-hq/arena-engine/internal/tracing"
	"github.com/arena-hq/arena-engine/pkg/kafka"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// envelope is the wire shape published to the events topic.
type envelope struct {
	SchemaVersion string         `json:"schema_version"`
	Event         LifecycleEvent `json:"event"`
}

// Emitter publishes lifecycle events to kafka. It implements Publisher.
// Events are keyed by proposal id so per-proposal ordering survives
// partitioning.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// Publish emits a single lifecycle event.
func (e *Emitter) Publish(ctx context.Context, event LifecycleEvent) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.Publish")
	defer span.End()

	payload := envelope{
		SchemaVersion: SchemaVersion,
		Event:         event,
	}

	if err := e.producer.Publish(ctx, event.ProposalID, payload); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type":  event.Type,
			"proposal_id": event.ProposalID,
			"request_id":  event.RequestID,
		}).Error("Failed to emit lifecycle event")
		return err
	}

	return nil
}

// NoopPublisher drops events. Used when the kafka producer is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event LifecycleEvent) error {
	return nil
}

// PublishAll emits events in order, stopping at the first failure. Callers
// rely on at-least-once delivery; a retry may re-emit earlier events and
// downstream consumers dedup on proposal id plus event type.
func (e *Emitter) PublishAll(ctx context.Context, evs []LifecycleEvent) error {
	for _, ev := range evs {
		if err := e.Publish(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
