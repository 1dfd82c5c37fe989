package service

import (
	"context"

	commonredis "gazetteer-data/common/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Event types published to the event stream.
const (
	EventDataChanged  = "data_changed"
	EventErrorChanged = "error_changed"
	EventChecked      = "checked"
)

// EventPublisher emits wizard and selection events. Publishing never fails the
// caller; implementations log their own errors.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any)
}

// StreamPublisher writes events to a Redis stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewStreamPublisher(client *redis.Client, stream string, logger *zap.Logger) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, logger: logger}
}

func (p *StreamPublisher) Publish(ctx context.Context, eventType string, data any) {
	id, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, eventType, data)
	if err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("stream", p.stream),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("Published event",
		zap.String("stream", p.stream),
		zap.String("event_type", eventType),
		zap.String("message_id", id),
	)
}

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) {}

// DataChangedEvent follows a tab change.
type DataChangedEvent struct {
	From    string   `json:"from"`
	IsRange bool     `json:"is_range"`
	Changed []string `json:"changed"`
}

// ErrorChangedEvent carries the validation state after a change.
type ErrorChangedEvent struct {
	Errors []FieldError `json:"errors"`
}

// CheckedEvent carries the checked UPRNs of a selection session.
type CheckedEvent struct {
	SessionID string   `json:"session_id"`
	Uprns     []string `json:"uprns"`
}
