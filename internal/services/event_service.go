package services

import (
	"context"

	"go.uber.org/zap"
)

// NopRecorder discards every event.
type NopRecorder struct{}

// Record implements EventRecorder.
func (NopRecorder) Record(context.Context, Event) {}

// LogRecorder writes events to the structured log. It is the default
// production recorder; an external analytics sink can replace it without
// touching the services.
type LogRecorder struct {
	Logger *zap.Logger
}

// NewLogRecorder constructs a recorder backed by the given logger.
func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogRecorder{Logger: logger}
}

// Record implements EventRecorder.
func (r *LogRecorder) Record(_ context.Context, event Event) {
	fields := []zap.Field{
		zap.String("event", event.Name),
		zap.Time("occurredAt", event.OccurredAt),
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}
	r.Logger.Info("analytics event", fields...)
}
