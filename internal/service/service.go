package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/events"
	apperrors "github.com/slidexpress/workflow-service/pkg/util/errorutil"
)

// Clock returns the current time. Services stamp assignment and start times with it.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// validID reports whether id can address a stored record.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// notFoundOr maps a missing row to a not-found error for resource and anything else to a domain error.
func notFoundOr(err error, resource string, details map[string]any) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func ptr[T any](v T) *T {
	return &v
}
