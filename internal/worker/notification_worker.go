package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/events"
	"github.com/slidexpress/workflow-service/internal/service"
)

var errQueueFull = errors.New("notification queue full")

// NotificationWorker is an events.Dispatcher that hands published events to a
// background goroutine, which delivers them to the subscribers of inner.
// Services publish through it so notification fan-out never runs on the
// request path.
type NotificationWorker struct {
	inner  events.Dispatcher
	queue  chan events.Event
	logger *zap.Logger
	done   chan struct{}
}

// StartNotificationWorker subscribes notifications to inner and starts
// delivering queued events until ctx is done. Events still queued at that
// point are delivered before Done is closed.
func StartNotificationWorker(ctx context.Context, inner events.Dispatcher, notifications *service.NotificationService, queueSize int, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}

	w := &NotificationWorker{
		inner:  inner,
		queue:  make(chan events.Event, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

// Publish queues event for delivery. It fails fast when the queue is full.
func (w *NotificationWorker) Publish(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("dropping event, notification queue full",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
		return errQueueFull
	}
}

// Subscribe registers handler on the underlying dispatcher.
func (w *NotificationWorker) Subscribe(eventType events.EventType, handler events.EventHandler) {
	w.inner.Subscribe(eventType, handler)
}

// Done is closed once the worker has stopped.
func (w *NotificationWorker) Done() <-chan struct{} {
	return w.done
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *NotificationWorker) drain() {
	ctx := context.Background()
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, event events.Event) {
	if err := w.inner.Publish(ctx, event); err != nil {
		w.logger.Debug("notification delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
