package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/config"
	"github.com/slidexpress/workflow-service/internal/events"
	"github.com/slidexpress/workflow-service/internal/service"
)

func TestNotificationWorkerDeliversAsync(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inner := events.NewInMemoryDispatcher(zap.NewNop())
	notifications := service.NewNotificationService(inner, zap.NewNop(), config.NotificationConfig{})
	w := StartNotificationWorker(ctx, inner, notifications, 4, zap.NewNop())

	got := make(chan string, 1)
	w.Subscribe(events.EventTicketDeleted, func(_ context.Context, e events.Event) error {
		got <- e.TicketID
		return nil
	})

	if err := w.Publish(context.Background(), events.Event{Type: events.EventTicketDeleted, TicketID: "t1"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	select {
	case id := <-got:
		if id != "t1" {
			t.Errorf("delivered ticket id = %q, want t1", id)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestNotificationWorkerQueueFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := events.NewInMemoryDispatcher(zap.NewNop())
	w := StartNotificationWorker(ctx, inner, nil, 1, zap.NewNop())

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	w.Subscribe(events.EventTicketCreated, func(context.Context, events.Event) error {
		started <- struct{}{}
		<-release
		return nil
	})

	event := events.Event{Type: events.EventTicketCreated}
	if err := w.Publish(ctx, event); err != nil {
		t.Fatalf("first Publish() error = %v", err)
	}
	<-started
	if err := w.Publish(ctx, event); err != nil {
		t.Fatalf("second Publish() error = %v", err)
	}
	if err := w.Publish(ctx, event); !errors.Is(err, errQueueFull) {
		t.Errorf("third Publish() error = %v, want %v", err, errQueueFull)
	}

	cancel()
	close(release)
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestNotificationWorkerDrainsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := events.NewInMemoryDispatcher(zap.NewNop())
	w := StartNotificationWorker(ctx, inner, nil, 8, zap.NewNop())

	delivered := make(chan struct{}, 8)
	w.Subscribe(events.EventEmailIngested, func(context.Context, events.Event) error {
		delivered <- struct{}{}
		return errors.New("webhook down")
	})

	for i := 0; i < 3; i++ {
		if err := w.Publish(ctx, events.Event{Type: events.EventEmailIngested}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	cancel()
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	if len(delivered) != 3 {
		t.Errorf("delivered = %d, want 3", len(delivered))
	}
}
