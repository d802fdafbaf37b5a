package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/domain"
)

type countingSyncer struct {
	calls     atomic.Int32
	workspace atomic.Value
	err       error
}

func (s *countingSyncer) Sync(_ context.Context, workspaceID string, _ *string) ([]domain.Email, error) {
	s.calls.Add(1)
	s.workspace.Store(workspaceID)
	return nil, s.err
}

func TestMailboxSyncWorkerRunsUntilCancelled(t *testing.T) {
	for _, syncErr := range []error{nil, errors.New("imap down")} {
		syncer := &countingSyncer{err: syncErr}
		ctx, cancel := context.WithCancel(context.Background())
		done := StartMailboxSyncWorker(ctx, syncer, "ws-1", 5*time.Millisecond, zap.NewNop())

		deadline := time.Now().Add(2 * time.Second)
		for syncer.calls.Load() < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop after cancel")
		}

		if syncer.calls.Load() < 2 {
			t.Errorf("Sync calls = %d, want at least 2 (err %v)", syncer.calls.Load(), syncErr)
		}
		if got := syncer.workspace.Load(); got != "ws-1" {
			t.Errorf("workspace = %v, want ws-1", got)
		}
	}
}

func TestMailboxSyncWorkerDisabled(t *testing.T) {
	syncer := &countingSyncer{}
	done := StartMailboxSyncWorker(context.Background(), syncer, "ws-1", 0, zap.NewNop())
	select {
	case <-done:
	default:
		t.Fatal("disabled worker should report done immediately")
	}
	if syncer.calls.Load() != 0 {
		t.Errorf("Sync calls = %d, want 0", syncer.calls.Load())
	}
}
