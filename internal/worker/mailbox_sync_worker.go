package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/domain"
)

// MailboxSyncer pulls starred mail into a workspace.
type MailboxSyncer interface {
	Sync(ctx context.Context, workspaceID string, fetchedBy *string) ([]domain.Email, error)
}

// StartMailboxSyncWorker syncs workspaceID every interval until ctx is done.
// The returned channel is closed once the loop exits. A zero interval
// disables the worker.
func StartMailboxSyncWorker(ctx context.Context, syncer MailboxSyncer, workspaceID string, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if syncer == nil || interval <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("mailbox sync worker started",
			zap.String("workspace_id", workspaceID),
			zap.Duration("interval", interval))
		for {
			select {
			case <-ctx.Done():
				logger.Info("mailbox sync worker stopped")
				return
			case <-ticker.C:
				runSync(ctx, syncer, workspaceID, interval, logger)
			}
		}
	}()
	return done
}

func runSync(ctx context.Context, syncer MailboxSyncer, workspaceID string, timeout time.Duration, logger *zap.Logger) {
	syncCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	emails, err := syncer.Sync(syncCtx, workspaceID, nil)
	if err != nil {
		logger.Warn("mailbox sync failed", zap.String("workspace_id", workspaceID), zap.Error(err))
		return
	}
	logger.Debug("mailbox sync complete",
		zap.Int("emails", len(emails)),
		zap.Duration("took", time.Since(start)))
}
