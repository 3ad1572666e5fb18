package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ViewPruner drops idle inbox views.
type ViewPruner interface {
	PruneIdle() int
}

// StartViewJanitor prunes idle views every interval until ctx is cancelled.
// The returned channel is closed when the janitor has stopped.
func StartViewJanitor(ctx context.Context, pruner ViewPruner, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if pruner == nil || interval <= 0 {
		close(done)
		return done
	}
	logger = logger.Named("view_janitor")

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := pruner.PruneIdle(); n > 0 {
					logger.Info("pruned idle inbox views", zap.Int("count", n))
				}
			}
		}
	}()
	return done
}
