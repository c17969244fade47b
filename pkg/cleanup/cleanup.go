// Package cleanup runs the resolved-alert retention job.
package cleanup

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Purger deletes resolved alerts older than a cutoff age.
type Purger interface {
	PurgeResolved(ctx context.Context, olderThan time.Duration) (int64, error)
}

type CleanupService struct {
	purger    Purger
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewCleanupService(purger Purger, retention, interval time.Duration, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		purger:    purger,
		retention: retention,
		interval:  interval,
		logger:    logger.Named("cleanup"),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs a purge immediately and then every interval until Stop. It
// blocks; run it in its own goroutine. A non-positive retention or
// interval disables the job.
func (s *CleanupService) Start() {
	defer close(s.done)

	if s.retention <= 0 || s.interval <= 0 {
		s.logger.Info("Alert retention disabled")
		return
	}

	s.logger.Info("Starting resolved alert cleanup",
		zap.Duration("retention", s.retention),
		zap.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce()

	for {
		select {
		case <-ticker.C:
			s.RunOnce()
		case <-s.stopChan:
			s.logger.Info("Stopping resolved alert cleanup")
			return
		}
	}
}

// Stop ends the loop started by Start and waits for it to return.
func (s *CleanupService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}

// RunOnce purges resolved alerts older than the retention period.
func (s *CleanupService) RunOnce() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.purger.PurgeResolved(ctx, s.retention)
	if err != nil {
		s.logger.Error("Failed to purge resolved alerts", zap.Error(err))
		return 0
	}

	if count > 0 {
		s.logger.Info("Purged resolved alerts", zap.Int64("count", count))
	}
	return count
}
