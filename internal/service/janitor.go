package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/companion/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultJanitorInterval = 1 * time.Hour
	defaultSessionTTL      = 7 * 24 * time.Hour
)

// SessionJanitor periodically deletes sessions that have been idle longer than the TTL.
type SessionJanitor struct {
	store  domain.SessionStore
	logger *zap.Logger

	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSessionJanitor(ss domain.SessionStore, ttl time.Duration, logger *zap.Logger) *SessionJanitor {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionJanitor{
		store:    ss,
		logger:   logger,
		ttl:      ttl,
		interval: defaultJanitorInterval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

func (j *SessionJanitor) SetInterval(d time.Duration) {
	if d > 0 {
		j.interval = d
	}
}

// Start runs the janitor on a periodic schedule in a background goroutine.
func (j *SessionJanitor) Start() {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.logger.Info("session janitor started",
			zap.Duration("interval", j.interval),
			zap.Duration("ttl", j.ttl))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				j.RunOnce(ctx)
				cancel()
			case <-j.stopCh:
				j.logger.Info("session janitor stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the janitor.
func (j *SessionJanitor) Stop() {
	close(j.stopCh)
	j.wg.Wait()
}

// RunOnce deletes idle sessions and returns how many were removed.
func (j *SessionJanitor) RunOnce(ctx context.Context) int64 {
	cutoff := j.now().Add(-j.ttl)
	deleted, err := j.store.DeleteIdle(ctx, cutoff)
	if err != nil {
		j.logger.Error("failed to delete idle sessions", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		j.logger.Info("deleted idle sessions", zap.Int64("count", deleted))
	}
	return deleted
}
