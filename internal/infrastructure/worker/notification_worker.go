package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/field-expense/internal/application/service"
	"go.uber.org/zap"
)

// NotificationWorker drains the notification outbox on an interval
type NotificationWorker struct {
	notifications service.NotificationService
	interval      time.Duration
	logger        *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewNotificationWorker creates a worker that polls every interval
func NewNotificationWorker(notifications service.NotificationService, interval time.Duration, logger *zap.Logger) *NotificationWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &NotificationWorker{
		notifications: notifications,
		interval:      interval,
		logger:        logger,
	}
}

// Name returns the worker name
func (w *NotificationWorker) Name() string {
	return "notification-worker"
}

// Start begins polling in the background
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("notification worker is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("NotificationWorker started", zap.Duration("interval", w.interval))

	go w.loop(runCtx, w.done)
	return nil
}

// Stop cancels polling and waits for the current pass to finish
func (w *NotificationWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (w *NotificationWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("NotificationWorker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *NotificationWorker) runOnce(ctx context.Context) {
	stats, err := w.notifications.ProcessPending(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("Notification pass failed", zap.Error(err))
		}
		return
	}
	if stats.Sent > 0 || stats.Failed > 0 {
		w.logger.Info("Notification pass complete",
			zap.Int("sent", stats.Sent),
			zap.Int("failed", stats.Failed))
	}
}
