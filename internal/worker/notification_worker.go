package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/buyforme-service/internal/events"
	"github.com/spec-kit/buyforme-service/internal/service"
)

// NotificationWorker delivers events off the request path through a bounded queue.
type NotificationWorker struct {
	queue   chan events.Event
	deliver func(context.Context, events.Event)
	logger  *zap.Logger

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewNotificationWorker builds a worker with the given queue size.
func NewNotificationWorker(deliver func(context.Context, events.Event), buffer int, logger *zap.Logger) *NotificationWorker {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		queue:   make(chan events.Event, buffer),
		deliver: deliver,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start drains the queue until Stop is called. Events still queued at Stop are delivered.
func (w *NotificationWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		for event := range w.queue {
			w.deliver(ctx, event)
		}
		w.logger.Info("notification worker stopped")
	}()
}

// Enqueue offers event without blocking and reports whether it was accepted.
func (w *NotificationWorker) Enqueue(event events.Event) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return false
	}
	select {
	case w.queue <- event:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for the backlog to drain.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	w.mu.Unlock()
	<-w.done
}

// StartNotificationWorker registers notification handlers and starts background delivery.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, buffer int, logger *zap.Logger) *NotificationWorker {
	if notificationService == nil {
		return nil
	}
	w := NewNotificationWorker(notificationService.Deliver, buffer, logger)
	notificationService.RegisterHandlers(w.Enqueue)
	w.Start(ctx)
	return w
}
