package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/buyforme-service/internal/events"
)

// NotificationService fans lifecycle events out to the configured sinks.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sinks      []events.Sink
	enqueue    func(events.Event) bool
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sinks ...events.Sink) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		sinks:      sinks,
	}
}

// RegisterHandlers subscribes to every request event. When enqueue is set delivery is
// handed to it, otherwise sinks are called inline.
func (n *NotificationService) RegisterHandlers(enqueue func(events.Event) bool) {
	if n.dispatcher == nil {
		return
	}
	n.enqueue = enqueue
	n.dispatcher.SubscribeAll(n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("request event",
		zap.String("event_type", string(event.Type)),
		zap.String("request_id", event.RequestID),
		zap.String("new_status", string(event.NewStatus)),
		zap.String("actor_kind", string(event.Actor.Kind)))

	if n.enqueue != nil {
		if !n.enqueue(event) {
			n.logger.Warn("notification queue full; event dropped",
				zap.String("event_id", event.ID),
				zap.String("request_id", event.RequestID))
		}
		return nil
	}
	n.Deliver(ctx, event)
	return nil
}

// Deliver sends event to every sink. Sink failures are logged; the transition is already durable.
func (n *NotificationService) Deliver(ctx context.Context, event events.Event) {
	for _, sink := range n.sinks {
		if err := sink.Send(ctx, event); err != nil {
			n.logger.Warn("notification sink failed",
				zap.String("sink", sink.Name()),
				zap.String("event_id", event.ID),
				zap.String("request_id", event.RequestID),
				zap.Error(err))
		}
	}
}

// Close releases every sink.
func (n *NotificationService) Close() error {
	var errs []error
	for _, sink := range n.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
