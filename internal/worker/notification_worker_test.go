package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/buyforme-service/internal/events"
	"github.com/spec-kit/buyforme-service/internal/service"
)

type recordingSink struct {
	mu   sync.Mutex
	seen []string
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(_ context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, e.RequestID)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func TestNotificationWorkerDrainsOnStop(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &recordingSink{}
	svc := service.NewNotificationService(dispatcher, zap.NewNop(), sink)

	w := StartNotificationWorker(context.Background(), svc, 8, zap.NewNop())
	for _, id := range []string{"r1", "r2", "r3"} {
		assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventRequestTransitioned, RequestID: id}))
	}
	w.Stop()
	w.Stop()

	assert.Equal(t, []string{"r1", "r2", "r3"}, sink.seen)
	assert.False(t, w.Enqueue(events.Event{RequestID: "late"}))
}

func TestNotificationWorkerRejectsWhenFull(t *testing.T) {
	w := NewNotificationWorker(func(context.Context, events.Event) {}, 1, nil)

	assert.True(t, w.Enqueue(events.Event{RequestID: "r1"}))
	assert.False(t, w.Enqueue(events.Event{RequestID: "r2"}))

	w.Start(context.Background())
	w.Stop()
}
