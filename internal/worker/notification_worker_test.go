package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/events"
)

func TestHandlersRunOffThePublisher(t *testing.T) {
	w := NewNotificationWorker(Options{Workers: 1}, zap.NewNop())
	d := w.Dispatcher(events.NewInMemoryDispatcher(zap.NewNop()))

	release := make(chan struct{})
	var handled atomic.Int32
	d.Subscribe(events.EventLeadCreated, func(ctx context.Context, e events.Event) error {
		<-release
		handled.Add(1)
		return errors.New("smtp down")
	})
	w.Start()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Publish(ctx, events.New(events.EventLeadCreated, "lead-1", events.Actor{}, nil)))
	// The request is over; the job must still run.
	cancel()
	assert.Zero(t, handled.Load())

	close(release)
	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, w.Shutdown(shutdownCtx))
	assert.Equal(t, int32(1), handled.Load())
}

func TestJobContextSurvivesRequestCancellation(t *testing.T) {
	w := NewNotificationWorker(Options{Workers: 1, Timeout: time.Second}, zap.NewNop())
	d := w.Dispatcher(events.NewInMemoryDispatcher(zap.NewNop()))

	errs := make(chan error, 1)
	d.Subscribe(events.EventTermsAgreed, func(ctx context.Context, _ events.Event) error {
		errs <- ctx.Err()
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Publish(ctx, events.New(events.EventTermsAgreed, "m-1", events.Actor{}, nil)))
	w.Start()

	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
	require.NoError(t, w.Shutdown(context.Background()))
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	w := NewNotificationWorker(Options{Workers: 1, Buffer: 1}, zap.NewNop())
	d := w.Dispatcher(events.NewInMemoryDispatcher(zap.NewNop()))

	var mu sync.Mutex
	var seen []string
	d.Subscribe(events.EventTaskAssigned, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.ResourceID)
		return nil
	})

	// Not started: the first job fills the buffer and the rest are dropped.
	for _, id := range []string{"t-1", "t-2", "t-3"} {
		require.NoError(t, d.Publish(context.Background(), events.New(events.EventTaskAssigned, id, events.Actor{}, nil)))
	}
	w.Start()
	require.NoError(t, w.Shutdown(context.Background()))

	assert.Equal(t, []string{"t-1"}, seen)
}

func TestPanickingHandlerDoesNotKillTheWorker(t *testing.T) {
	w := NewNotificationWorker(Options{Workers: 1}, zap.NewNop())
	d := w.Dispatcher(events.NewInMemoryDispatcher(zap.NewNop()))

	var ran atomic.Int32
	d.Subscribe(events.EventMatchCreated, func(_ context.Context, e events.Event) error {
		if e.ResourceID == "boom" {
			panic("template exploded")
		}
		ran.Add(1)
		return nil
	})
	w.Start()
	require.NoError(t, d.Publish(context.Background(), events.New(events.EventMatchCreated, "boom", events.Actor{}, nil)))
	require.NoError(t, d.Publish(context.Background(), events.New(events.EventMatchCreated, "m-2", events.Actor{}, nil)))
	require.NoError(t, w.Shutdown(context.Background()))

	assert.Equal(t, int32(1), ran.Load())
}

func TestPublishAfterShutdownIsDropped(t *testing.T) {
	w := NewNotificationWorker(Options{}, zap.NewNop())
	d := w.Dispatcher(events.NewInMemoryDispatcher(zap.NewNop()))
	d.Subscribe(events.EventLeadAssigned, func(context.Context, events.Event) error {
		t.Error("handler ran after shutdown")
		return nil
	})
	w.Start()
	require.NoError(t, w.Shutdown(context.Background()))
	require.NoError(t, w.Shutdown(context.Background()))

	assert.NoError(t, d.Publish(context.Background(), events.New(events.EventLeadAssigned, "lead-1", events.Actor{}, nil)))
}
