package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/events"
)

const (
	defaultWorkers = 2
	defaultBuffer  = 256
	defaultTimeout = 30 * time.Second
)

// Options sizes the pool. Zero values pick defaults.
type Options struct {
	Workers int
	Buffer  int
	// Timeout bounds a single handler run, e.g. one SMTP delivery.
	Timeout time.Duration
}

type job struct {
	ctx     context.Context
	event   events.Event
	handler events.EventHandler
}

// NotificationWorker runs event side effects such as emails off the request
// path. Handlers subscribed through Dispatcher are queued instead of being run
// by the publisher; a full queue drops the job with a warning.
type NotificationWorker struct {
	opts   Options
	logger *zap.Logger
	jobs   chan job
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewNotificationWorker builds an idle pool. Call Start to begin consuming.
func NewNotificationWorker(opts Options, logger *zap.Logger) *NotificationWorker {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		opts:   opts,
		logger: logger,
		jobs:   make(chan job, opts.Buffer),
	}
}

// Start launches the consumers.
func (w *NotificationWorker) Start() {
	for i := 0; i < w.opts.Workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	w.logger.Info("notification worker started", zap.Int("workers", w.opts.Workers), zap.Int("buffer", w.opts.Buffer))
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to expire.
func (w *NotificationWorker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notification worker: %d jobs still queued: %w", len(w.jobs), ctx.Err())
	}
}

// Dispatcher returns inner with Subscribe rerouted through the pool. Publish
// still goes straight to inner.
func (w *NotificationWorker) Dispatcher(inner events.Dispatcher) events.Dispatcher {
	return &queuedDispatcher{inner: inner, worker: w}
}

func (w *NotificationWorker) enqueue(ctx context.Context, event events.Event, handler events.EventHandler) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.logger.Warn("notification dropped after shutdown", zap.String("event_type", string(event.Type)), zap.String("event_id", event.ID))
		return
	}
	// The request that published the event is over before the job runs.
	j := job{ctx: context.WithoutCancel(ctx), event: event, handler: handler}
	select {
	case w.jobs <- j:
	default:
		w.logger.Warn("notification queue full, dropping", zap.String("event_type", string(event.Type)), zap.String("event_id", event.ID))
	}
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for j := range w.jobs {
		w.process(j)
	}
}

func (w *NotificationWorker) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, w.opts.Timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("notification handler panicked", zap.String("event_type", string(j.event.Type)), zap.Any("panic", r))
		}
	}()
	if err := j.handler(ctx, j.event); err != nil {
		w.logger.Warn("notification failed",
			zap.String("event_type", string(j.event.Type)),
			zap.String("event_id", j.event.ID),
			zap.Error(err))
	}
}

type queuedDispatcher struct {
	inner  events.Dispatcher
	worker *NotificationWorker
}

func (d *queuedDispatcher) Publish(ctx context.Context, event events.Event) error {
	return d.inner.Publish(ctx, event)
}

func (d *queuedDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.inner.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		d.worker.enqueue(ctx, event, handler)
		return nil
	})
}
