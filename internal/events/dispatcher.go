// Package events delivers analytics events off the request path.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"practicecoach/internal/model"
)

// Sink receives every published event.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event *model.Event) error
}

// Dispatcher queues events in a bounded buffer and hands them to its sinks
// from a single worker. Publish never blocks: when the buffer is full the
// event is dropped.
type Dispatcher struct {
	queue   chan *model.Event
	sinks   []Sink
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

const deliverTimeout = 5 * time.Second

func NewDispatcher(bufferSize int, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	d := &Dispatcher{
		queue:   make(chan *model.Event, bufferSize),
		sinks:   sinks,
		timeout: deliverTimeout,
		logger:  logger.With(zap.String("component", "events")),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues event for delivery.
func (d *Dispatcher) Publish(event *model.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Debug("dispatcher closed, dropping event", zap.String("type", string(event.Type)))
		return
	}

	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event buffer full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("session_id", event.SessionID),
		)
	}
}

// Close stops accepting events and waits until queued ones are delivered
// or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("events not drained"), ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		for _, sink := range d.sinks {
			d.deliver(sink, event)
		}
	}
}

func (d *Dispatcher) deliver(sink Sink, event *model.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := sink.Deliver(ctx, event); err != nil {
		d.logger.Warn("event delivery failed",
			zap.String("sink", sink.Name()),
			zap.String("type", string(event.Type)),
			zap.String("session_id", event.SessionID),
			zap.Error(err),
		)
	}
}
