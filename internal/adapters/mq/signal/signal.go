// Package signal is an in-process broadcast bus for matrix reload requests.
//
// Publishers enqueue without blocking; a single dispatcher goroutine fans
// each signal out to every subscriber in subscription order. Reload requests
// are idempotent, so a full buffer drops the new signal instead of blocking
// the publisher.
package signal

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/skillmatrix/pkg/logger"
	"github.com/okian/skillmatrix/pkg/metrics"
)

const defaultBufferSize = 16

// Topic names a kind of signal.
type Topic string

// TopicMatrixReload asks every matrix view to reload with its current filters.
const TopicMatrixReload Topic = "matrix:reload"

// Signal is a message delivered to subscribers.
type Signal struct {
	Topic  Topic
	Reason string
}

// Handler receives signals. It runs on the dispatcher goroutine.
type Handler func(ctx context.Context, s Signal)

type subscription struct {
	id    uint64
	topic Topic
	fn    Handler
}

// Bus fans signals out to subscribers.
type Bus struct {
	bufferSize int
	log        logger.Logger

	events  chan Signal
	done    chan struct{}
	started atomic.Bool

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	closed bool
	once   sync.Once
}

// New creates a bus. Call Start to begin dispatching.
func New(opts ...Option) *Bus {
	b := &Bus{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.Get().Named("signal")
	}
	b.events = make(chan Signal, b.bufferSize)
	b.done = make(chan struct{})
	return b
}

// Subscribe registers fn for topic and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, topic: topic, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish enqueues s for delivery.
func (b *Bus) Publish(ctx context.Context, s Signal) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	select {
	case b.events <- s:
		if s.Topic == TopicMatrixReload {
			metrics.RecordReloadSignal()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		metrics.RecordErrorByComponent("signal", "buffer_full")
		return ErrDropped
	}
}

// Start runs the dispatcher until ctx is cancelled or the bus is closed.
func (b *Bus) Start(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	go b.run(ctx)
}

func (b *Bus) run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-b.events:
			if !ok {
				return
			}
			b.dispatch(ctx, s)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, s Signal) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.topic == s.Topic {
			handlers = append(handlers, sub.fn)
		}
	}
	b.mu.RUnlock()

	b.log.Debug(ctx, "dispatching signal",
		logger.String("topic", string(s.Topic)),
		logger.String("reason", s.Reason),
		logger.Int("subscribers", len(handlers)))

	for _, fn := range handlers {
		b.safeCall(ctx, fn, s)
	}
}

func (b *Bus) safeCall(ctx context.Context, fn Handler, s Signal) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("signal", "handler_panic")
			b.log.Error(ctx, "signal handler panicked",
				logger.String("topic", string(s.Topic)),
				logger.Any("panic", r))
		}
	}()
	fn(ctx, s)
}

// Close stops accepting signals and, when the dispatcher was started, waits
// for it to deliver the pending signals and exit. It must not be called from
// a Handler.
func (b *Bus) Close() error {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.events)
		b.mu.Unlock()
	})
	if b.started.Load() {
		<-b.done
	}
	return nil
}

// Done is closed when the dispatcher goroutine exits.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

// Len returns the number of pending signals.
func (b *Bus) Len() int {
	return len(b.events)
}
