package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the buffer has no room for another event.
var ErrQueueFull = errors.New("event queue full")

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("event publisher closed")

// Buffered queues events and hands them to the wrapped publisher from a single
// background worker, so Publish never waits on the broker. Events are dropped
// when the queue is full.
type Buffered struct {
	next    Publisher
	queue   chan Event
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewBuffered starts the worker that drains into next.
func NewBuffered(next Publisher, size int, timeout time.Duration, logger *zap.Logger) *Buffered {
	b := &Buffered{
		next:    next,
		queue:   make(chan Event, size),
		timeout: timeout,
		logger:  logger,
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// Publish enqueues event without blocking. ctx is not used once the event is queued.
func (b *Buffered) Publish(_ context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrPublisherClosed
	}
	select {
	case b.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (b *Buffered) run() {
	defer b.wg.Done()
	for event := range b.queue {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		if err := b.next.Publish(ctx, event); err != nil {
			b.logger.Warn("Failed to deliver ledger event",
				zap.String("event_id", event.ID),
				zap.Int64("user_id", event.UserID),
				zap.Int64("transaction_id", event.TransactionID),
				zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting events, flushes the queue and closes the wrapped publisher.
func (b *Buffered) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	b.wg.Wait()
	return b.next.Close()
}
