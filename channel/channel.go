// Package channel provides a typed channel with explicit teardown.
//
// A Channel is either buffered (capacity > 0) or unbuffered (capacity 0,
// each Send rendezvous with one Receive). Close stops new sends and lets
// receivers drain what is already buffered. Destroy fails every pending and
// future operation and returns only once no goroutine is left blocked inside
// the channel.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pqiaohaoq/gochan/log"
)

var (
	ErrClosed           = errors.New("channel is closed")
	ErrDestroyed        = errors.New("channel is destroyed")
	ErrInvalidOperation = errors.New("invalid channel operation")
)

// parkedSend is an unbuffered send waiting for a receiver to take its value.
type parkedSend[T any] struct {
	value T
	taken bool
}

type Channel[T any] struct {
	id       string
	name     string
	capacity int

	mu        sync.Mutex
	sendCond  *sync.Cond
	recvCond  *sync.Cond
	drainCond *sync.Cond

	buffer ring[T]
	sendq  []*parkedSend[T]

	closed    bool
	destroyed bool

	pendingSenders   int
	pendingReceivers int

	logger log.Logger
}

// New creates a channel; a negative capacity is treated as 0.
func New[T any](capacity int, opts ...Option) *Channel[T] {
	o := applyOpts(opts)

	if capacity < 0 {
		capacity = 0
	}

	c := &Channel[T]{
		id:       uuid.NewString(),
		name:     o.name,
		capacity: capacity,
		buffer:   newRing[T](capacity),
		logger:   o.logger,
	}

	c.sendCond = sync.NewCond(&c.mu)
	c.recvCond = sync.NewCond(&c.mu)
	c.drainCond = sync.NewCond(&c.mu)

	c.logger.Debugf("[channel] create %s with capacity %d", c, capacity)

	return c
}

func (c *Channel[T]) String() string {
	if c.name == "" {
		return c.id
	}

	return fmt.Sprintf("%s(%s)", c.name, c.id)
}

func (c *Channel[T]) ID() string   { return c.id }
func (c *Channel[T]) Name() string { return c.name }
func (c *Channel[T]) Cap() int     { return c.capacity }

func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.buffer.len()
}

func (c *Channel[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *Channel[T]) IsDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.destroyed
}

// Pending reports how many goroutines are blocked in Send and Receive.
func (c *Channel[T]) Pending() (senders, receivers int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pendingSenders, c.pendingReceivers
}

// Send blocks until the value is buffered or taken by a receiver.
func (c *Channel[T]) Send(value T) error {
	return c.send(context.Background(), value)
}

// SendContext is Send that also gives up with ctx.Err() once ctx is done.
func (c *Channel[T]) SendContext(ctx context.Context, value T) error {
	return c.send(ctx, value)
}

// Receive blocks until a value is available. It fails with ErrClosed once
// the channel is closed and drained, and with ErrDestroyed after Destroy.
func (c *Channel[T]) Receive() (T, error) {
	return c.receive(context.Background())
}

func (c *Channel[T]) ReceiveContext(ctx context.Context) (T, error) {
	return c.receive(ctx)
}

// Close stops new sends and wakes every waiter. Buffered values stay
// receivable. Closing twice is a no-op; closing a destroyed channel is
// ErrInvalidOperation.
func (c *Channel[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return fmt.Errorf("%w: close of %w channel %s", ErrInvalidOperation, ErrDestroyed, c)
	}
	if c.closed {
		return nil
	}

	c.closed = true
	c.sendCond.Broadcast()
	c.recvCond.Broadcast()

	c.logger.Debugf("[channel] close %s, waking %d senders and %d receivers, %d values left",
		c, c.pendingSenders, c.pendingReceivers, c.buffer.len())

	return nil
}

// Destroy fails all blocked and future operations, drops buffered values
// and waits until every blocked goroutine has left the channel.
func (c *Channel[T]) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.destroyed {
		c.destroyed = true
		c.buffer.reset()
		c.sendCond.Broadcast()
		c.recvCond.Broadcast()

		c.logger.Debugf("[channel] destroy %s, waking %d senders and %d receivers",
			c, c.pendingSenders, c.pendingReceivers)
	}

	for c.pendingSenders > 0 || c.pendingReceivers > 0 {
		c.drainCond.Wait()
	}
}

func (c *Channel[T]) send(ctx context.Context, value T) error {
	if stop := c.watch(ctx); stop != nil {
		defer stop()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	if c.closed {
		return ErrClosed
	}

	if c.capacity == 0 {
		return c.handoff(ctx, value)
	}

	if c.buffer.full() {
		c.pendingSenders++
		defer c.leave(&c.pendingSenders)

		for c.buffer.full() && !c.closed && !c.destroyed && ctx.Err() == nil {
			c.sendCond.Wait()
		}

		switch {
		case c.destroyed:
			return ErrDestroyed
		case c.closed:
			return ErrClosed
		case c.buffer.full():
			return ctx.Err()
		}
	}

	c.buffer.push(value)
	c.recvCond.Signal()

	return nil
}

// handoff parks an unbuffered send until a receiver takes the value.
func (c *Channel[T]) handoff(ctx context.Context, value T) error {
	p := &parkedSend[T]{value: value}
	c.sendq = append(c.sendq, p)
	c.recvCond.Signal()

	c.pendingSenders++
	defer c.leave(&c.pendingSenders)

	for !p.taken && !c.closed && !c.destroyed && ctx.Err() == nil {
		c.sendCond.Wait()
	}

	if p.taken {
		return nil
	}

	c.unpark(p)

	switch {
	case c.destroyed:
		return ErrDestroyed
	case c.closed:
		return ErrClosed
	default:
		return ctx.Err()
	}
}

func (c *Channel[T]) receive(ctx context.Context) (T, error) {
	var zero T

	if stop := c.watch(ctx); stop != nil {
		defer stop()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return zero, ErrDestroyed
	}

	if !c.ready() {
		if c.closed {
			return zero, ErrClosed
		}

		c.pendingReceivers++
		defer c.leave(&c.pendingReceivers)

		for !c.ready() && !c.closed && !c.destroyed && ctx.Err() == nil {
			c.recvCond.Wait()
		}

		switch {
		case c.destroyed:
			return zero, ErrDestroyed
		case c.ready():
		case c.closed:
			return zero, ErrClosed
		default:
			return zero, ctx.Err()
		}
	}

	return c.take(), nil
}

// ready reports whether a receiver can make progress. Parked sends of a
// closed channel are about to fail and are not taken.
func (c *Channel[T]) ready() bool {
	return c.buffer.len() > 0 || (!c.closed && len(c.sendq) > 0)
}

func (c *Channel[T]) take() T {
	if c.buffer.len() > 0 {
		v := c.buffer.pop()
		c.sendCond.Signal()

		return v
	}

	p := c.sendq[0]
	c.sendq[0] = nil
	c.sendq = c.sendq[1:]

	p.taken = true
	// parked senders each wait for their own record
	c.sendCond.Broadcast()

	return p.value
}

func (c *Channel[T]) unpark(p *parkedSend[T]) {
	for i, q := range c.sendq {
		if q == p {
			c.sendq = append(c.sendq[:i], c.sendq[i+1:]...)
			return
		}
	}
}

// leave must run with c.mu held.
func (c *Channel[T]) leave(pending *int) {
	*pending--

	if c.destroyed && c.pendingSenders == 0 && c.pendingReceivers == 0 {
		c.drainCond.Broadcast()
	}
}

// watch wakes all waiters once ctx is done so they can observe ctx.Err().
func (c *Channel[T]) watch(ctx context.Context) func() bool {
	if ctx.Done() == nil {
		return nil
	}

	return context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.sendCond.Broadcast()
		c.recvCond.Broadcast()
		c.mu.Unlock()
	})
}
