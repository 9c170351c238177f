package holder

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/pqiaohaoq/gochan/channel"
)

var (
	ErrUninitialized = errors.New("holder has no channel")
	ErrTypeMismatch  = errors.New("value type does not match channel element type")
)

// erased is the element-type independent surface of a *channel.Channel[T].
type erased interface {
	send(v any) error
	receive() (any, error)
	close() error
	destroy()
	capacity() int
	isClosed() bool
	elemType() reflect.Type
}

type typed[T any] struct {
	ch *channel.Channel[T]
}

func (t typed[T]) send(v any) error {
	value, ok := v.(T)
	if !ok {
		return fmt.Errorf("%w: got %T, want %s", ErrTypeMismatch, v, t.elemType())
	}

	return t.ch.Send(value)
}

func (t typed[T]) receive() (any, error) {
	v, err := t.ch.Receive()
	if err != nil {
		return nil, err
	}

	return v, nil
}

func (t typed[T]) close() error           { return t.ch.Close() }
func (t typed[T]) destroy()               { t.ch.Destroy() }
func (t typed[T]) capacity() int          { return t.ch.Cap() }
func (t typed[T]) isClosed() bool         { return t.ch.IsClosed() }
func (t typed[T]) elemType() reflect.Type { return reflect.TypeFor[T]() }

// Holder keeps a channel whose element type is only known at runtime.
// The zero value is an empty holder.
type Holder struct {
	mu sync.RWMutex
	ch erased
}

func New[T any](capacity int, opts ...channel.Option) *Holder {
	h := &Holder{}
	Reset[T](h, capacity, opts...)

	return h
}

// Reset destroys the held channel, if any, and installs a new Channel[T].
func Reset[T any](h *Holder, capacity int, opts ...channel.Option) *channel.Channel[T] {
	ch := channel.New[T](capacity, opts...)

	h.mu.Lock()
	prev := h.ch
	h.ch = typed[T]{ch: ch}
	h.mu.Unlock()

	if prev != nil {
		prev.destroy()
	}

	return ch
}

// Typed returns the held channel if its element type is T.
func Typed[T any](h *Holder) (*channel.Channel[T], bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	t, ok := h.ch.(typed[T])
	if !ok {
		return nil, false
	}

	return t.ch, true
}

func (h *Holder) get() (erased, error) {
	h.mu.RLock()
	ch := h.ch
	h.mu.RUnlock()

	if ch == nil {
		return nil, ErrUninitialized
	}

	return ch, nil
}

func (h *Holder) IsInitialized() bool {
	_, err := h.get()
	return err == nil
}

// Type returns the element type, or nil for an empty holder.
func (h *Holder) Type() reflect.Type {
	ch, err := h.get()
	if err != nil {
		return nil
	}

	return ch.elemType()
}

func (h *Holder) Cap() int {
	ch, err := h.get()
	if err != nil {
		return 0
	}

	return ch.capacity()
}

func (h *Holder) IsClosed() bool {
	ch, err := h.get()
	if err != nil {
		return false
	}

	return ch.isClosed()
}

func (h *Holder) Send(v any) error {
	ch, err := h.get()
	if err != nil {
		return err
	}

	return ch.send(v)
}

func (h *Holder) Receive() (any, error) {
	ch, err := h.get()
	if err != nil {
		return nil, err
	}

	return ch.receive()
}

func (h *Holder) Close() error {
	ch, err := h.get()
	if err != nil {
		return err
	}

	return ch.close()
}

// Destroy tears down the held channel. The holder keeps it, so later calls
// fail with channel.ErrDestroyed until Reset installs a new one.
func (h *Holder) Destroy() {
	ch, err := h.get()
	if err != nil {
		return
	}

	ch.destroy()
}
