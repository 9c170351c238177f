package channel

// ring is a fixed-size FIFO. A zero-size ring is always full and empty.
type ring[T any] struct {
	items []T
	head  int
	size  int
}

func newRing[T any](capacity int) ring[T] {
	return ring[T]{items: make([]T, capacity)}
}

func (r *ring[T]) len() int { return r.size }

func (r *ring[T]) full() bool { return r.size == len(r.items) }

func (r *ring[T]) push(v T) {
	if r.full() {
		panic("channel: push on full ring")
	}

	r.items[(r.head+r.size)%len(r.items)] = v
	r.size++
}

func (r *ring[T]) pop() T {
	if r.size == 0 {
		panic("channel: pop on empty ring")
	}

	var zero T

	v := r.items[r.head]
	r.items[r.head] = zero
	r.head = (r.head + 1) % len(r.items)
	r.size--

	return v
}

// reset drops every pending value so the GC can reclaim them.
func (r *ring[T]) reset() {
	clear(r.items)
	r.head = 0
	r.size = 0
}
