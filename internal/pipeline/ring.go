package pipeline

// ring is a fixed-capacity overwrite-on-full buffer. Values returns the
// contents oldest-first; callers treat the copy as their own.
type ring[T any] struct {
	buf  []T
	head int
	n    int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

// Append adds v, evicting the oldest value once full.
func (r *ring[T]) Append(v T) {
	r.buf[(r.head+r.n)%len(r.buf)] = v
	if r.n < len(r.buf) {
		r.n++
	} else {
		r.head = (r.head + 1) % len(r.buf)
	}
}

// Len reports how many values are held.
func (r *ring[T]) Len() int { return r.n }

// Values copies out the contents, oldest first.
func (r *ring[T]) Values() []T {
	out := make([]T, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Reset discards all values without reallocating.
func (r *ring[T]) Reset() {
	r.head = 0
	r.n = 0
}
