// Package history holds the rolling window of samples drawn by the plot.
//
// A Buffer keeps at most N (time, value) pairs. Appending beyond capacity
// silently evicts the oldest pair. The buffer is owned by a single frame
// driver and is not safe for concurrent use.
package history

// Buffer is a fixed-capacity ring of (time, value) pairs.
type Buffer struct {
	times  []float64
	values []float64
	head   int // index of the oldest pair
	n      int // number of pairs held
}

// New returns an empty buffer holding at most capacity pairs.
// A capacity below 1 is treated as 1.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		times:  make([]float64, capacity),
		values: make([]float64, capacity),
	}
}

// Cap returns the buffer's capacity.
func (b *Buffer) Cap() int { return len(b.times) }

// Len returns the number of pairs currently held.
func (b *Buffer) Len() int { return b.n }

// Append adds a pair at the tail, evicting the oldest pair when full.
func (b *Buffer) Append(t, v float64) {
	size := len(b.times)
	if b.n < size {
		i := (b.head + b.n) % size
		b.times[i], b.values[i] = t, v
		b.n++
		return
	}
	b.times[b.head], b.values[b.head] = t, v
	b.head = (b.head + 1) % size
}

// Contents returns copies of the time and value sequences, oldest first.
// Both slices always have the same length.
func (b *Buffer) Contents() (times, values []float64) {
	times = make([]float64, b.n)
	values = make([]float64, b.n)
	size := len(b.times)
	for i := 0; i < b.n; i++ {
		j := (b.head + i) % size
		times[i] = b.times[j]
		values[i] = b.values[j]
	}
	return times, values
}

// Last returns the most recently appended pair.
func (b *Buffer) Last() (t, v float64, ok bool) {
	if b.n == 0 {
		return 0, 0, false
	}
	i := (b.head + b.n - 1) % len(b.times)
	return b.times[i], b.values[i], true
}

// MinMax returns the smallest and largest value held, or zeros when empty.
func (b *Buffer) MinMax() (lo, hi float64) {
	if b.n == 0 {
		return 0, 0
	}
	size := len(b.values)
	lo, hi = b.values[b.head], b.values[b.head]
	for i := 1; i < b.n; i++ {
		v := b.values[(b.head+i)%size]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
