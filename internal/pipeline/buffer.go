package pipeline

import (
	"sync"
)

// RingBuffer is a growable FIFO used to hold samples between pipeline
// stages and ahead of the pipeline input. Capacity is kept at a power of two
// so positions wrap with a mask instead of a modulo.
type RingBuffer[T any] struct {
	data     []T
	mask     int
	size     int
	readPos  int
	writePos int
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer. Capacity is rounded up to the next
// power of two.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	c := minBufferCapacity
	for c < capacity {
		c <<= 1
	}
	return &RingBuffer[T]{
		data: make([]T, c),
		mask: c - 1,
	}
}

// Write appends samples, growing the buffer if needed.
func (b *RingBuffer[T]) Write(samples ...T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size+len(samples) > len(b.data) {
		b.grow(b.size + len(samples))
	}
	for _, s := range samples {
		b.data[b.writePos] = s
		b.writePos = (b.writePos + 1) & b.mask
		b.size++
	}
}

// Pop removes and returns the oldest sample.
func (b *RingBuffer[T]) Pop() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	if b.size == 0 {
		return zero, false
	}
	v := b.data[b.readPos]
	b.data[b.readPos] = zero
	b.readPos = (b.readPos + 1) & b.mask
	b.size--
	return v, true
}

// Front returns the oldest sample without removing it.
func (b *RingBuffer[T]) Front() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		var zero T
		return zero, false
	}
	return b.data[b.readPos], true
}

// Read removes and returns up to n samples.
func (b *RingBuffer[T]) Read(n int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	n = min(n, b.size)
	if n <= 0 {
		return []T{}
	}

	result := make([]T, n)
	for i := range result {
		result[i] = b.data[b.readPos]
		b.readPos = (b.readPos + 1) & b.mask
	}
	b.size -= n
	return result
}

// Available returns the number of buffered samples.
func (b *RingBuffer[T]) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Capacity returns the current capacity.
func (b *RingBuffer[T]) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Clear drops all buffered samples.
func (b *RingBuffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.data)
	b.size = 0
	b.readPos = 0
	b.writePos = 0
}

// grow doubles the capacity until minCapacity fits, preserving order.
func (b *RingBuffer[T]) grow(minCapacity int) {
	newCap := len(b.data)
	for newCap < minCapacity {
		newCap *= bufferGrowthFactor
	}

	newData := make([]T, newCap)
	for i := range b.size {
		newData[i] = b.data[(b.readPos+i)&b.mask]
	}

	b.data = newData
	b.mask = newCap - 1
	b.readPos = 0
	b.writePos = b.size & b.mask
}
