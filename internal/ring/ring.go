// File: internal/ring/ring.go
// Package ring implements the fixed-capacity receive FIFO for one
// SPS channel.
// License: Apache-2.0
//
// Buffer is a bounded circular byte buffer with edge-triggered
// readiness: Push reports the empty-to-non-empty transition so the
// caller can raise exactly one data-available notification per burst.
// Bytes that do not fit are dropped; the producer is never blocked.

package ring

import "sync"

// Buffer is a fixed-capacity FIFO of bytes. It carries its own lock so
// the single-producer/single-consumer pair never needs an outer one.
type Buffer struct {
	mu   sync.Mutex
	buf  []byte
	head int // next read position
	size int // occupied bytes
}

// New allocates a buffer of the given capacity. Capacity is fixed for
// the buffer's lifetime; values below 1 are raised to 1.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{buf: make([]byte, capacity)}
}

// Push appends as many bytes of p as fit, in order. It returns whether
// the buffer went from empty to non-empty (the ready edge) and how
// many bytes were dropped for lack of space.
func (b *Buffer) Push(p []byte) (ready bool, dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasEmpty := b.size == 0
	n := len(b.buf) - b.size
	if n > len(p) {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		b.buf[(b.head+b.size+i)%len(b.buf)] = p[i]
	}
	b.size += n

	return wasEmpty && n > 0, len(p) - n
}

// Pop moves up to len(p) buffered bytes into p in original write order
// and returns how many were moved. Zero means the buffer was empty;
// that is not an error.
func (b *Buffer) Pop(p []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.size
	if n > len(p) {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		p[i] = b.buf[(b.head+i)%len(b.buf)]
	}
	b.head = (b.head + n) % len(b.buf)
	b.size -= n

	return n
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the fixed buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.buf)
}
