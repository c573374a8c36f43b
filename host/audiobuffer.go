package host

import (
	"io"
	"sync"
)

// AudioRingBuffer is a bounded FIFO of raw PCM bytes with one producer
// (the emulation loop) and one consumer. Write never blocks: when the
// buffer is full the oldest bytes are dropped to make room, so a stalled
// consumer can slow playback down but never the loop. Read blocks until
// data arrives or Close is called, which lets the buffer back a
// pull-model audio player directly. TryRead never blocks.
type AudioRingBuffer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buf     []byte
	readPos int
	count   int
	closed  bool
}

// NewAudioRingBuffer creates a ring buffer holding up to capacity bytes.
func NewAudioRingBuffer(capacity int) *AudioRingBuffer {
	rb := &AudioRingBuffer{buf: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write appends p to the buffer, dropping the oldest bytes on overflow.
// Writes to a closed buffer are ignored.
func (rb *AudioRingBuffer) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed || len(p) == 0 {
		return
	}

	capacity := len(rb.buf)
	if len(p) > capacity {
		// Larger than the whole buffer: keep only the newest bytes.
		p = p[len(p)-capacity:]
	}

	if over := rb.count + len(p) - capacity; over > 0 {
		rb.readPos = (rb.readPos + over) % capacity
		rb.count -= over
	}

	writePos := (rb.readPos + rb.count) % capacity
	n := copy(rb.buf[writePos:], p)
	if n < len(p) {
		copy(rb.buf, p[n:])
	}
	rb.count += len(p)

	rb.cond.Broadcast()
}

// Read fills p with buffered bytes, blocking while the buffer is empty.
// After Close, remaining data is still readable; once drained, Read
// returns io.EOF.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 && !rb.closed {
		rb.cond.Wait()
	}
	if rb.count == 0 && rb.closed {
		return 0, io.EOF
	}
	return rb.read(p), nil
}

// TryRead fills p with available bytes without blocking. It returns 0
// when the buffer is empty.
func (rb *AudioRingBuffer) TryRead(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.read(p)
}

// read copies up to len(p) bytes out. Caller holds the lock.
func (rb *AudioRingBuffer) read(p []byte) int {
	n := len(p)
	if n > rb.count {
		n = rb.count
	}
	if n == 0 {
		return 0
	}

	first := copy(p[:n], rb.buf[rb.readPos:])
	if first < n {
		copy(p[first:n], rb.buf)
	}
	rb.readPos = (rb.readPos + n) % len(rb.buf)
	rb.count -= n
	return n
}

// Buffered returns the number of bytes currently queued.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Clear discards all buffered bytes.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	rb.readPos = 0
	rb.count = 0
	rb.mu.Unlock()
}

// Close marks the buffer closed and unblocks any waiting reader.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.cond.Broadcast()
	rb.mu.Unlock()
}
