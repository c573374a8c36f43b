package host

import "sync"

// FrameBuffer is the pixel exchange surface between the emulation loop
// and the presentation consumer. It holds two equally sized surfaces: a
// write surface that only the loop touches, and a published surface that
// consumers copy from. Publish completes a frame privately and then
// swaps the two pointers under a short lock, so a consumer can never
// observe a partially written frame. Consumers may copy the same
// published frame any number of times; the sequence number tells them
// whether anything new arrived.
type FrameBuffer struct {
	mu        sync.Mutex
	write     []byte
	published []byte
	stride    int
	height    int
	seq       uint64
}

// NewFrameBuffer allocates both surfaces for the given screen size
// (4 bytes per pixel).
func NewFrameBuffer(width, maxHeight int) *FrameBuffer {
	size := width * maxHeight * 4
	return &FrameBuffer{
		write:     make([]byte, size),
		published: make([]byte, size),
	}
}

// Publish copies one completed frame into the write surface and swaps
// it in as the latest published frame. Called by the emulation loop
// only. The copy happens outside the lock; only the pointer swap and
// metadata update are guarded.
func (fb *FrameBuffer) Publish(pixels []byte, stride, height int) {
	n := stride * height
	if n > len(fb.write) {
		n = len(fb.write)
	}
	if n > len(pixels) {
		n = len(pixels)
	}
	copy(fb.write[:n], pixels[:n])

	fb.mu.Lock()
	fb.write, fb.published = fb.published, fb.write
	fb.stride = stride
	fb.height = height
	fb.seq++
	fb.mu.Unlock()
}

// CopyLatest copies the latest published frame into dst and returns its
// metadata. The returned seq increments once per published frame, so a
// consumer that remembers the last value can detect frame reuse.
func (fb *FrameBuffer) CopyLatest(dst []byte) (stride, height int, seq uint64) {
	fb.mu.Lock()
	n := fb.stride * fb.height
	if n > len(fb.published) {
		n = len(fb.published)
	}
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst[:n], fb.published[:n])
	stride = fb.stride
	height = fb.height
	seq = fb.seq
	fb.mu.Unlock()
	return
}

// Seq returns the sequence number of the latest published frame.
func (fb *FrameBuffer) Seq() uint64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.seq
}
