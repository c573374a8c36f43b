package host

import (
	"fmt"

	emucore "github.com/StephenDev0/emuhost/api"
)

// RewindBuffer stores serialized machine states in a ring so gameplay
// can be stepped backwards. States are captured every frameStep frames
// and popped in reverse order.
type RewindBuffer struct {
	buffer    [][]byte
	head      int // next write position
	count     int
	capacity  int
	frameStep int
	frameTick int
}

// NewRewindBuffer allocates a ring sized to hold bufferSizeMB worth of
// states of stateSize bytes each. Returns nil for unusable parameters.
func NewRewindBuffer(bufferSizeMB, frameStep, stateSize int) *RewindBuffer {
	if bufferSizeMB <= 0 || frameStep <= 0 || stateSize <= 0 {
		return nil
	}
	capacity := (bufferSizeMB * 1024 * 1024) / stateSize
	if capacity == 0 {
		return nil
	}
	return &RewindBuffer{
		buffer:    make([][]byte, capacity),
		capacity:  capacity,
		frameStep: frameStep,
	}
}

// Capture stores the current state, every frameStep-th call. Runs on
// the loop goroutine after a completed frame.
func (rb *RewindBuffer) Capture(saver emucore.SaveStater) error {
	rb.frameTick++
	if rb.frameTick < rb.frameStep {
		return nil
	}
	rb.frameTick = 0

	state, err := saver.Serialize()
	if err != nil {
		return fmt.Errorf("rewind capture: %w", err)
	}

	rb.buffer[rb.head] = state
	rb.head = (rb.head + 1) % rb.capacity
	if rb.count < rb.capacity {
		rb.count++
	}
	return nil
}

// Step pops count states and restores the machine to the last one. A
// RunFrame follows the restore so the framebuffer reflects the rewound
// state. Returns false when the ring is empty or count is not positive.
func (rb *RewindBuffer) Step(core emucore.Emulator, saver emucore.SaveStater, count int) bool {
	// A non-positive count would walk head forward past the stored
	// entries and corrupt the ring accounting.
	if count <= 0 || rb.count == 0 {
		return false
	}
	// Keep the oldest entry restorable: popping everything would wrap
	// idx back onto the newest slot.
	if count >= rb.count {
		count = rb.count - 1
	}

	rb.head = (rb.head - count + rb.capacity) % rb.capacity
	rb.count -= count

	idx := (rb.head - 1 + rb.capacity) % rb.capacity
	state := rb.buffer[idx]
	if state == nil {
		return false
	}
	if err := saver.Deserialize(state); err != nil {
		return false
	}
	core.RunFrame()
	return true
}

// Reset clears the ring. Called on reset and after a save-state load.
func (rb *RewindBuffer) Reset() {
	rb.head = 0
	rb.count = 0
	rb.frameTick = 0
	for i := range rb.buffer {
		rb.buffer[i] = nil
	}
}

// Count returns the number of stored states.
func (rb *RewindBuffer) Count() int { return rb.count }

// Capacity returns the maximum number of states the ring can hold.
func (rb *RewindBuffer) Capacity() int { return rb.capacity }
