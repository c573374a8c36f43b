package emucore

// Emulator is the contract every core must satisfy. A core performs no
// internal locking: the host guarantees that exactly one goroutine calls
// into an Emulator at any time. RunFrame must be deterministic given the
// same prior state and input sequence, otherwise save-state round trips
// are meaningless.
type Emulator interface {
	// RunFrame advances the core by exactly one displayable frame.
	RunFrame()

	// Reset reinitializes machine state in place, as if the console's
	// reset line had been pulled. The loaded ROM is unaffected.
	Reset()

	// Framebuffer returns the most recently rendered frame as RGBA bytes.
	// The returned slice is owned by the core and only valid until the
	// next RunFrame call.
	Framebuffer() []byte

	// FramebufferStride returns bytes per framebuffer row.
	FramebufferStride() int

	// ActiveHeight returns the active display height in pixels. Cores
	// with variable vertical resolution may return less than the maximum
	// declared in SystemInfo.
	ActiveHeight() int

	// AudioSamples returns the interleaved stereo 16-bit PCM produced by
	// the last RunFrame. The slice is only valid until the next RunFrame.
	AudioSamples() []int16

	// SetInput sets the button bitmask for a player. Bit positions are
	// the Button* constants.
	SetInput(player int, buttons uint32)

	// Timing returns the frame rate and scanline count for the core's
	// current region.
	Timing() Timing

	// Close releases all core resources. No method may be called after.
	Close()
}

// SaveStater is implemented by cores that can capture and restore their
// complete machine state. Serialize must only run at a frame boundary;
// the host enforces this.
type SaveStater interface {
	// Serialize captures the complete machine state as an opaque blob.
	Serialize() ([]byte, error)

	// Deserialize restores machine state from a blob produced by
	// Serialize on a core of the same name and version. On error the
	// core's state is unspecified; the host snapshots before calling.
	Deserialize(data []byte) error
}

// TouchScreen is implemented by dual-screen cores that accept stylus
// input. Coordinates are in the bottom screen's own pixel space.
type TouchScreen interface {
	SetTouch(x, y uint16)
	EndTouch()
}

// BatterySaver is implemented by cores whose cartridges carry
// battery-backed RAM that should persist across sessions.
type BatterySaver interface {
	// HasSRAM reports whether the loaded ROM uses battery-backed save.
	HasSRAM() bool

	// SRAM returns a copy of the current save RAM contents.
	SRAM() []byte

	// SetSRAM loads save RAM contents into the core.
	SetSRAM(data []byte)
}
