// Package coretest provides a deterministic reference core. Every
// observable output (pixels, audio, serialized state) is a pure function
// of the ROM seed and the input sequence, which makes it suitable for
// exercising the host's exchange buffers, lifecycle and save-state
// round-trip guarantees. It also backs the demo mode of cmd/emuhost.
package coretest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	emucore "github.com/StephenDev0/emuhost/api"
)

const (
	screenWidth   = 256
	singleHeight  = 240
	dualHeight    = 384
	sampleRate    = 48000
	sramSize      = 8 * 1024
	stateMagic    = "TC"
	stateVersion  = 1
	coreName      = "testpat"
	coreVersionID = "1.0"
)

// serializedSize is the fixed size of a serialized state without SRAM:
// magic, version, rng, frame, two button masks, touch x/y/flag and the
// SRAM length field.
const serializedSize = 2 + 1 + 8 + 8 + 8 + 2 + 2 + 1 + 4

var errClosed = errors.New("coretest: core is closed")

// Core is a fake console. Each RunFrame evolves an xorshift register
// from the current inputs and stamps the whole framebuffer with one
// RGBA value derived from it, so torn frames and lost inputs are
// directly observable. No locking: the host guarantees exclusivity.
type Core struct {
	width  int
	height int
	dual   bool
	region emucore.Region
	seed   uint64

	rng     uint64
	frame   uint64
	buttons [2]uint32
	touchX  uint16
	touchY  uint16
	touchOn bool

	sram []byte // nil without battery

	fb     []byte
	audio  []int16
	closed bool
}

func xorshift64(x uint64) uint64 {
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	return x
}

func newCore(seed uint64, region emucore.Region, dual, battery bool) *Core {
	height := singleHeight
	if dual {
		height = dualHeight
	}
	fps := 60
	if region == emucore.RegionPAL {
		fps = 50
	}
	c := &Core{
		width:  screenWidth,
		height: height,
		dual:   dual,
		region: region,
		seed:   seed,
		rng:    seed,
		fb:     make([]byte, screenWidth*height*4),
		audio:  make([]int16, sampleRate/fps*2),
	}
	if battery {
		c.sram = make([]byte, sramSize)
	}
	return c
}

// RunFrame advances the machine by one frame.
func (c *Core) RunFrame() {
	if c.closed {
		panic(errClosed)
	}

	mix := uint64(c.buttons[0]) | uint64(c.buttons[1])<<32
	mix ^= uint64(c.touchX)<<8 | uint64(c.touchY)<<24
	if c.touchOn {
		mix ^= 1 << 63
	}
	c.rng = xorshift64(c.rng ^ (mix + 0x9e3779b97f4a7c15))
	c.frame++

	// Uniform stamp: a consumer that ever sees two different pixel
	// values in one frame copy caught a torn buffer.
	r, g, b := byte(c.rng), byte(c.rng>>8), byte(c.rng>>16)
	for i := 0; i < len(c.fb); i += 4 {
		c.fb[i] = r
		c.fb[i+1] = g
		c.fb[i+2] = b
		c.fb[i+3] = 0xFF
	}

	s := c.rng
	for i := range c.audio {
		s = xorshift64(s)
		c.audio[i] = int16(s)
	}

	// Battery cores count every frame ever run in SRAM, so persistence
	// across sessions is observable as a monotonic counter.
	if c.sram != nil {
		n := binary.LittleEndian.Uint64(c.sram)
		binary.LittleEndian.PutUint64(c.sram, n+1)
	}
}

// Reset rewinds the machine to its power-on state. SRAM survives.
func (c *Core) Reset() {
	c.rng = c.seed
	c.frame = 0
	for i := range c.fb {
		c.fb[i] = 0
	}
	for i := range c.audio {
		c.audio[i] = 0
	}
}

// Framebuffer returns the last rendered frame.
func (c *Core) Framebuffer() []byte { return c.fb }

// FramebufferStride returns bytes per row.
func (c *Core) FramebufferStride() int { return c.width * 4 }

// ActiveHeight returns the display height in pixels.
func (c *Core) ActiveHeight() int { return c.height }

// AudioSamples returns the last frame's stereo samples.
func (c *Core) AudioSamples() []int16 { return c.audio }

// SetInput sets a player's button bitmask.
func (c *Core) SetInput(player int, buttons uint32) {
	if player >= 0 && player < len(c.buttons) {
		c.buttons[player] = buttons
	}
}

// Timing returns the frame rate for the configured region.
func (c *Core) Timing() emucore.Timing {
	if c.region == emucore.RegionPAL {
		return emucore.Timing{FPS: 50, Scanlines: 312}
	}
	return emucore.Timing{FPS: 60, Scanlines: 262}
}

// Close marks the core destroyed. Stepping a closed core panics, which
// surfaces use-after-teardown bugs in the host.
func (c *Core) Close() { c.closed = true }

// Frame returns the number of frames run since power-on or reset.
func (c *Core) Frame() uint64 { return c.frame }

// Serialize captures the complete machine state.
func (c *Core) Serialize() ([]byte, error) {
	if c.closed {
		return nil, errClosed
	}
	var b bytes.Buffer
	b.Grow(serializedSize + len(c.sram))
	b.WriteString(stateMagic)
	b.WriteByte(stateVersion)
	binary.Write(&b, binary.LittleEndian, c.rng)
	binary.Write(&b, binary.LittleEndian, c.frame)
	binary.Write(&b, binary.LittleEndian, c.buttons)
	binary.Write(&b, binary.LittleEndian, c.touchX)
	binary.Write(&b, binary.LittleEndian, c.touchY)
	if c.touchOn {
		b.WriteByte(1)
	} else {
		b.WriteByte(0)
	}
	binary.Write(&b, binary.LittleEndian, uint32(len(c.sram)))
	b.Write(c.sram)
	return b.Bytes(), nil
}

// Deserialize restores a state captured by Serialize.
func (c *Core) Deserialize(data []byte) error {
	if c.closed {
		return errClosed
	}
	if len(data) < serializedSize {
		return fmt.Errorf("coretest: truncated state (%d bytes)", len(data))
	}
	if string(data[:2]) != stateMagic {
		return errors.New("coretest: bad state magic")
	}
	if data[2] != stateVersion {
		return fmt.Errorf("coretest: state version %d, expected %d", data[2], stateVersion)
	}

	r := bytes.NewReader(data[3:])
	binary.Read(r, binary.LittleEndian, &c.rng)
	binary.Read(r, binary.LittleEndian, &c.frame)
	binary.Read(r, binary.LittleEndian, &c.buttons)
	binary.Read(r, binary.LittleEndian, &c.touchX)
	binary.Read(r, binary.LittleEndian, &c.touchY)
	on, _ := r.ReadByte()
	c.touchOn = on == 1

	var sramLen uint32
	if err := binary.Read(r, binary.LittleEndian, &sramLen); err != nil {
		return fmt.Errorf("coretest: truncated state: %w", err)
	}
	if int(sramLen) != len(c.sram) || r.Len() != int(sramLen) {
		return fmt.Errorf("coretest: state SRAM size %d does not match core", sramLen)
	}
	if sramLen > 0 {
		r.Read(c.sram)
	}
	return nil
}

// SetTouch records a stylus position in bottom-screen coordinates.
func (c *Core) SetTouch(x, y uint16) {
	if !c.dual {
		return
	}
	c.touchX, c.touchY = x, y
	c.touchOn = true
}

// EndTouch lifts the stylus.
func (c *Core) EndTouch() {
	c.touchX, c.touchY = 0, 0
	c.touchOn = false
}

// HasSRAM reports whether the core carries battery-backed save RAM.
func (c *Core) HasSRAM() bool { return c.sram != nil }

// SRAM returns a copy of the save RAM contents.
func (c *Core) SRAM() []byte {
	out := make([]byte, len(c.sram))
	copy(out, c.sram)
	return out
}

// SetSRAM loads save RAM contents.
func (c *Core) SetSRAM(data []byte) {
	if c.sram == nil {
		return
	}
	copy(c.sram, data)
}

// Factory creates test cores.
type Factory struct {
	dual    bool
	battery bool
}

// Option configures a Factory.
type Option func(*Factory)

// WithDualScreen makes the factory produce stacked two-screen cores
// that accept touch input.
func WithDualScreen() Option { return func(f *Factory) { f.dual = true } }

// WithBattery makes the factory produce cores with battery-backed SRAM.
func WithBattery() Option { return func(f *Factory) { f.battery = true } }

// NewFactory creates a factory for deterministic test cores.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SystemInfo returns the fake system's metadata.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	height := singleHeight
	if f.dual {
		height = dualHeight
	}
	stateSize := serializedSize
	if f.battery {
		stateSize += sramSize
	}
	return emucore.SystemInfo{
		Name:            "Test Pattern",
		Extensions:      []string{".tp"},
		ScreenWidth:     screenWidth,
		MaxScreenHeight: height,
		AspectRatio:     emucore.DisplayAspectRatio(screenWidth, height, 1.0),
		DualScreen:      f.dual,
		SampleRate:      sampleRate,
		Players:         2,
		CoreName:        coreName,
		CoreVersion:     coreVersionID,
		SerializeSize:   stateSize,
		Buttons: []emucore.Button{
			{Name: "A", ID: emucore.ButtonA, DefaultKey: "X"},
			{Name: "B", ID: emucore.ButtonB, DefaultKey: "Z"},
			{Name: "Start", ID: emucore.ButtonStart, DefaultKey: "Enter"},
			{Name: "Select", ID: emucore.ButtonSelect, DefaultKey: "Backspace"},
		},
	}
}

// CreateEmulator creates a core seeded from the ROM bytes. Empty ROMs
// are rejected, which models an unloadable image.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	if len(rom) == 0 {
		return nil, errors.New("coretest: empty ROM")
	}
	seed := uint64(crc32.ChecksumIEEE(rom)) + 1
	return newCore(seed, region, f.dual, f.battery), nil
}

// DetectRegion always reports NTSC.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emucore.RegionNTSC, true
}
