package host

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	emucore "github.com/StephenDev0/emuhost/api"
	"github.com/StephenDev0/emuhost/romloader"
	"github.com/StephenDev0/emuhost/savestate"
)

const (
	defaultSlotCount  = 10
	defaultSampleRate = 48000
	maxSpeed          = 4
)

// Options configures a session at start.
type Options struct {
	// Region selects the video region. Ignored when AutoRegion is set
	// and the factory can detect one.
	Region     emucore.Region
	AutoRegion bool

	// SaveDir is where slot, resume and SRAM files live. Empty disables
	// all persistence; buffer-oriented save/load still works.
	SaveDir string

	// SlotCount is the number of numbered save slots (default 10).
	SlotCount int

	// Rewind keeps a ring of recent states the session can step back
	// through. Requires a core that implements SaveStater and declares
	// its serialize size.
	RewindEnabled   bool
	RewindBufferMB  int
	RewindFrameStep int

	// AutoSaveEvery periodically serializes the machine state and writes
	// it to the resume file. Zero disables.
	AutoSaveEvery time.Duration

	// NoPacing lets the loop free-run without frame timing. Used by
	// tests and frame-stepping tools.
	NoPacing bool
}

// Session is one end-to-end run of a loaded ROM. It owns exactly one
// core instance and the emulation goroutine that steps it; nothing else
// ever calls into the core. All cross-goroutine traffic goes through the
// frame buffer, the audio ring, the input table and the control channel.
type Session struct {
	info    emucore.SystemInfo
	core    emucore.Emulator
	saver   emucore.SaveStater   // nil if the core has no save states
	touch   emucore.TouchScreen  // nil for single-screen cores
	battery emucore.BatterySaver // nil without battery-backed SRAM

	frames *FrameBuffer
	audio  *AudioRingBuffer
	input  *InputState
	saves  *savestate.Manager // nil without a save directory
	rewind *RewindBuffer      // nil when rewind is disabled

	cmds chan command
	done chan struct{} // closed after the loop exits and the core is destroyed

	speed atomic.Int32
	opts  Options

	mu    sync.Mutex
	state State
	err   error

	autoSaveWG   sync.WaitGroup
	autoSaveBusy atomic.Bool

	// Loop-owned scratch for int16-to-byte audio conversion.
	audioScratch []byte
}

// StartSession loads a ROM from disk (raw or archived) and starts the
// emulation loop. On failure no session exists and the error wraps
// ErrRomLoad.
func StartSession(factory emucore.CoreFactory, romPath string, opts Options) (*Session, error) {
	rom, _, err := romloader.Load(romPath, factory.SystemInfo().Extensions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRomLoad, err)
	}
	return StartSessionFromBytes(factory, rom, opts)
}

// StartSessionFromBytes starts the emulation loop for already-loaded ROM
// bytes. The session is Running when this returns.
func StartSessionFromBytes(factory emucore.CoreFactory, rom []byte, opts Options) (*Session, error) {
	info := factory.SystemInfo()

	region := opts.Region
	if opts.AutoRegion {
		if r, ok := factory.DetectRegion(rom); ok {
			region = r
		}
	}

	core, err := factory.CreateEmulator(rom, region)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRomLoad, err)
	}

	if opts.SlotCount <= 0 {
		opts.SlotCount = defaultSlotCount
	}

	sampleRate := info.SampleRate
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}

	s := &Session{
		info: info,
		core: core,
		// A quarter second of stereo 16-bit PCM, rounded to whole
		// sample frames so reads never split a sample.
		audio:  NewAudioRingBuffer(sampleRate &^ 3),
		frames: NewFrameBuffer(info.ScreenWidth, info.MaxScreenHeight),
		input:  &InputState{},
		cmds:   make(chan command, 8),
		done:   make(chan struct{}),
		opts:   opts,
	}
	s.saver, _ = core.(emucore.SaveStater)
	s.touch, _ = core.(emucore.TouchScreen)
	s.battery, _ = core.(emucore.BatterySaver)
	s.speed.Store(1)

	if opts.SaveDir != "" {
		s.saves = savestate.NewManager(opts.SaveDir, opts.SlotCount, savestate.Meta{
			CoreName:    info.CoreName,
			CoreVersion: info.CoreVersion,
		})
	}

	if opts.RewindEnabled && s.saver != nil && info.SerializeSize > 0 {
		mb := opts.RewindBufferMB
		if mb <= 0 {
			mb = 64
		}
		step := opts.RewindFrameStep
		if step <= 0 {
			step = 2
		}
		s.rewind = NewRewindBuffer(mb, step, info.SerializeSize)
	}

	// Battery saves persist across sessions; missing file is fine.
	if s.battery != nil && s.saves != nil {
		if data, err := s.saves.ReadSRAM(); err == nil {
			s.battery.SetSRAM(data)
		}
	}

	s.setState(Running)
	go s.run()
	return s, nil
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error a session terminated with, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// Info returns the system metadata of the loaded core.
func (s *Session) Info() emucore.SystemInfo { return s.info }

// DualScreen reports whether the loaded ROM runs on the stacked
// two-screen hardware class, letting the caller adapt its input and
// layout strategy.
func (s *Session) DualScreen() bool { return s.info.DualScreen }

// Saves exposes the slot manager for slot cycling and inspection. Nil
// when the session was started without a save directory.
func (s *Session) Saves() *savestate.Manager { return s.saves }

// SetPaused pauses or resumes the emulation loop. While paused the core
// and all buffers stay valid; input writes are still accepted but have
// no effect until resumed.
func (s *Session) SetPaused(paused bool) error {
	if paused {
		return s.submit(cmdPause, nil)
	}
	return s.submit(cmdResume, nil)
}

// Reset reinitializes machine state in place. The loop and its buffers
// survive; queued audio is dropped.
func (s *Session) Reset() error {
	return s.submit(cmdReset, nil)
}

// Stop shuts the session down. It returns once the loop has exited and
// the core is destroyed; pending frames and audio are discarded. Stop is
// idempotent.
func (s *Session) Stop() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	// Any error here means the loop already exited on its own.
	_ = s.submit(cmdStop, nil)
	<-s.done
	return nil
}

// PollFrame copies the latest published frame into dst and returns its
// stride, active height and sequence number. Always immediately
// satisfiable; the same frame may be returned more than once.
func (s *Session) PollFrame(dst []byte) (stride, height int, seq uint64) {
	return s.frames.CopyLatest(dst)
}

// FrameSeq returns the sequence number of the latest published frame
// without copying it.
func (s *Session) FrameSeq() uint64 { return s.frames.Seq() }

// DrainAudio moves up to len(dst) buffered samples into dst and returns
// how many were written. Never blocks; returns 0 when nothing is queued.
func (s *Session) DrainAudio(dst []int16) int {
	if len(dst) == 0 {
		return 0
	}
	buf := make([]byte, len(dst)*2)
	n := s.audio.TryRead(buf)
	for i := 0; i < n/2; i++ {
		dst[i] = int16(buf[2*i]) | int16(buf[2*i+1])<<8
	}
	return n / 2
}

// AudioReader returns a blocking reader over the session's PCM stream
// (interleaved stereo 16-bit little-endian), suitable for handing to a
// pull-model audio player. It reaches EOF once the session stops.
func (s *Session) AudioReader() io.Reader { return s.audio }

// SetButton sets one button for one player. Fire-and-forget; observed by
// the loop on its next step.
func (s *Session) SetButton(player, button int, pressed bool) {
	s.input.SetButton(player, button, pressed)
}

// SetButtons replaces a player's whole button mask.
func (s *Session) SetButtons(player int, buttons uint32) {
	s.input.SetButtons(player, buttons)
}

// SetTouch records a stylus event in the emulator's logical coordinate
// space (the caller maps view coordinates beforehand). Ignored by
// single-screen cores.
func (s *Session) SetTouch(x, y int, pressed bool) {
	if !s.info.DualScreen {
		return
	}
	s.input.SetTouch(x, y, pressed)
}

// SetSpeed sets the fast-forward multiplier (1 = normal). Values are
// clamped to [1, 4]. Audio for the extra frames is dropped.
func (s *Session) SetSpeed(multiplier int) {
	if multiplier < 1 {
		multiplier = 1
	} else if multiplier > maxSpeed {
		multiplier = maxSpeed
	}
	s.speed.Store(int32(multiplier))
}

// Speed returns the current fast-forward multiplier.
func (s *Session) Speed() int { return int(s.speed.Load()) }

func (s *Session) meta() savestate.Meta {
	return savestate.Meta{CoreName: s.info.CoreName, CoreVersion: s.info.CoreVersion}
}

// SaveStateBuffer captures the full machine state at the next frame
// boundary and returns it as a versioned blob for callers managing their
// own storage.
func (s *Session) SaveStateBuffer() ([]byte, error) {
	if s.saver == nil {
		return nil, ErrNoSaveSupport
	}
	var blob []byte
	err := s.submit(cmdApply, func() error {
		state, err := s.saver.Serialize()
		if err != nil {
			return fmt.Errorf("serialize: %w", err)
		}
		blob = savestate.Encode(s.meta(), state)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// LoadStateBuffer restores machine state from a blob produced by
// SaveStateBuffer. The blob is fully validated before any byte reaches
// the core, and a failed core-level load is rolled back, so the running
// state is unchanged on error.
func (s *Session) LoadStateBuffer(blob []byte) error {
	if s.saver == nil {
		return ErrNoSaveSupport
	}
	payload, err := savestate.Decode(s.meta(), blob)
	if err != nil {
		return err
	}
	return s.applyState(payload)
}

// SaveState serializes the machine state at the next frame boundary and
// writes it to the numbered slot. The disk write happens off the loop,
// and replaces the slot file atomically.
func (s *Session) SaveState(slot int) error {
	if s.saver == nil {
		return ErrNoSaveSupport
	}
	if s.saves == nil {
		return ErrNoSaveDir
	}
	var state []byte
	if err := s.submit(cmdApply, func() error {
		var err error
		state, err = s.saver.Serialize()
		return err
	}); err != nil {
		return err
	}
	return s.saves.WriteSlot(slot, state)
}

// LoadState restores the machine state stored in the numbered slot.
// Load is all-or-nothing: a corrupt, truncated or version-mismatched
// slot leaves the running state untouched.
func (s *Session) LoadState(slot int) error {
	if s.saver == nil {
		return ErrNoSaveSupport
	}
	if s.saves == nil {
		return ErrNoSaveDir
	}
	payload, err := s.saves.ReadSlot(slot)
	if err != nil {
		return err
	}
	return s.applyState(payload)
}

// SaveResume writes the current machine state to the resume file.
func (s *Session) SaveResume() error {
	if s.saver == nil {
		return ErrNoSaveSupport
	}
	if s.saves == nil {
		return ErrNoSaveDir
	}
	var state []byte
	if err := s.submit(cmdApply, func() error {
		var err error
		state, err = s.saver.Serialize()
		return err
	}); err != nil {
		return err
	}
	return s.saves.WriteResume(state)
}

// LoadResume restores the machine state from the resume file.
func (s *Session) LoadResume() error {
	if s.saver == nil {
		return ErrNoSaveSupport
	}
	if s.saves == nil {
		return ErrNoSaveDir
	}
	payload, err := s.saves.ReadResume()
	if err != nil {
		return err
	}
	return s.applyState(payload)
}

// Rewind steps the session back through its rewind ring. A no-op when
// the ring is empty.
func (s *Session) Rewind(steps int) error {
	if s.rewind == nil {
		return ErrInvalidSessionState
	}
	return s.submit(cmdApply, func() error {
		if s.rewind.Step(s.core, s.saver, steps) {
			s.audio.Clear()
			s.frames.Publish(s.core.Framebuffer(), s.core.FramebufferStride(), s.core.ActiveHeight())
		}
		return nil
	})
}

// applyState restores serialized core state at a frame boundary,
// snapshotting first so a failed load can be rolled back.
func (s *Session) applyState(payload []byte) error {
	return s.submit(cmdApply, func() error {
		snapshot, snapErr := s.saver.Serialize()
		if err := s.saver.Deserialize(payload); err != nil {
			if snapErr == nil {
				// Best effort; the snapshot came from a healthy core.
				_ = s.saver.Deserialize(snapshot)
			}
			return fmt.Errorf("deserialize: %w", err)
		}
		s.audio.Clear()
		if s.rewind != nil {
			s.rewind.Reset()
		}
		// Republish so consumers see the restored frame before the next
		// step.
		s.frames.Publish(s.core.Framebuffer(), s.core.FramebufferStride(), s.core.ActiveHeight())
		return nil
	})
}
