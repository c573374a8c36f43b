package coretest

import (
	"bytes"
	"testing"

	emucore "github.com/StephenDev0/emuhost/api"
)

func newTestCore(t *testing.T, opts ...Option) *Core {
	t.Helper()
	core, err := NewFactory(opts...).CreateEmulator([]byte("rom"), emucore.RegionNTSC)
	if err != nil {
		t.Fatalf("create core: %v", err)
	}
	return core.(*Core)
}

func TestCore_DeterministicAcrossInstances(t *testing.T) {
	a := newTestCore(t)
	b := newTestCore(t)

	inputs := []uint32{0, 1 << emucore.ButtonA, 0, 3, 0xFF, 0}
	for _, in := range inputs {
		a.SetInput(0, in)
		b.SetInput(0, in)
		a.RunFrame()
		b.RunFrame()
	}

	if !bytes.Equal(a.Framebuffer(), b.Framebuffer()) {
		t.Fatal("framebuffers diverged with identical inputs")
	}
	sa, _ := a.Serialize()
	sb, _ := b.Serialize()
	if !bytes.Equal(sa, sb) {
		t.Fatal("serialized states diverged with identical inputs")
	}
}

func TestCore_InputChangesOutput(t *testing.T) {
	a := newTestCore(t)
	b := newTestCore(t)

	a.SetInput(0, 1<<emucore.ButtonA)
	a.RunFrame()
	b.RunFrame()

	if bytes.Equal(a.Framebuffer(), b.Framebuffer()) {
		t.Fatal("differing inputs produced identical frames")
	}
}

func TestCore_FramebufferIsUniform(t *testing.T) {
	c := newTestCore(t)
	c.RunFrame()

	fb := c.Framebuffer()
	r, g, b, al := fb[0], fb[1], fb[2], fb[3]
	for i := 0; i < len(fb); i += 4 {
		if fb[i] != r || fb[i+1] != g || fb[i+2] != b || fb[i+3] != al {
			t.Fatalf("pixel %d differs from stamp", i/4)
		}
	}
	if al != 0xFF {
		t.Fatalf("expected opaque alpha, got %d", al)
	}
}

func TestCore_SerializeRoundTrip(t *testing.T) {
	c := newTestCore(t)
	c.SetInput(0, 0x15)
	for i := 0; i < 7; i++ {
		c.RunFrame()
	}

	state, err := c.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	// Diverge, then restore.
	for i := 0; i < 5; i++ {
		c.RunFrame()
	}
	if err := c.Deserialize(state); err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	again, err := c.Serialize()
	if err != nil {
		t.Fatalf("serialize after restore: %v", err)
	}
	if !bytes.Equal(state, again) {
		t.Fatal("round trip is not bit-identical")
	}
	if c.Frame() != 7 {
		t.Fatalf("expected frame counter 7, got %d", c.Frame())
	}
}

func TestCore_SerializeDeclaredSize(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"plain", nil},
		{"battery", []Option{WithBattery()}},
		{"dual", []Option{WithDualScreen()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFactory(tt.opts...)
			core, err := f.CreateEmulator([]byte("rom"), emucore.RegionNTSC)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			state, err := core.(*Core).Serialize()
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			if len(state) != f.SystemInfo().SerializeSize {
				t.Fatalf("declared size %d, actual %d", f.SystemInfo().SerializeSize, len(state))
			}
		})
	}
}

func TestCore_DeserializeRejectsBadStates(t *testing.T) {
	c := newTestCore(t)
	good, _ := c.Serialize()

	if err := c.Deserialize(good[:10]); err == nil {
		t.Fatal("accepted truncated state")
	}

	bad := append([]byte(nil), good...)
	bad[0] = 'X'
	if err := c.Deserialize(bad); err == nil {
		t.Fatal("accepted bad magic")
	}

	bad = append([]byte(nil), good...)
	bad[2] = 99
	if err := c.Deserialize(bad); err == nil {
		t.Fatal("accepted wrong version")
	}

	// State from a battery core does not fit a plain core.
	b := newTestCore(t, WithBattery())
	withSRAM, _ := b.Serialize()
	if err := c.Deserialize(withSRAM); err == nil {
		t.Fatal("accepted state with mismatched SRAM size")
	}
}

func TestCore_ResetKeepsSRAM(t *testing.T) {
	c := newTestCore(t, WithBattery())
	for i := 0; i < 4; i++ {
		c.RunFrame()
	}
	before := c.SRAM()

	c.Reset()
	if c.Frame() != 0 {
		t.Fatalf("expected frame 0 after reset, got %d", c.Frame())
	}
	if !bytes.Equal(c.SRAM(), before) {
		t.Fatal("reset wiped SRAM")
	}
}

func TestCore_ResetRestoresPowerOnSequence(t *testing.T) {
	a := newTestCore(t)
	fresh := newTestCore(t)

	for i := 0; i < 9; i++ {
		a.RunFrame()
	}
	a.Reset()

	a.RunFrame()
	fresh.RunFrame()
	if !bytes.Equal(a.Framebuffer(), fresh.Framebuffer()) {
		t.Fatal("post-reset sequence differs from power-on sequence")
	}
}

func TestCore_TouchOnlyOnDualScreen(t *testing.T) {
	single := newTestCore(t)
	single.SetTouch(10, 20)
	s1, _ := single.Serialize()

	untouched := newTestCore(t)
	s2, _ := untouched.Serialize()
	if !bytes.Equal(s1, s2) {
		t.Fatal("single-screen core recorded a touch")
	}

	dual := newTestCore(t, WithDualScreen())
	dual.SetTouch(10, 20)
	dual.RunFrame()
	dualClean := newTestCore(t, WithDualScreen())
	dualClean.RunFrame()
	if bytes.Equal(dual.Framebuffer(), dualClean.Framebuffer()) {
		t.Fatal("touch had no effect on dual-screen core")
	}

	dual.EndTouch()
	st, _ := dual.Serialize()
	// Touch flag byte sits after magic, version, rng, frame, buttons
	// and the two coordinates.
	if st[31] != 0 {
		t.Fatal("EndTouch did not clear the touch flag")
	}
}

func TestCore_CloseMakesStepPanic(t *testing.T) {
	c := newTestCore(t)
	c.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("RunFrame on a closed core did not panic")
		}
	}()
	c.RunFrame()
}

func TestFactory_RejectsEmptyROM(t *testing.T) {
	if _, err := NewFactory().CreateEmulator(nil, emucore.RegionNTSC); err == nil {
		t.Fatal("accepted empty ROM")
	}
}

func TestFactory_RegionTiming(t *testing.T) {
	f := NewFactory()

	ntsc, _ := f.CreateEmulator([]byte("rom"), emucore.RegionNTSC)
	if fps := ntsc.Timing().FPS; fps != 60 {
		t.Fatalf("NTSC: expected 60 fps, got %d", fps)
	}

	pal, _ := f.CreateEmulator([]byte("rom"), emucore.RegionPAL)
	if fps := pal.Timing().FPS; fps != 50 {
		t.Fatalf("PAL: expected 50 fps, got %d", fps)
	}
}

func TestFactory_DifferentROMsDifferentSeeds(t *testing.T) {
	f := NewFactory()
	a, _ := f.CreateEmulator([]byte("rom one"), emucore.RegionNTSC)
	b, _ := f.CreateEmulator([]byte("rom two"), emucore.RegionNTSC)

	a.RunFrame()
	b.RunFrame()
	if bytes.Equal(a.Framebuffer(), b.Framebuffer()) {
		t.Fatal("different ROMs produced identical output")
	}
}
