package host

import (
	"testing"

	emucore "github.com/StephenDev0/emuhost/api"
	"github.com/StephenDev0/emuhost/coretest"
)

func newRewindCore(t *testing.T) (emucore.Emulator, emucore.SaveStater) {
	t.Helper()
	core, err := coretest.NewFactory().CreateEmulator([]byte("rewind rom"), emucore.RegionNTSC)
	if err != nil {
		t.Fatalf("create core: %v", err)
	}
	t.Cleanup(core.Close)
	return core, core.(emucore.SaveStater)
}

func TestNewRewindBuffer_InvalidParams(t *testing.T) {
	if rb := NewRewindBuffer(0, 2, 100); rb != nil {
		t.Fatal("expected nil for zero buffer size")
	}
	if rb := NewRewindBuffer(1, 0, 100); rb != nil {
		t.Fatal("expected nil for zero frame step")
	}
	if rb := NewRewindBuffer(1, 2, 0); rb != nil {
		t.Fatal("expected nil for zero state size")
	}
	// State larger than the whole buffer.
	if rb := NewRewindBuffer(1, 2, 2*1024*1024); rb != nil {
		t.Fatal("expected nil when no state fits")
	}
}

func TestRewindBuffer_CapturesEveryNthFrame(t *testing.T) {
	_, saver := newRewindCore(t)
	rb := NewRewindBuffer(1, 3, 64)

	for i := 0; i < 9; i++ {
		if err := rb.Capture(saver); err != nil {
			t.Fatalf("capture %d: %v", i, err)
		}
	}
	if rb.Count() != 3 {
		t.Fatalf("expected 3 captures out of 9 calls at step 3, got %d", rb.Count())
	}
}

func TestRewindBuffer_StepRestoresEarlierState(t *testing.T) {
	core, saver := newRewindCore(t)
	tc := core.(*coretest.Core)
	rb := NewRewindBuffer(1, 1, 64)

	for i := 0; i < 20; i++ {
		core.RunFrame()
		if err := rb.Capture(saver); err != nil {
			t.Fatalf("capture: %v", err)
		}
	}

	before := tc.Frame()
	if !rb.Step(core, saver, 5) {
		t.Fatal("step failed with a populated ring")
	}
	// Restored 5 captures back, plus the regeneration frame.
	if after := tc.Frame(); after != before-5+1 {
		t.Fatalf("expected frame %d after rewind, got %d", before-5+1, after)
	}
}

func TestRewindBuffer_StepRejectsNonPositiveCount(t *testing.T) {
	core, saver := newRewindCore(t)
	tc := core.(*coretest.Core)
	rb := NewRewindBuffer(1, 1, 64)

	for i := 0; i < 5; i++ {
		core.RunFrame()
		if err := rb.Capture(saver); err != nil {
			t.Fatalf("capture: %v", err)
		}
	}

	if rb.Step(core, saver, -3) {
		t.Fatal("negative step should be a no-op")
	}
	if rb.Count() != 5 {
		t.Fatalf("negative step changed the entry count: got %d, want 5", rb.Count())
	}
	if rb.Step(core, saver, 0) {
		t.Fatal("zero step should be a no-op")
	}

	// The ring still works normally afterwards.
	before := tc.Frame()
	if !rb.Step(core, saver, 1) {
		t.Fatal("step failed with a populated ring")
	}
	if after := tc.Frame(); after != before-1+1 {
		t.Fatalf("expected frame %d after rewind, got %d", before-1+1, after)
	}
}

func TestRewindBuffer_StepOnEmptyRing(t *testing.T) {
	core, saver := newRewindCore(t)
	rb := NewRewindBuffer(1, 1, 64)

	if rb.Step(core, saver, 1) {
		t.Fatal("expected Step to fail on empty ring")
	}
}

func TestRewindBuffer_Reset(t *testing.T) {
	_, saver := newRewindCore(t)
	rb := NewRewindBuffer(1, 1, 64)

	for i := 0; i < 5; i++ {
		rb.Capture(saver)
	}
	rb.Reset()
	if rb.Count() != 0 {
		t.Fatalf("expected empty ring after reset, got %d", rb.Count())
	}
}

func TestRewindBuffer_OverwritesOldest(t *testing.T) {
	core, saver := newRewindCore(t)
	tc := core.(*coretest.Core)

	// Tiny ring: 1MB / 300KB state size rounds to 3 entries.
	rb := NewRewindBuffer(1, 1, 300*1024)
	if rb.Capacity() != 3 {
		t.Fatalf("expected capacity 3, got %d", rb.Capacity())
	}

	for i := 0; i < 10; i++ {
		core.RunFrame()
		rb.Capture(saver)
	}
	if rb.Count() != 3 {
		t.Fatalf("expected full ring of 3, got %d", rb.Count())
	}

	// Asking for more than the ring holds clamps to the oldest entry,
	// which stays restorable for repeated rewinds.
	if !rb.Step(core, saver, 10) {
		t.Fatal("step failed")
	}
	if after := tc.Frame(); after != 8+1 {
		t.Fatalf("expected frame %d, got %d", 8+1, after)
	}
	if rb.Count() != 1 {
		t.Fatalf("expected oldest entry retained, got %d", rb.Count())
	}
}
