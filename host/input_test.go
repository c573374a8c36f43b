package host

import (
	"sync"
	"testing"

	emucore "github.com/StephenDev0/emuhost/api"
)

func TestInputState_SetButton(t *testing.T) {
	var is InputState

	is.SetButton(0, emucore.ButtonA, true)
	is.SetButton(0, emucore.ButtonStart, true)
	is.SetButton(1, emucore.ButtonB, true)

	buttons, _ := is.snapshot()
	want0 := uint32(1<<emucore.ButtonA | 1<<emucore.ButtonStart)
	if buttons[0] != want0 {
		t.Fatalf("player 0: expected %#x, got %#x", want0, buttons[0])
	}
	if buttons[1] != uint32(1<<emucore.ButtonB) {
		t.Fatalf("player 1: expected %#x, got %#x", uint32(1<<emucore.ButtonB), buttons[1])
	}

	is.SetButton(0, emucore.ButtonA, false)
	buttons, _ = is.snapshot()
	if buttons[0] != uint32(1<<emucore.ButtonStart) {
		t.Fatalf("expected only Start held, got %#x", buttons[0])
	}
}

func TestInputState_IgnoresOutOfRange(t *testing.T) {
	var is InputState

	is.SetButton(-1, emucore.ButtonA, true)
	is.SetButton(2, emucore.ButtonA, true)
	is.SetButton(0, 32, true)
	is.SetButtons(5, 0xFFFF)

	buttons, _ := is.snapshot()
	if buttons[0] != 0 || buttons[1] != 0 {
		t.Fatalf("expected no buttons set, got %#x %#x", buttons[0], buttons[1])
	}
}

func TestInputState_SetButtonsReplacesMask(t *testing.T) {
	var is InputState

	is.SetButtons(0, 0xF)
	is.SetButtons(0, 0x10)

	buttons, _ := is.snapshot()
	if buttons[0] != 0x10 {
		t.Fatalf("expected last-writer-wins mask 0x10, got %#x", buttons[0])
	}
}

func TestInputState_TouchTranslation(t *testing.T) {
	tests := []struct {
		name    string
		x, y    int
		pressed bool
		want    TouchState
	}{
		{"bottom screen origin", 0, 192, true, TouchState{X: 0, Y: 0, Pressed: true}},
		{"bottom screen middle", 128, 300, true, TouchState{X: 128, Y: 108, Pressed: true}},
		{"bottom screen last row", 255, 383, true, TouchState{X: 255, Y: 191, Pressed: true}},
		{"top screen ignored", 100, 100, true, TouchState{}},
		{"below screen ignored", 100, 384, true, TouchState{}},
		{"x out of range ignored", 256, 200, true, TouchState{}},
		{"release clears", 128, 300, false, TouchState{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var is InputState
			is.SetTouch(tt.x, tt.y, tt.pressed)
			_, touch := is.snapshot()
			if touch != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, touch)
			}
		})
	}
}

func TestInputState_ReleaseAfterPressClearsTouch(t *testing.T) {
	var is InputState

	is.SetTouch(50, 250, true)
	if _, touch := is.snapshot(); !touch.Pressed {
		t.Fatal("expected touch pressed")
	}

	is.SetTouch(50, 250, false)
	if _, touch := is.snapshot(); touch.Pressed {
		t.Fatal("expected touch released")
	}
}

func TestInputState_Reset(t *testing.T) {
	var is InputState

	is.SetButtons(0, 0xFF)
	is.SetButtons(1, 0xF0)
	is.SetTouch(10, 200, true)

	is.reset()

	buttons, touch := is.snapshot()
	if buttons[0] != 0 || buttons[1] != 0 {
		t.Fatalf("expected clear masks, got %#x %#x", buttons[0], buttons[1])
	}
	if touch.Pressed {
		t.Fatal("expected touch cleared")
	}
}

// Concurrent writers must never corrupt the mask beyond last-writer-wins.
func TestInputState_ConcurrentWriters(t *testing.T) {
	var is InputState

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				is.SetButtons(0, uint32(1)<<uint(w))
				is.SetButton(1, w, i%2 == 0)
				is.snapshot()
			}
		}(w)
	}
	wg.Wait()

	buttons, _ := is.snapshot()
	// Player 0's mask is whatever writer finished last; it must be one
	// of the written values.
	switch buttons[0] {
	case 1, 2, 4, 8:
	default:
		t.Fatalf("player 0 mask corrupted: %#x", buttons[0])
	}
}
