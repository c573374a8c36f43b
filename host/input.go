package host

import "sync"

const maxPlayers = 2

// Logical touch space of dual-screen cores: two 256x192 screens stacked
// vertically. Touch only lands on the bottom screen.
const (
	touchWidth  = 256
	touchTopRow = 192
	touchHeight = 384
)

// TouchState is the current stylus position in bottom-screen
// coordinates, valid only while Pressed is true.
type TouchState struct {
	X, Y    uint16
	Pressed bool
}

// InputState is the single point of truth for what is currently pressed,
// independent of where input arrives from. The presentation side writes
// fire-and-forget; the emulation loop reads one snapshot per frame.
// Last writer wins, and every update is atomic at the granularity of one
// value, so the loop never observes a torn button mask.
type InputState struct {
	mu      sync.Mutex
	buttons [maxPlayers]uint32
	touch   TouchState
}

// SetButton sets or clears a single button bit for a player. Writes for
// out-of-range players or button IDs are ignored.
func (is *InputState) SetButton(player, id int, pressed bool) {
	if player < 0 || player >= maxPlayers || id < 0 || id > 31 {
		return
	}
	is.mu.Lock()
	if pressed {
		is.buttons[player] |= 1 << uint(id)
	} else {
		is.buttons[player] &^= 1 << uint(id)
	}
	is.mu.Unlock()
}

// SetButtons replaces the whole bitmask for a player.
func (is *InputState) SetButtons(player int, buttons uint32) {
	if player < 0 || player >= maxPlayers {
		return
	}
	is.mu.Lock()
	is.buttons[player] = buttons
	is.mu.Unlock()
}

// SetTouch records a stylus event in the stacked dual-screen logical
// space. A press outside the bottom screen is treated as no touch
// rather than propagated; coordinates are translated so the stored
// position is relative to the bottom screen's top-left corner.
func (is *InputState) SetTouch(x, y int, pressed bool) {
	is.mu.Lock()
	if pressed && x >= 0 && x < touchWidth && y >= touchTopRow && y < touchHeight {
		is.touch = TouchState{X: uint16(x), Y: uint16(y - touchTopRow), Pressed: true}
	} else {
		is.touch = TouchState{}
	}
	is.mu.Unlock()
}

// snapshot returns the current button masks and touch state. Called by
// the emulation loop once per frame.
func (is *InputState) snapshot() ([maxPlayers]uint32, TouchState) {
	is.mu.Lock()
	buttons := is.buttons
	touch := is.touch
	is.mu.Unlock()
	return buttons, touch
}

// reset releases every button and clears the touch state. Called on
// session teardown.
func (is *InputState) reset() {
	is.mu.Lock()
	is.buttons = [maxPlayers]uint32{}
	is.touch = TouchState{}
	is.mu.Unlock()
}
