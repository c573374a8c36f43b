package player

import (
	"github.com/hajimehoshi/ebiten/v2"

	emucore "github.com/StephenDev0/emuhost/api"
)

// Keymap maps button bit IDs to ebiten input sources. Keyed by the
// Button.ID bit position in the uint32 bitmask.
type Keymap struct {
	Keys    map[int]ebiten.Key
	Gamepad map[int]ebiten.StandardGamepadButton
}

// keyNameMap maps key name strings used in Button.DefaultKey to
// ebiten.Key values.
var keyNameMap = map[string]ebiten.Key{
	"A": ebiten.KeyA, "B": ebiten.KeyB, "C": ebiten.KeyC, "D": ebiten.KeyD,
	"E": ebiten.KeyE, "F": ebiten.KeyF, "G": ebiten.KeyG, "H": ebiten.KeyH,
	"I": ebiten.KeyI, "J": ebiten.KeyJ, "K": ebiten.KeyK, "L": ebiten.KeyL,
	"M": ebiten.KeyM, "N": ebiten.KeyN, "O": ebiten.KeyO, "P": ebiten.KeyP,
	"Q": ebiten.KeyQ, "R": ebiten.KeyR, "S": ebiten.KeyS, "T": ebiten.KeyT,
	"U": ebiten.KeyU, "V": ebiten.KeyV, "W": ebiten.KeyW, "X": ebiten.KeyX,
	"Y": ebiten.KeyY, "Z": ebiten.KeyZ,
	"0": ebiten.Key0, "1": ebiten.Key1, "2": ebiten.Key2, "3": ebiten.Key3,
	"4": ebiten.Key4, "5": ebiten.Key5, "6": ebiten.Key6, "7": ebiten.Key7,
	"8": ebiten.Key8, "9": ebiten.Key9,
	"Enter":      ebiten.KeyEnter,
	"Backspace":  ebiten.KeyBackspace,
	"Space":      ebiten.KeySpace,
	"Semicolon":  ebiten.KeySemicolon,
	"Comma":      ebiten.KeyComma,
	"Period":     ebiten.KeyPeriod,
	"Slash":      ebiten.KeySlash,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"[":          ebiten.KeyLeftBracket,
	"]":          ebiten.KeyRightBracket,
	"-":          ebiten.KeyMinus,
	"=":          ebiten.KeyEqual,
	"'":          ebiten.KeyApostrophe,
}

// reservedKeys are keyboard keys used for host functions and therefore
// never bound to core buttons.
var reservedKeys = map[ebiten.Key]bool{
	ebiten.KeyEscape: true, // Quit
	ebiten.KeyP:      true, // Pause
	ebiten.KeyR:      true, // Rewind
	ebiten.KeyF1:     true, // Save state
	ebiten.KeyF2:     true, // Cycle slot
	ebiten.KeyF3:     true, // Load state
	ebiten.KeyF4:     true, // Turbo
	ebiten.KeyF11:    true, // Fullscreen
	ebiten.KeyShift:  true, // Modifier (Shift+F2)
}

// padNameDefaults maps core button names to a standard gamepad button.
var padNameDefaults = map[string]ebiten.StandardGamepadButton{
	"A":      ebiten.StandardGamepadButtonRightBottom,
	"B":      ebiten.StandardGamepadButtonRightRight,
	"X":      ebiten.StandardGamepadButtonRightLeft,
	"Y":      ebiten.StandardGamepadButtonRightTop,
	"L":      ebiten.StandardGamepadButtonFrontTopLeft,
	"R":      ebiten.StandardGamepadButtonFrontTopRight,
	"Start":  ebiten.StandardGamepadButtonCenterRight,
	"Select": ebiten.StandardGamepadButtonCenterLeft,
}

// dpadDefaults are the fixed d-pad bindings: WASD on the keyboard and
// the standard d-pad on a controller.
var dpadDefaults = []struct {
	BitID      int
	DefaultKey string
	Pad        ebiten.StandardGamepadButton
}{
	{emucore.ButtonUp, "W", ebiten.StandardGamepadButtonLeftTop},
	{emucore.ButtonDown, "S", ebiten.StandardGamepadButtonLeftBottom},
	{emucore.ButtonLeft, "A", ebiten.StandardGamepadButtonLeftLeft},
	{emucore.ButtonRight, "D", ebiten.StandardGamepadButtonLeftRight},
}

// DefaultKeymap builds bindings from a core's button definitions:
// d-pad defaults plus per-button defaults, skipping reserved keys.
func DefaultKeymap(buttons []emucore.Button) Keymap {
	m := Keymap{
		Keys:    make(map[int]ebiten.Key),
		Gamepad: make(map[int]ebiten.StandardGamepadButton),
	}

	for _, dp := range dpadDefaults {
		if k, ok := keyNameMap[dp.DefaultKey]; ok {
			m.Keys[dp.BitID] = k
		}
		m.Gamepad[dp.BitID] = dp.Pad
	}

	for _, btn := range buttons {
		if btn.DefaultKey != "" {
			if k, ok := keyNameMap[btn.DefaultKey]; ok && !reservedKeys[k] {
				m.Keys[btn.ID] = k
			}
		}
		if pad, ok := padNameDefaults[btn.Name]; ok {
			m.Gamepad[btn.ID] = pad
		}
	}

	return m
}

// PollButtons reads player-one input from keyboard plus gamepad and
// returns the button bitmask.
func PollButtons(m Keymap, gamepadID ebiten.GamepadID, hasGamepad bool) uint32 {
	var buttons uint32

	for bitID, key := range m.Keys {
		if ebiten.IsKeyPressed(key) {
			buttons |= 1 << uint(bitID)
		}
	}

	if !hasGamepad {
		return buttons
	}

	for bitID, padBtn := range m.Gamepad {
		if ebiten.IsStandardGamepadButtonPressed(gamepadID, padBtn) {
			buttons |= 1 << uint(bitID)
		}
	}

	pollAnalogStick(&buttons, m, gamepadID)
	return buttons
}

// PollGamepadButtons reads player-two input from a gamepad only; the
// keyboard belongs to player one.
func PollGamepadButtons(m Keymap, gamepadID ebiten.GamepadID) uint32 {
	var buttons uint32

	for bitID, padBtn := range m.Gamepad {
		if ebiten.IsStandardGamepadButtonPressed(gamepadID, padBtn) {
			buttons |= 1 << uint(bitID)
		}
	}

	pollAnalogStick(&buttons, m, gamepadID)
	return buttons
}

// pollAnalogStick sets the same bit IDs the d-pad buttons are mapped
// to, so the stick follows any d-pad remapping.
func pollAnalogStick(buttons *uint32, m Keymap, gamepadID ebiten.GamepadID) {
	axisX := ebiten.StandardGamepadAxisValue(gamepadID, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(gamepadID, ebiten.StandardGamepadAxisLeftStickVertical)

	for bitID, padBtn := range m.Gamepad {
		switch padBtn {
		case ebiten.StandardGamepadButtonLeftLeft:
			if axisX < -0.25 {
				*buttons |= 1 << uint(bitID)
			}
		case ebiten.StandardGamepadButtonLeftRight:
			if axisX > 0.25 {
				*buttons |= 1 << uint(bitID)
			}
		case ebiten.StandardGamepadButtonLeftTop:
			if axisY < -0.25 {
				*buttons |= 1 << uint(bitID)
			}
		case ebiten.StandardGamepadButtonLeftBottom:
			if axisY > 0.25 {
				*buttons |= 1 << uint(bitID)
			}
		}
	}
}
