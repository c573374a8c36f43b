package player

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	emucore "github.com/StephenDev0/emuhost/api"
	"github.com/StephenDev0/emuhost/host"
	"github.com/StephenDev0/emuhost/storage"
)

// rewindFrameInterval throttles held-R rewind to every other tick so
// rewinding runs at roughly half speed.
const rewindFrameInterval = 2

// Player implements ebiten.Game on top of a host.Session: it polls
// input into the session, presents published frames, and handles the
// host hotkeys (save states, pause, rewind, turbo, fullscreen).
type Player struct {
	session  *host.Session
	id       host.SessionID
	renderer *Renderer
	speaker  *Speaker
	keymap   Keymap

	framePixels []byte
	paused      bool
	rewindHeld  int
	touchDown   bool
}

// NewPlayer wraps a running session for presentation. speaker may be
// nil when audio output is unavailable.
func NewPlayer(session *host.Session, speaker *Speaker) *Player {
	info := session.Info()
	return &Player{
		session:     session,
		id:          host.Register(session),
		renderer:    NewRenderer(),
		speaker:     speaker,
		keymap:      DefaultKeymap(info.Buttons),
		framePixels: make([]byte, info.ScreenBytes()),
	}
}

// Update implements ebiten.Game. It runs on ebiten's tick cadence,
// independent of the session's emulation goroutine.
func (p *Player) Update() error {
	if p.session.State() == host.Terminated {
		if err := p.session.Err(); err != nil {
			return err
		}
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	p.handlePauseKey()
	p.handleTurboKey()
	p.handleSaveStateKeys()
	p.handleRewindKey()

	p.pollButtons()
	p.pollTouch()

	return nil
}

// Draw implements ebiten.Game.
func (p *Player) Draw(screen *ebiten.Image) {
	stride, height, _ := p.session.PollFrame(p.framePixels)
	if height == 0 {
		return
	}
	p.renderer.Draw(screen, p.framePixels, stride, height)
}

// Layout implements ebiten.Game.
func (p *Player) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := 1.0
	if m := ebiten.Monitor(); m != nil {
		s = m.DeviceScaleFactor()
	}
	return int(float64(outsideWidth) * s), int(float64(outsideHeight) * s)
}

// Close stops the session and releases audio. Safe to call after the
// session already terminated.
func (p *Player) Close() {
	host.Unregister(p.id)
	p.session.Stop()
	if p.speaker != nil {
		p.speaker.Close()
	}
}

func (p *Player) handlePauseKey() {
	if !inpututil.IsKeyJustPressed(ebiten.KeyP) {
		return
	}
	p.paused = !p.paused
	if err := p.session.SetPaused(p.paused); err != nil {
		p.paused = !p.paused
	}
}

// handleTurboKey cycles F4 through 1x, 2x, 3x.
func (p *Player) handleTurboKey() {
	if !inpututil.IsKeyJustPressed(ebiten.KeyF4) {
		return
	}
	speed := p.session.Speed() + 1
	if speed > 3 {
		speed = 1
	}
	p.session.SetSpeed(speed)
}

// handleSaveStateKeys handles F1 save, F2/Shift+F2 slot cycling and
// F3 load.
func (p *Player) handleSaveStateKeys() {
	saves := p.session.Saves()
	if saves == nil {
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		if err := p.session.SaveState(saves.CurrentSlot()); err != nil {
			log.Printf("save state failed: %v", err)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			saves.PreviousSlot()
		} else {
			saves.NextSlot()
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		if err := p.session.LoadState(saves.CurrentSlot()); err != nil {
			log.Printf("load state failed: %v", err)
		}
	}
}

// handleRewindKey steps the session backwards while R is held.
func (p *Player) handleRewindKey() {
	if !ebiten.IsKeyPressed(ebiten.KeyR) {
		p.rewindHeld = 0
		return
	}
	p.rewindHeld++
	if p.rewindHeld%rewindFrameInterval != 1 {
		return
	}
	if err := p.session.Rewind(1); err != nil {
		log.Printf("rewind failed: %v", err)
	}
}

func (p *Player) pollButtons() {
	gamepadIDs := ebiten.AppendGamepadIDs(nil)
	hasGamepad := len(gamepadIDs) > 0

	var gamepadID ebiten.GamepadID
	if hasGamepad {
		gamepadID = gamepadIDs[0]
	}

	p.session.SetButtons(0, PollButtons(p.keymap, gamepadID, hasGamepad))

	if len(gamepadIDs) > 1 {
		p.session.SetButtons(1, PollGamepadButtons(p.keymap, gamepadIDs[1]))
	}
}

// pollTouch maps left mouse presses onto the touch layer of
// dual-screen cores. Drags outside the drawn area release the touch.
func (p *Player) pollTouch() {
	if !p.session.DualScreen() {
		return
	}

	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if !pressed {
		if p.touchDown {
			p.touchDown = false
			p.session.SetTouch(0, 0, false)
		}
		return
	}

	cx, cy := ebiten.CursorPosition()
	nx, ny, ok := p.renderer.ScreenToNative(cx, cy)
	if !ok {
		if p.touchDown {
			p.touchDown = false
			p.session.SetTouch(0, 0, false)
		}
		return
	}

	p.touchDown = true
	p.session.SetTouch(nx, ny, true)
}

// Run starts a session for the ROM at romPath and presents it in an
// ebiten window until the window closes or the session dies.
func Run(factory emucore.CoreFactory, romPath string, cfg *storage.Config, opts host.Options) error {
	session, err := host.StartSession(factory, romPath, opts)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	info := session.Info()

	volume := cfg.Audio.Volume
	if cfg.Audio.Muted {
		volume = 0
	}
	speaker, err := NewSpeaker(session.AudioReader(), info.SampleRate, volume)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}

	p := NewPlayer(session, speaker)
	defer p.Close()

	ebiten.SetWindowTitle(info.CoreName)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	windowW := info.ScreenWidth * 3
	windowH := int(float64(windowW) / info.AspectRatio)
	minW := info.ScreenWidth * 2
	minH := int(float64(minW) / info.AspectRatio)
	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowSizeLimits(minW, minH, -1, -1)

	if err := ebiten.RunGame(p); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}
