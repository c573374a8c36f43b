// Package player is the desktop front end: an ebiten game loop that
// feeds input into a host.Session and presents its video and audio.
package player

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Renderer owns the ebiten offscreen buffer and draws session frames
// with aspect-preserving scaling. It remembers the last transform so
// window coordinates can be mapped back to native pixels for touch.
type Renderer struct {
	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions

	// Last draw transform, used by ScreenToNative.
	lastScale   float64
	lastOffsetX float64
	lastOffsetY float64
	lastWidth   int
	lastHeight  int
}

// NewRenderer creates an empty renderer. The offscreen buffer is
// allocated lazily from the first frame's dimensions.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Draw renders one frame of pixels to the screen. stride is the row
// size in bytes and activeHeight the number of rows to present.
func (r *Renderer) Draw(screen *ebiten.Image, pixels []byte, stride, activeHeight int) {
	if activeHeight == 0 || stride == 0 {
		return
	}

	requiredLen := stride * activeHeight
	if len(pixels) < requiredLen {
		return
	}

	pixelWidth := stride / 4
	if r.offscreen == nil || r.offscreen.Bounds().Dx() != pixelWidth || r.offscreen.Bounds().Dy() != activeHeight {
		r.offscreen = ebiten.NewImage(pixelWidth, activeHeight)
	}

	r.offscreen.WritePixels(pixels[:requiredLen])

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	nativeW := float64(pixelWidth)
	nativeH := float64(activeHeight)

	scaleX := float64(screenW) / nativeW
	scaleY := float64(screenH) / nativeH
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	scaledW := nativeW * scale
	scaledH := nativeH * scale
	offsetX := (float64(screenW) - scaledW) / 2
	offsetY := (float64(screenH) - scaledH) / 2

	r.lastScale = scale
	r.lastOffsetX = offsetX
	r.lastOffsetY = offsetY
	r.lastWidth = pixelWidth
	r.lastHeight = activeHeight

	r.drawOpts = ebiten.DrawImageOptions{}
	r.drawOpts.GeoM.Scale(scale, scale)
	r.drawOpts.GeoM.Translate(offsetX, offsetY)
	r.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(r.offscreen, &r.drawOpts)
}

// ScreenToNative maps a window coordinate to native framebuffer
// coordinates using the last draw transform. Returns false when the
// point falls outside the drawn image or nothing has been drawn yet.
func (r *Renderer) ScreenToNative(x, y int) (int, int, bool) {
	if r.lastScale == 0 {
		return 0, 0, false
	}
	nx := (float64(x) - r.lastOffsetX) / r.lastScale
	ny := (float64(y) - r.lastOffsetY) / r.lastScale
	if nx < 0 || ny < 0 || nx >= float64(r.lastWidth) || ny >= float64(r.lastHeight) {
		return 0, 0, false
	}
	return int(nx), int(ny), true
}
