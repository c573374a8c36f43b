package player

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Speaker plays a session's audio stream via oto. The session's ring
// buffer is the source; oto's player pulls from it on its own thread.
type Speaker struct {
	player *oto.Player
}

// oto context singleton. oto allows only one context per process, so
// successive sessions reuse it.
var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
	otoRate     int
)

func ensureOtoContext(sampleRate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		otoRate = sampleRate
		<-readyChan
	})
	if otoInitErr == nil && otoRate != sampleRate {
		return nil, fmt.Errorf("audio context already opened at %d Hz, core wants %d Hz", otoRate, sampleRate)
	}
	return otoCtx, otoInitErr
}

// NewSpeaker starts playback of src at the given sample rate. Volume is
// applied before Play to avoid a pop when starting muted.
func NewSpeaker(src io.Reader, sampleRate int, volume float64) (*Speaker, error) {
	ctx, err := ensureOtoContext(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	p := ctx.NewPlayer(src)
	// Shrink the player's internal buffer to ~100ms so buffered-size
	// readings track the ring buffer closely.
	p.SetBufferSize(sampleRate * 4 / 10)
	p.SetVolume(volume)
	p.Play()

	return &Speaker{player: p}, nil
}

// SetVolume sets the playback volume, clamped to [0.0, 2.0].
func (s *Speaker) SetVolume(vol float64) {
	if vol < 0 {
		vol = 0
	} else if vol > 2.0 {
		vol = 2.0
	}
	s.player.SetVolume(vol)
}

// Close stops playback. The underlying session stream is not closed;
// that happens when the session itself stops.
func (s *Speaker) Close() {
	if s.player != nil {
		s.player.Close()
	}
}
