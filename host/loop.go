package host

import (
	"fmt"
	"log"
	"time"
)

// run hosts the emulation loop and owns the core for its entire
// lifetime. Whatever way the loop ends, teardown destroys the core
// exactly once and only after the loop has fully exited.
func (s *Session) run() {
	defer s.teardown()
	defer func() {
		// A step anomaly must not take the process down; the session
		// terminates with the error attached instead.
		if r := recover(); r != nil {
			s.fail(fmt.Errorf("emulation loop: %v", r))
		}
	}()
	s.loop()
}

func (s *Session) teardown() {
	if s.battery != nil && s.saves != nil && s.battery.HasSRAM() {
		if err := s.saves.WriteSRAM(s.battery.SRAM()); err != nil {
			log.Printf("SRAM save failed: %v", err)
		}
	}
	s.autoSaveWG.Wait()
	s.input.reset()
	s.audio.Close()
	s.core.Close()
	s.setState(Terminated)
	close(s.done)
}

func (s *Session) loop() {
	timing := s.core.Timing()
	fps := timing.FPS
	if fps <= 0 {
		fps = 60
	}
	frameTime := time.Duration(float64(time.Second) / float64(fps))

	// Audio-driven pacing thresholds. A healthy consumer keeps the ring
	// around a few frames of PCM; speed up when it runs shallow, slow
	// down when it backs up.
	sampleRate := s.info.SampleRate
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	bytesPerFrame := sampleRate / fps * 4
	adtMin := 3 * bytesPerFrame
	adtMax := 6 * bytesPerFrame

	lastFrame := time.Now()

	var nextAutoSave time.Time
	if s.opts.AutoSaveEvery > 0 && s.saver != nil && s.saves != nil {
		nextAutoSave = time.Now().Add(time.Second)
	}

	for {
		if !s.processControl() {
			return
		}

		// One input snapshot per step; the most recent write before this
		// point is what the core sees.
		buttons, touch := s.input.snapshot()
		for p := 0; p < maxPlayers; p++ {
			s.core.SetInput(p, buttons[p])
		}
		if s.touch != nil {
			if touch.Pressed {
				s.touch.SetTouch(touch.X, touch.Y)
			} else {
				s.touch.EndTouch()
			}
		}

		// Extra fast-forward frames; their audio is dropped.
		for i := int(s.speed.Load()); i > 1; i-- {
			s.core.RunFrame()
		}
		s.core.RunFrame()

		s.queueAudio(s.core.AudioSamples())
		s.frames.Publish(s.core.Framebuffer(), s.core.FramebufferStride(), s.core.ActiveHeight())

		if s.rewind != nil {
			if err := s.rewind.Capture(s.saver); err != nil {
				log.Printf("rewind capture failed: %v", err)
			}
		}

		if !nextAutoSave.IsZero() {
			if now := time.Now(); now.After(nextAutoSave) {
				// A write still in flight means the disk is behind;
				// skip this tick instead of stacking writers.
				if s.autoSaveBusy.CompareAndSwap(false, true) {
					if state, err := s.saver.Serialize(); err == nil {
						s.autoSaveWG.Add(1)
						go func() {
							defer s.autoSaveWG.Done()
							defer s.autoSaveBusy.Store(false)
							if err := s.saves.WriteResume(state); err != nil {
								log.Printf("auto-save failed: %v", err)
							}
						}()
					} else {
						s.autoSaveBusy.Store(false)
						log.Printf("auto-save serialize failed: %v", err)
					}
				}
				nextAutoSave = now.Add(s.opts.AutoSaveEvery)
			}
		}

		if s.opts.NoPacing {
			continue
		}

		sleep := frameTime - time.Since(lastFrame)
		if lvl := s.audio.Buffered(); lvl < adtMin {
			sleep = time.Duration(float64(sleep) * 0.9)
		} else if lvl > adtMax {
			sleep = time.Duration(float64(sleep) * 1.1)
		}
		if sleep > time.Millisecond {
			time.Sleep(sleep)
		}
		lastFrame = time.Now()
	}
}

// queueAudio converts one frame's samples to little-endian bytes and
// appends them to the ring. Runs on the loop goroutine only.
func (s *Session) queueAudio(samples []int16) {
	if len(samples) == 0 {
		return
	}
	needed := len(samples) * 2
	if cap(s.audioScratch) < needed {
		s.audioScratch = make([]byte, 0, needed)
	}
	s.audioScratch = s.audioScratch[:0]
	for _, sample := range samples {
		s.audioScratch = append(s.audioScratch, byte(sample), byte(sample>>8))
	}
	s.audio.Write(s.audioScratch)
}
