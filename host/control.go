package host

type cmdKind int

const (
	cmdPause cmdKind = iota
	cmdResume
	cmdStop
	cmdReset
	cmdApply
)

// command is a control signal submitted by the consumer side and
// executed by the emulation loop at a frame boundary. All lifecycle
// transitions and every save/load travel through this one path, which
// bounds their latency to at most one frame step and guarantees they
// never straddle a partial RunFrame.
type command struct {
	kind cmdKind
	fn   func() error // cmdApply only; runs with exclusive core access
	done chan error
}

// submit queues a command for the emulation loop and waits for it to be
// executed at the next frame boundary. It fails with
// ErrSessionTerminated once the loop has exited.
func (s *Session) submit(kind cmdKind, fn func() error) error {
	cmd := command{kind: kind, fn: fn, done: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrSessionTerminated
	}
	select {
	case err := <-cmd.done:
		return err
	case <-s.done:
		// The loop exited while we waited; the command may still have
		// been executed just before.
		select {
		case err := <-cmd.done:
			return err
		default:
			return ErrSessionTerminated
		}
	}
}

// processControl drains pending control commands at a frame boundary.
// While the session is paused the loop parks here, which keeps the core
// untouched but still lets reset/save/load commands execute. Returns
// false when the loop should exit.
func (s *Session) processControl() bool {
	for {
		if s.State() == Paused {
			if !s.execute(<-s.cmds) {
				return false
			}
			continue
		}
		select {
		case cmd := <-s.cmds:
			if !s.execute(cmd) {
				return false
			}
		default:
			return true
		}
	}
}

// execute runs one control command on the loop goroutine. Returns false
// on stop.
func (s *Session) execute(cmd command) bool {
	switch cmd.kind {
	case cmdPause:
		s.setState(Paused)
		cmd.done <- nil
	case cmdResume:
		s.setState(Running)
		cmd.done <- nil
	case cmdStop:
		s.setState(Stopping)
		cmd.done <- nil
		return false
	case cmdReset:
		s.core.Reset()
		s.audio.Clear()
		if s.rewind != nil {
			s.rewind.Reset()
		}
		cmd.done <- nil
	case cmdApply:
		cmd.done <- cmd.fn()
	}
	return true
}
