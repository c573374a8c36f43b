package host

import "errors"

var (
	// ErrRomLoad indicates the ROM bytes could not be loaded or the core
	// rejected them. The session never reaches Running.
	ErrRomLoad = errors.New("rom load failed")

	// ErrSessionTerminated is returned for any operation against a
	// session that has already been stopped.
	ErrSessionTerminated = errors.New("session is terminated")

	// ErrInvalidSessionState is returned when an operation is not valid
	// in the session's current lifecycle state.
	ErrInvalidSessionState = errors.New("invalid session state")

	// ErrNoSaveSupport is returned for save/load requests against a core
	// that does not implement save states.
	ErrNoSaveSupport = errors.New("core does not support save states")

	// ErrNoSaveDir is returned for slot operations on a session started
	// without a save directory.
	ErrNoSaveDir = errors.New("session has no save directory configured")
)
