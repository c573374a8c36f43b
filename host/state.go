package host

// State is the lifecycle state of an emulation session.
type State int

const (
	// Uninitialized is the zero value; no core exists yet.
	Uninitialized State = iota
	// Running means the emulation loop is actively stepping the core.
	Running
	// Paused means the loop is parked; the core and buffers stay valid.
	Paused
	// Stopping means a stop was requested and the loop is winding down.
	Stopping
	// Terminated is terminal; the core is destroyed and the session inert.
	Terminated
)

// String returns the state's display name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	case Stopping:
		return "Stopping"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}
