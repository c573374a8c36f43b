package host

import "sync"

// SessionID identifies a registered session.
type SessionID int

// Registry is the only process-wide state in the package: a map from
// session identifiers to live sessions, so scattered UI call sites can
// reach a session without passing the pointer everywhere. Sessions are
// registered explicitly at startup and removed at session end.
type Registry struct {
	mu       sync.Mutex
	next     SessionID
	sessions map[SessionID]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[SessionID]*Session)}
}

// Add registers a session and returns its identifier.
func (r *Registry) Add(s *Session) SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.sessions[r.next] = s
	return r.next
}

// Get returns the session for an identifier, or nil.
func (r *Registry) Get(id SessionID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Remove unregisters a session. The session itself is not stopped.
func (r *Registry) Remove(id SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// SetButton forwards a button event to a registered session.
// Fire-and-forget; unknown identifiers are ignored.
func (r *Registry) SetButton(id SessionID, player, button int, pressed bool) {
	if s := r.Get(id); s != nil {
		s.SetButton(player, button, pressed)
	}
}

// SetTouch forwards a touch event to a registered session.
func (r *Registry) SetTouch(id SessionID, x, y int, pressed bool) {
	if s := r.Get(id); s != nil {
		s.SetTouch(x, y, pressed)
	}
}

var defaultRegistry = NewRegistry()

// Register adds a session to the default registry.
func Register(s *Session) SessionID { return defaultRegistry.Add(s) }

// Lookup returns a session from the default registry, or nil.
func Lookup(id SessionID) *Session { return defaultRegistry.Get(id) }

// Unregister removes a session from the default registry.
func Unregister(id SessionID) { defaultRegistry.Remove(id) }
