package realtime

import "sync"

// Registry tracks live sessions per authenticated user. A user may hold
// multiple simultaneous sessions (multi-device); the user counts as online
// while at least one session remains.
//
// The registry is owned by the server instance and injected where needed, so
// separate test instances never share state. It guards only its own maps;
// room membership and typing state carry their own locks.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session           // sessionID -> session
	byUser   map[int64]map[string]Session // userID -> sessionID -> session
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]Session),
		byUser:   make(map[int64]map[string]Session),
	}
}

// Register tracks a session for its user. Registration happens only after the
// handshake credential was verified; unauthenticated attempts never reach
// this point. Registering the same session twice is a no-op.
func (r *Registry) Register(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID()]; ok {
		return
	}
	r.sessions[s.ID()] = s
	set := r.byUser[s.UserID()]
	if set == nil {
		set = make(map[string]Session)
		r.byUser[s.UserID()] = set
	}
	set[s.ID()] = s
}

// Unregister forgets a session. Idempotent. The boolean reports whether this
// was the user's last session, which is the caller's cue to cascade typing
// cleanup for that user.
func (r *Registry) Unregister(s Session) (lastOfUser bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID()]; !ok {
		return false
	}
	delete(r.sessions, s.ID())
	set := r.byUser[s.UserID()]
	delete(set, s.ID())
	if len(set) == 0 {
		delete(r.byUser, s.UserID())
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// ConnectionsOf returns the user's live sessions.
func (r *Registry) ConnectionsOf(userID int64) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byUser[userID]
	out := make([]Session, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

// SendToUser delivers payload to every session of the user. Returns the number
// of sessions written to.
func (r *Registry) SendToUser(userID int64, payload []byte) int {
	r.mu.RLock()
	set := r.byUser[userID]
	sessions := make([]Session, 0, len(set))
	for _, s := range set {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, s := range sessions {
		if err := s.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Close drops all tracked sessions and closes the underlying connections of
// those that support it.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]Session)
	r.byUser = make(map[int64]map[string]Session)
	r.mu.Unlock()

	for _, s := range sessions {
		if c, ok := s.(*Connection); ok {
			c.Close(1001, "server shutdown")
		}
	}
}
