package realtime

import "sync"

// AccessGrant is the proof of a successful conversation authorization check.
// Only the access-guard use case can mint values satisfying this interface
// (its grant type has unexported fields), which makes joining a room without
// passing the guard structurally impossible.
type AccessGrant interface {
	ConversationID() int64
	GrantedTo() int64
}

// Rooms maps conversation ids to the sessions currently subscribed to their
// realtime events. Membership is ephemeral: it lives in process memory and is
// rebuilt from zero when clients re-join after a restart.
type Rooms struct {
	mu     sync.RWMutex
	rooms  map[int64]map[string]Session  // conversationID -> sessionID -> session
	joined map[string]map[int64]struct{} // sessionID -> set of conversationIDs
}

// NewRooms constructs an empty membership table.
func NewRooms() *Rooms {
	return &Rooms{
		rooms:  make(map[int64]map[string]Session),
		joined: make(map[string]map[int64]struct{}),
	}
}

// Join subscribes the session to the granted conversation. Joining a room the
// session already belongs to is a no-op; a session may be a member of many
// rooms at once.
func (r *Rooms) Join(grant AccessGrant, s Session) {
	conversationID := grant.ConversationID()

	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[conversationID]
	if room == nil {
		room = make(map[string]Session)
		r.rooms[conversationID] = room
	}
	room[s.ID()] = s

	set := r.joined[s.ID()]
	if set == nil {
		set = make(map[int64]struct{})
		r.joined[s.ID()] = set
	}
	set[conversationID] = struct{}{}
}

// Leave unsubscribes the session from the conversation. Leaving a room the
// session is not in is a no-op.
func (r *Rooms) Leave(conversationID int64, s Session) {
	r.mu.Lock()
	r.leaveLocked(conversationID, s.ID())
	r.mu.Unlock()
}

// LeaveAll removes the session from every room it joined and returns the
// conversation ids it was subscribed to, so the caller can cascade typing
// cleanup.
func (r *Rooms) LeaveAll(s Session) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.joined[s.ID()]
	ids := make([]int64, 0, len(set))
	for conversationID := range set {
		ids = append(ids, conversationID)
	}
	for _, conversationID := range ids {
		r.leaveLocked(conversationID, s.ID())
	}
	return ids
}

// IsMember reports whether the session currently belongs to the room.
func (r *Rooms) IsMember(conversationID int64, s Session) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[conversationID][s.ID()]
	return ok
}

// MembersOf returns the distinct user ids currently subscribed to the
// conversation (a multi-device user appears once).
func (r *Rooms) MembersOf(conversationID int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[int64]struct{})
	for _, s := range r.rooms[conversationID] {
		seen[s.UserID()] = struct{}{}
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

// MemberCount returns the number of sessions in the room.
func (r *Rooms) MemberCount(conversationID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[conversationID])
}

// Broadcast writes payload to every session in the room. excludeUserID, when
// non-zero, skips every session of that user; message fan-out passes zero so
// the sender's other devices stay consistent, while typing updates exclude
// the originator.
func (r *Rooms) Broadcast(conversationID int64, payload []byte, excludeUserID int64) int {
	r.mu.RLock()
	room := r.rooms[conversationID]
	sessions := make([]Session, 0, len(room))
	for _, s := range room {
		if excludeUserID != 0 && s.UserID() == excludeUserID {
			continue
		}
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

func (r *Rooms) leaveLocked(conversationID int64, sessionID string) {
	room := r.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(r.rooms, conversationID)
	}
	if set, ok := r.joined[sessionID]; ok {
		delete(set, conversationID)
		if len(set) == 0 {
			delete(r.joined, sessionID)
		}
	}
}
