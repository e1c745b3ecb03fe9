package realtime

import (
	"sync"
	"time"
)

// DefaultTypingTTL is how long a typing indicator survives without a refresh.
const DefaultTypingTTL = 3 * time.Second

// TypingBroadcast is invoked whenever a user's typing state actually changes
// for a conversation. Implementations fan the update out to the other room
// members; the originator is never echoed.
//
// The coordinator calls it while holding its state lock, so updates reach the
// relay in exactly the order the transitions happened. Implementations must
// not block and must not call back into the coordinator.
type TypingBroadcast func(conversationID, userID int64, typing bool)

type typingKey struct {
	conversationID int64
	userID         int64
}

type typingEntry struct {
	timer *time.Timer
	// generation guards against a timer firing after the entry was already
	// replaced or cleared; a stale fire is a harmless no-op.
	gen uint64
}

// TypingCoordinator holds the ephemeral per-(conversation, user) composing
// state. Each active entry owns one cancellable timer; there is no sweep
// loop, so idle conversations cost nothing.
type TypingCoordinator struct {
	mu        sync.Mutex
	entries   map[typingKey]*typingEntry
	ttl       time.Duration
	broadcast TypingBroadcast
}

// NewTypingCoordinator constructs a coordinator with the given expiry window.
// A non-positive ttl falls back to DefaultTypingTTL.
func NewTypingCoordinator(ttl time.Duration, broadcast TypingBroadcast) *TypingCoordinator {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingCoordinator{
		entries:   make(map[typingKey]*typingEntry),
		ttl:       ttl,
		broadcast: broadcast,
	}
}

// Start records that the user is composing in the conversation. The first
// signal broadcasts typing=true; subsequent signals only refresh the expiry
// countdown and stay silent.
func (t *TypingCoordinator) Start(conversationID, userID int64) {
	key := typingKey{conversationID, userID}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		e.gen++
		e.timer.Stop()
		e.timer = t.expireTimer(key, e.gen)
		return
	}
	e := &typingEntry{}
	e.timer = t.expireTimer(key, e.gen)
	t.entries[key] = e
	// Broadcast before releasing the lock: a concurrent Stop on another
	// device must not get its typing=false onto the wire first.
	t.broadcast(conversationID, userID, true)
}

// Stop clears the typing state, if any, and broadcasts typing=false exactly
// once. Stopping an idle pair is a no-op. Called for explicit stop signals,
// for the message-send side effect, and when the user leaves the room.
func (t *TypingCoordinator) Stop(conversationID, userID int64) {
	key := typingKey{conversationID, userID}

	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(t.entries, key)
	t.broadcast(conversationID, userID, false)
}

// ClearUser drops every typing entry the user holds, across all
// conversations. Invoked when the user's last connection disconnects.
func (t *TypingCoordinator) ClearUser(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, e := range t.entries {
		if key.userID != userID {
			continue
		}
		e.timer.Stop()
		delete(t.entries, key)
		t.broadcast(key.conversationID, userID, false)
	}
}

// ActiveIn reports whether the user is currently marked as typing in the
// conversation.
func (t *TypingCoordinator) ActiveIn(conversationID, userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[typingKey{conversationID, userID}]
	return ok
}

// Shutdown cancels all pending timers without broadcasting.
func (t *TypingCoordinator) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, e := range t.entries {
		e.timer.Stop()
		delete(t.entries, key)
	}
}

func (t *TypingCoordinator) expireTimer(key typingKey, gen uint64) *time.Timer {
	return time.AfterFunc(t.ttl, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		e, ok := t.entries[key]
		if !ok || e.gen != gen {
			// cleared or refreshed while the timer was in flight
			return
		}
		delete(t.entries, key)
		t.broadcast(key.conversationID, key.userID, false)
	})
}
