package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typingEvent struct {
	conversationID int64
	userID         int64
	typing         bool
}

type typingRecorder struct {
	mu     sync.Mutex
	events []typingEvent
}

func (r *typingRecorder) record(conversationID, userID int64, typing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, typingEvent{conversationID, userID, typing})
}

func (r *typingRecorder) snapshot() []typingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]typingEvent, len(r.events))
	copy(out, r.events)
	return out
}

func TestTypingStartBroadcastsOnce(t *testing.T) {
	rec := &typingRecorder{}
	tc := NewTypingCoordinator(time.Minute, rec.record)
	defer tc.Shutdown()

	tc.Start(7, 1)
	tc.Start(7, 1) // refresh, no duplicate broadcast
	tc.Start(7, 1)

	assert.Equal(t, []typingEvent{{7, 1, true}}, rec.snapshot())
	assert.True(t, tc.ActiveIn(7, 1))
}

func TestTypingExpiryBroadcastsExactlyOnce(t *testing.T) {
	rec := &typingRecorder{}
	tc := NewTypingCoordinator(30*time.Millisecond, rec.record)
	defer tc.Shutdown()

	tc.Start(7, 1)

	require.Eventually(t, func() bool {
		return !tc.ActiveIn(7, 1)
	}, time.Second, 5*time.Millisecond)

	// give a stale timer the chance to double-fire before asserting
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []typingEvent{{7, 1, true}, {7, 1, false}}, rec.snapshot())
}

func TestTypingRefreshDefersExpiry(t *testing.T) {
	rec := &typingRecorder{}
	tc := NewTypingCoordinator(50*time.Millisecond, rec.record)
	defer tc.Shutdown()

	tc.Start(7, 1)
	time.Sleep(30 * time.Millisecond)
	tc.Start(7, 1) // refresh before expiry
	time.Sleep(30 * time.Millisecond)

	assert.True(t, tc.ActiveIn(7, 1), "refresh must restart the countdown")
}

func TestTypingStopCancelsTimer(t *testing.T) {
	rec := &typingRecorder{}
	tc := NewTypingCoordinator(30*time.Millisecond, rec.record)
	defer tc.Shutdown()

	tc.Start(7, 1)
	tc.Stop(7, 1)
	time.Sleep(60 * time.Millisecond) // an uncancelled timer would fire here

	assert.Equal(t, []typingEvent{{7, 1, true}, {7, 1, false}}, rec.snapshot())
}

func TestTypingStopWithoutStartIsNoop(t *testing.T) {
	rec := &typingRecorder{}
	tc := NewTypingCoordinator(time.Minute, rec.record)
	defer tc.Shutdown()

	tc.Stop(7, 1)
	assert.Empty(t, rec.snapshot())
}

func TestTypingClearUserSpansConversations(t *testing.T) {
	rec := &typingRecorder{}
	tc := NewTypingCoordinator(time.Minute, rec.record)
	defer tc.Shutdown()

	tc.Start(7, 1)
	tc.Start(9, 1)
	tc.Start(7, 2)

	tc.ClearUser(1)

	assert.False(t, tc.ActiveIn(7, 1))
	assert.False(t, tc.ActiveIn(9, 1))
	assert.True(t, tc.ActiveIn(7, 2), "other users' state must survive")

	var stops []typingEvent
	for _, e := range rec.snapshot() {
		if !e.typing {
			stops = append(stops, e)
		}
	}
	assert.ElementsMatch(t, []typingEvent{{7, 1, false}, {9, 1, false}}, stops)
}

func TestTypingBroadcastOrderMatchesStateOrder(t *testing.T) {
	rec := &typingRecorder{}
	tc := NewTypingCoordinator(time.Minute, rec.record)
	defer tc.Shutdown()

	// Hammer the same (conversation, user) pair from several goroutines, as
	// multiple devices of one user racing start against stop would.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if (g+i)%2 == 0 {
					tc.Start(7, 1)
				} else {
					tc.Stop(7, 1)
				}
			}
		}(g)
	}
	wg.Wait()

	events := rec.snapshot()
	require.NotEmpty(t, events)
	for i, e := range events {
		assert.Equal(t, i%2 == 0, e.typing, "transitions must strictly alternate on the wire")
	}
	last := events[len(events)-1]
	assert.Equal(t, tc.ActiveIn(7, 1), last.typing,
		"the last update peers saw must match the coordinator's final state")
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	km := NewKeyedMutex()

	var mu sync.Mutex
	order := make([]int, 0, 4)

	unlock := km.Lock(7)
	done := make(chan struct{})
	go func() {
		u := km.Lock(7) // blocks until the first holder releases
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		u()
		close(done)
	}()

	// a different key is not serialized behind key 7
	u9 := km.Lock(9)
	u9()

	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	unlock()
	<-done

	assert.Equal(t, []int{1, 2}, order)
}
