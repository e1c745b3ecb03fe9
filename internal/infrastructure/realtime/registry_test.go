package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession implements Session for tests and records delivered payloads.
type fakeSession struct {
	id     string
	userID int64

	mu       sync.Mutex
	payloads [][]byte
}

func newFakeSession(id string, userID int64) *fakeSession {
	return &fakeSession{id: id, userID: userID}
}

func (f *fakeSession) ID() string    { return f.id }
func (f *fakeSession) UserID() int64 { return f.userID }

func (f *fakeSession) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeSession) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.payloads))
	copy(out, f.payloads)
	return out
}

func TestRegistryMultiDevice(t *testing.T) {
	reg := NewRegistry()
	phone := newFakeSession("s1", 1)
	laptop := newFakeSession("s2", 1)

	assert.False(t, reg.IsOnline(1))

	reg.Register(phone)
	reg.Register(laptop)
	assert.True(t, reg.IsOnline(1))
	assert.Len(t, reg.ConnectionsOf(1), 2)

	last := reg.Unregister(phone)
	assert.False(t, last, "user still has a live session")
	assert.True(t, reg.IsOnline(1))

	last = reg.Unregister(laptop)
	assert.True(t, last, "that was the user's last session")
	assert.False(t, reg.IsOnline(1))
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	s := newFakeSession("s1", 1)

	reg.Register(s)
	assert.True(t, reg.Unregister(s))
	assert.False(t, reg.Unregister(s), "second unregister is a no-op")
	assert.False(t, reg.IsOnline(1))
}

func TestRegistryRegisterTwiceIsNoop(t *testing.T) {
	reg := NewRegistry()
	s := newFakeSession("s1", 1)

	reg.Register(s)
	reg.Register(s)
	assert.Len(t, reg.ConnectionsOf(1), 1)
}

func TestRegistrySendToUserHitsAllDevices(t *testing.T) {
	reg := NewRegistry()
	phone := newFakeSession("s1", 1)
	laptop := newFakeSession("s2", 1)
	other := newFakeSession("s3", 2)
	reg.Register(phone)
	reg.Register(laptop)
	reg.Register(other)

	delivered := reg.SendToUser(1, []byte("hi"))
	assert.Equal(t, 2, delivered)
	assert.Len(t, phone.received(), 1)
	assert.Len(t, laptop.received(), 1)
	assert.Empty(t, other.received())
}

func TestRegistryIsolatedInstances(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()
	a.Register(newFakeSession("s1", 1))

	require.True(t, a.IsOnline(1))
	assert.False(t, b.IsOnline(1), "instances must not share state")
}
