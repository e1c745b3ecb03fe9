package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testGrant struct{ conversationID, userID int64 }

func (g testGrant) ConversationID() int64 { return g.conversationID }
func (g testGrant) GrantedTo() int64      { return g.userID }

func TestRoomsJoinLeave(t *testing.T) {
	rooms := NewRooms()
	buyer := newFakeSession("s1", 1)
	supplier := newFakeSession("s2", 2)

	rooms.Join(testGrant{7, 1}, buyer)
	rooms.Join(testGrant{7, 2}, supplier)

	assert.True(t, rooms.IsMember(7, buyer))
	assert.Equal(t, 2, rooms.MemberCount(7))
	assert.ElementsMatch(t, []int64{1, 2}, rooms.MembersOf(7))

	rooms.Leave(7, buyer)
	assert.False(t, rooms.IsMember(7, buyer))
	assert.Equal(t, 1, rooms.MemberCount(7))
}

func TestRoomsDoubleJoinAndDoubleLeaveAreNoops(t *testing.T) {
	rooms := NewRooms()
	s := newFakeSession("s1", 1)

	rooms.Join(testGrant{7, 1}, s)
	rooms.Join(testGrant{7, 1}, s)
	assert.Equal(t, 1, rooms.MemberCount(7))

	rooms.Leave(7, s)
	rooms.Leave(7, s) // already left
	assert.Equal(t, 0, rooms.MemberCount(7))
}

func TestRoomsMultipleRoomsPerSession(t *testing.T) {
	rooms := NewRooms()
	s := newFakeSession("s1", 1)

	rooms.Join(testGrant{7, 1}, s)
	rooms.Join(testGrant{9, 1}, s)
	assert.True(t, rooms.IsMember(7, s))
	assert.True(t, rooms.IsMember(9, s), "joining a second room must not leave the first")

	left := rooms.LeaveAll(s)
	assert.ElementsMatch(t, []int64{7, 9}, left)
	assert.False(t, rooms.IsMember(7, s))
	assert.False(t, rooms.IsMember(9, s))
}

func TestRoomsMembersOfDeduplicatesMultiDevice(t *testing.T) {
	rooms := NewRooms()
	phone := newFakeSession("s1", 1)
	laptop := newFakeSession("s2", 1)

	rooms.Join(testGrant{7, 1}, phone)
	rooms.Join(testGrant{7, 1}, laptop)

	assert.Equal(t, []int64{1}, rooms.MembersOf(7))
	assert.Equal(t, 2, rooms.MemberCount(7))
}

func TestRoomsBroadcastExclusion(t *testing.T) {
	rooms := NewRooms()
	senderPhone := newFakeSession("s1", 1)
	senderLaptop := newFakeSession("s2", 1)
	peer := newFakeSession("s3", 2)
	rooms.Join(testGrant{7, 1}, senderPhone)
	rooms.Join(testGrant{7, 1}, senderLaptop)
	rooms.Join(testGrant{7, 2}, peer)

	// message fan-out includes every session, sender's devices too
	delivered := rooms.Broadcast(7, []byte("msg"), 0)
	assert.Equal(t, 3, delivered)

	// typing updates exclude the originator's sessions entirely
	delivered = rooms.Broadcast(7, []byte("typing"), 1)
	assert.Equal(t, 1, delivered)
	assert.Len(t, peer.received(), 2)
	assert.Len(t, senderPhone.received(), 1)
	assert.Len(t, senderLaptop.received(), 1)
}
