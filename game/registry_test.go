package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSender records every frame pushed to it.
type fakeSender struct {
	msgs   [][]byte
	closed bool
}

func (f *fakeSender) TrySend(msg []byte) bool {
	if f.closed {
		return false
	}
	f.msgs = append(f.msgs, msg)
	return true
}

func (f *fakeSender) Close() {
	f.closed = true
}

// ofType decodes every recorded frame with the given type tag.
func (f *fakeSender) ofType(t *testing.T, typ string) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, raw := range f.msgs {
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) last(t *testing.T, typ string) map[string]any {
	t.Helper()

	msgs := f.ofType(t, typ)
	require.NotEmpty(t, msgs, "no %q message recorded", typ)
	return msgs[len(msgs)-1]
}

func newTestRegistry() *Registry {
	return NewRegistry(5 * time.Minute)
}

func TestCreateRoom(t *testing.T) {
	r := newTestRegistry()

	summary, err := r.CreateRoom("abc12", "", 2, "alice", &fakeSender{})
	require.NoError(t, err)
	require.Equal(t, "abc12", summary.RoomID)
	require.Equal(t, 1, summary.PlayerCount)
	require.Equal(t, 2, summary.MaxPlayers)
	require.False(t, summary.HasPassword)

	room := r.rooms["abc12"]
	require.Len(t, room.Players, 1)
	require.Equal(t, "alice", room.Players[0].ID)
	require.Equal(t, 1, room.Players[0].X)
	require.Equal(t, 1, room.Players[0].Y)
	require.Equal(t, 41, room.W)
	require.Equal(t, 41, room.H)
}

func TestCreateRoomDuplicateID(t *testing.T) {
	r := newTestRegistry()

	_, err := r.CreateRoom("dup", "", 2, "alice", &fakeSender{})
	require.NoError(t, err)

	_, err = r.CreateRoom("dup", "", 2, "bob", &fakeSender{})
	require.ErrorIs(t, err, ErrRoomExists)
}

func TestCreateRoomClampsMaxPlayers(t *testing.T) {
	r := newTestRegistry()

	cases := []struct {
		name string
		in   int
		want int
	}{
		{"default", 0, 2},
		{"below minimum", -3, 1},
		{"above maximum", 99, 8},
		{"in range", 4, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary, err := r.CreateRoom(tc.name, "", tc.in, "p-"+tc.name, &fakeSender{})
			require.NoError(t, err)
			require.Equal(t, tc.want, summary.MaxPlayers)
		})
	}
}

func TestJoinRoomErrors(t *testing.T) {
	r := newTestRegistry()

	_, err := r.CreateRoom("locked", "s3cret", 2, "alice", &fakeSender{})
	require.NoError(t, err)

	require.ErrorIs(t, r.JoinRoom("nope", "", "bob", &fakeSender{}), ErrRoomNotFound)
	require.ErrorIs(t, r.JoinRoom("locked", "wrong", "bob", &fakeSender{}), ErrWrongPassword)

	require.NoError(t, r.JoinRoom("locked", "s3cret", "bob", &fakeSender{}))
	require.ErrorIs(t, r.JoinRoom("locked", "s3cret", "carol", &fakeSender{}), ErrRoomFull)
}

func TestJoinRoomAssignsSlotsAndBroadcastsStart(t *testing.T) {
	r := newTestRegistry()
	alice := &fakeSender{}
	bob := &fakeSender{}

	_, err := r.CreateRoom("abc12", "", 2, "alice", alice)
	require.NoError(t, err)
	require.NoError(t, r.JoinRoom("abc12", "", "bob", bob))

	joined := bob.last(t, "roomJoined")
	require.Equal(t, false, joined["rejoin"])
	require.Equal(t, float64(1), joined["slotIndex"])

	aliceStart := alice.last(t, "start")
	bobStart := bob.last(t, "start")
	require.Equal(t, float64(0), aliceStart["playerIndex"])
	require.Equal(t, float64(1), bobStart["playerIndex"])
	require.Equal(t, aliceStart["seed"], bobStart["seed"])
	require.Equal(t, float64(41), bobStart["w"])
	require.Equal(t, float64(41), bobStart["h"])

	// offset placement below the start cell
	require.Equal(t, 1, r.rooms["abc12"].Players[1].X)
	require.Equal(t, 2, r.rooms["abc12"].Players[1].Y)
}

func TestRejoinRestoresSlot(t *testing.T) {
	r := newTestRegistry()
	alice := &fakeSender{}
	bob := &fakeSender{}

	_, err := r.CreateRoom("abc12", "", 2, "alice", alice)
	require.NoError(t, err)
	require.NoError(t, r.JoinRoom("abc12", "", "bob", bob))

	r.RecordMove("bob", 5, 7)
	r.Disconnect("bob", bob)
	require.False(t, r.rooms["abc12"].Players[1].Connected())

	// moves from the dead session are dropped
	r.RecordMove("bob", 9, 9)
	require.Equal(t, 5, r.rooms["abc12"].Players[1].X)

	bob2 := &fakeSender{}
	require.NoError(t, r.JoinRoom("abc12", "", "bob", bob2))

	room := r.rooms["abc12"]
	require.Len(t, room.Players, 2, "rejoin must not grow the roster")
	require.True(t, room.Players[1].Connected())

	joined := bob2.last(t, "roomJoined")
	require.Equal(t, true, joined["rejoin"])
	require.Equal(t, float64(1), joined["slotIndex"])

	start := bob2.last(t, "start")
	require.Equal(t, float64(1), start["playerIndex"])

	// position survived the disconnect
	state := bob2.last(t, "state")
	players := state["players"].([]any)
	second := players[1].(map[string]any)
	require.Equal(t, "bob", second["id"])
	require.Equal(t, float64(5), second["x"])
	require.Equal(t, float64(7), second["y"])
}

func TestRejoinBypassesFullRoom(t *testing.T) {
	r := newTestRegistry()
	bob := &fakeSender{}

	_, err := r.CreateRoom("abc12", "", 2, "alice", &fakeSender{})
	require.NoError(t, err)
	require.NoError(t, r.JoinRoom("abc12", "", "bob", bob))

	r.Disconnect("bob", bob)
	require.NoError(t, r.JoinRoom("abc12", "", "bob", &fakeSender{}))
}

func TestStaleDisconnectAfterRejoinIsNoop(t *testing.T) {
	r := newTestRegistry()
	bob := &fakeSender{}

	_, err := r.CreateRoom("abc12", "", 2, "alice", &fakeSender{})
	require.NoError(t, err)
	require.NoError(t, r.JoinRoom("abc12", "", "bob", bob))

	// bob rejoins on a new socket before the old one's teardown lands
	bob2 := &fakeSender{}
	require.NoError(t, r.JoinRoom("abc12", "", "bob", bob2))
	r.Disconnect("bob", bob)

	require.True(t, r.rooms["abc12"].Players[1].Connected())

	// the session still resolves for the new connection
	r.RecordMove("bob", 4, 4)
	require.Equal(t, 4, r.rooms["abc12"].Players[1].X)
}

func TestRecordMoveBroadcastsToAll(t *testing.T) {
	r := newTestRegistry()
	alice := &fakeSender{}
	bob := &fakeSender{}

	_, err := r.CreateRoom("abc12", "", 2, "alice", alice)
	require.NoError(t, err)
	require.NoError(t, r.JoinRoom("abc12", "", "bob", bob))

	r.RecordMove("alice", 2, 1)

	for _, s := range []*fakeSender{alice, bob} {
		state := s.last(t, "state")
		require.Nil(t, state["winner"])

		players := state["players"].([]any)
		require.Len(t, players, 2)
		first := players[0].(map[string]any)
		require.Equal(t, "alice", first["id"])
		require.Equal(t, float64(2), first["x"])
		require.Equal(t, float64(1), first["y"])
	}
}

func TestRecordMoveUnknownPlayerIsNoop(t *testing.T) {
	r := newTestRegistry()

	r.RecordMove("ghost", 1, 1)
	r.RecordWin("ghost")
}

func TestRecordWinFirstWriterWins(t *testing.T) {
	r := newTestRegistry()
	alice := &fakeSender{}
	bob := &fakeSender{}

	_, err := r.CreateRoom("abc12", "", 2, "alice", alice)
	require.NoError(t, err)
	require.NoError(t, r.JoinRoom("abc12", "", "bob", bob))

	r.RecordWin("alice")
	r.RecordWin("bob")

	require.Equal(t, "alice", r.rooms["abc12"].Winner)

	state := bob.last(t, "state")
	require.Equal(t, "alice", state["winner"])

	// the losing win triggered no extra broadcast
	require.Len(t, bob.ofType(t, "state"), 2) // join + first win
}

func TestListRooms(t *testing.T) {
	r := newTestRegistry()

	_, err := r.CreateRoom("open1", "", 2, "alice", &fakeSender{})
	require.NoError(t, err)
	_, err = r.CreateRoom("gated", "pw", 4, "bob", &fakeSender{})
	require.NoError(t, err)

	rooms := summariesByID(r.ListRooms())
	require.Len(t, rooms, 2)
	require.Equal(t, RoomSummary{RoomID: "open1", PlayerCount: 1, MaxPlayers: 2}, rooms["open1"])
	require.Equal(t, RoomSummary{RoomID: "gated", PlayerCount: 1, MaxPlayers: 4, HasPassword: true}, rooms["gated"])
}

func summariesByID(summaries []RoomSummary) map[string]RoomSummary {
	out := make(map[string]RoomSummary, len(summaries))
	for _, s := range summaries {
		out[s.RoomID] = s
	}
	return out
}

func TestSeedsDifferAcrossRooms(t *testing.T) {
	r := newTestRegistry()

	_, err := r.CreateRoom("a", "", 2, "p1", &fakeSender{})
	require.NoError(t, err)
	_, err = r.CreateRoom("b", "", 2, "p2", &fakeSender{})
	require.NoError(t, err)

	require.NotEqual(t, r.rooms["a"].Seed, r.rooms["b"].Seed)
}
