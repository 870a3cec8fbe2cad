// Package game holds the authoritative session state: the room registry,
// the session index mapping player identities to room slots, and the reaper
// that reclaims abandoned rooms. A single mutex serializes every mutation,
// so concurrent connection handlers and the reaper never interleave into a
// torn update.
package game

import (
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/manimoeinpourofficial-hub/maze-race-server/maze"
	"github.com/samber/lo"
)

// Request-level failures, reported back to the requesting client.
var (
	ErrRoomExists    = errors.New("room already exists")
	ErrRoomNotFound  = errors.New("room not found")
	ErrWrongPassword = errors.New("wrong password")
	ErrRoomFull      = errors.New("room is full")
)

const (
	mazeWidth  = 41
	mazeHeight = 41

	defaultMaxPlayers = 2
	maxRoomSize       = 8
)

// Room-scoped server messages. Messages addressed to a single connection
// (welcome, roomCreated, error) live in the ws package; these are the ones
// the registry fans out itself.
type playerState struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

type stateMessage struct {
	Type    string        `json:"type"`
	Players []playerState `json:"players"`
	Winner  *string       `json:"winner"`
}

type startMessage struct {
	Type        string `json:"type"`
	Seed        int32  `json:"seed"`
	W           int    `json:"w"`
	H           int    `json:"h"`
	PlayerIndex int    `json:"playerIndex"`
}

type roomJoinedMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	Rejoin    bool   `json:"rejoin"`
	SlotIndex int    `json:"slotIndex"`
}

type roomClosedMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type session struct {
	roomID string
	slot   int
}

// Registry is the single source of truth for rooms and sessions. It is
// constructed once at startup and handed to every connection handler; all
// exported methods are safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	sessions map[string]session
	rng      *rand.Rand
	timeout  time.Duration
}

// NewRegistry creates an empty registry. timeout is the inactivity window
// after which the reaper force-closes a room.
func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		sessions: make(map[string]session),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		timeout:  timeout,
	}
}

// CreateRoom allocates a room under the client-chosen id, with a fresh maze
// seed and the creator occupying slot 0 on the start cell. Room ids are
// case-sensitive exact strings; an id already in use is always rejected.
// maxPlayers of 0 takes the default, anything else is clamped to [1,8].
func (r *Registry) CreateRoom(roomID, password string, maxPlayers int, creatorID string, conn Sender) (RoomSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; ok {
		return RoomSummary{}, ErrRoomExists
	}

	if maxPlayers == 0 {
		maxPlayers = defaultMaxPlayers
	}
	if maxPlayers < 1 {
		maxPlayers = 1
	}
	if maxPlayers > maxRoomSize {
		maxPlayers = maxRoomSize
	}

	room := &Room{
		ID:           roomID,
		Password:     password,
		MaxPlayers:   maxPlayers,
		Seed:         r.rng.Int31(),
		W:            mazeWidth,
		H:            mazeHeight,
		LastActivity: time.Now(),
	}
	room.Players = append(room.Players, &Player{
		ID:   creatorID,
		X:    maze.StartX,
		Y:    maze.StartY,
		conn: conn,
	})

	r.rooms[roomID] = room
	r.sessions[creatorID] = session{roomID: roomID, slot: 0}

	return room.summary(), nil
}

// JoinRoom adds playerID to a room, or reclaims an existing slot when the id
// already occupies one (a rejoin after a dropped connection). On success the
// registry itself delivers roomJoined and start to the caller -- and, for a
// new join, a start to every current participant with each receiver's own
// slot index -- followed by a state broadcast.
func (r *Registry) JoinRoom(roomID, password, playerID string, conn Sender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if room.Password != "" && room.Password != password {
		return ErrWrongPassword
	}

	// Rejoin: the id already holds a slot. Swap in the live connection and
	// restore the session entry; position and slot are untouched. This path
	// ignores capacity since the player is already counted.
	if slot := room.slotOf(playerID); slot >= 0 {
		room.Players[slot].conn = conn
		r.sessions[playerID] = session{roomID: roomID, slot: slot}
		room.LastActivity = time.Now()

		send(conn, roomJoinedMessage{Type: "roomJoined", RoomID: roomID, Rejoin: true, SlotIndex: slot})
		send(conn, startMessage{Type: "start", Seed: room.Seed, W: room.W, H: room.H, PlayerIndex: slot})
		r.broadcastState(room)
		return nil
	}

	if len(room.Players) >= room.MaxPlayers {
		return ErrRoomFull
	}

	slot := len(room.Players)
	room.Players = append(room.Players, &Player{
		ID: playerID,
		// offset start placement so players don't stack on the start cell
		X:    maze.StartX,
		Y:    maze.StartY + slot,
		conn: conn,
	})
	r.sessions[playerID] = session{roomID: roomID, slot: slot}
	room.LastActivity = time.Now()

	send(conn, roomJoinedMessage{Type: "roomJoined", RoomID: roomID, Rejoin: false, SlotIndex: slot})

	// membership changed: re-sync maze parameters and slot assignment for
	// everyone, not just the joiner
	for i, p := range room.Players {
		send(p.conn, startMessage{Type: "start", Seed: room.Seed, W: room.W, H: room.H, PlayerIndex: i})
	}
	r.broadcastState(room)
	return nil
}

// ListRooms returns a snapshot of every live room.
func (r *Registry) ListRooms() []RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.MapToSlice(r.rooms, func(_ string, room *Room) RoomSummary {
		return room.summary()
	})
}

// RecordMove stores a player's reported position and rebroadcasts room
// state. Positions are not validated against maze walls; the server trusts
// the client here. An unresolvable player is a silent no-op, which covers
// stray frames from a connection whose session was already torn down.
func (r *Registry) RecordMove(playerID string, x, y int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, p := r.resolveLocked(playerID)
	if p == nil {
		return
	}

	p.X, p.Y = x, y
	room.LastActivity = time.Now()
	r.broadcastState(room)
}

// RecordWin sets the room's winner. The first win is final: later wins in
// the same room are no-ops and trigger no broadcast.
func (r *Registry) RecordWin(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, p := r.resolveLocked(playerID)
	if p == nil {
		return
	}
	if room.Winner != "" {
		return
	}

	room.Winner = p.ID
	room.LastActivity = time.Now()
	r.broadcastState(room)
}

// Disconnect drops the live connection for playerID and removes its session
// entry, so late frames from the dead socket resolve to nothing. The room
// keeps the player's slot and position for a future rejoin. conn must be the
// disconnecting connection: a teardown arriving after a rejoin already
// replaced it is a no-op, otherwise the old socket's death would sever the
// reclaimed slot.
func (r *Registry) Disconnect(playerID string, conn Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[playerID]
	if !ok {
		return
	}

	room, ok := r.rooms[s.roomID]
	if !ok {
		delete(r.sessions, playerID)
		return
	}

	if s.slot < len(room.Players) {
		p := room.Players[s.slot]
		if p.conn != conn {
			return
		}
		p.conn = nil
	}
	delete(r.sessions, playerID)
}

func (r *Registry) resolveLocked(playerID string) (*Room, *Player) {
	s, ok := r.sessions[playerID]
	if !ok {
		return nil, nil
	}
	room, ok := r.rooms[s.roomID]
	if !ok || s.slot >= len(room.Players) {
		return nil, nil
	}
	return room, room.Players[s.slot]
}

// broadcastState serializes the room state once and hands it to every
// connected participant. A closed or slow receiver is skipped, never
// awaited.
func (r *Registry) broadcastState(room *Room) {
	var winner *string
	if room.Winner != "" {
		w := room.Winner
		winner = &w
	}

	msg := stateMessage{
		Type: "state",
		Players: lo.Map(room.Players, func(p *Player, _ int) playerState {
			return playerState{ID: p.ID, X: p.X, Y: p.Y}
		}),
		Winner: winner,
	}

	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshalling state for room %v: %v", room.ID, err)
		return
	}

	for _, p := range room.Players {
		if p.conn != nil {
			p.conn.TrySend(b)
		}
	}
}

func send(conn Sender, v any) {
	if conn == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("marshalling %T: %v", v, err)
		return
	}
	conn.TrySend(b)
}
