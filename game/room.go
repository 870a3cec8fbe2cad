package game

import (
	"time"
)

// Sender is the outbound side of a player's connection. TrySend must never
// block: it reports false when the frame could not be queued (closed socket
// or a full buffer), and the caller moves on to the next participant.
type Sender interface {
	TrySend(msg []byte) bool
	Close()
}

// Player is a slot in a room's roster. conn is nil while the player is
// disconnected; the slot, id, and last-reported position survive until the
// room itself is removed, so the player can rejoin with the same id.
type Player struct {
	ID   string
	X    int
	Y    int
	conn Sender
}

// Connected reports whether the player currently has a live connection.
func (p *Player) Connected() bool {
	return p.conn != nil
}

// Room is a single game session. The slice index in Players is the player's
// slot and never changes for the lifetime of the membership.
type Room struct {
	ID           string
	Password     string // empty means open room
	MaxPlayers   int
	Players      []*Player
	Seed         int32
	W            int
	H            int
	Winner       string // empty until the first win, then immutable
	LastActivity time.Time
}

// slotOf returns the slot index held by playerID, or -1.
func (r *Room) slotOf(playerID string) int {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// hasConnected reports whether any player in the room holds a live
// connection.
func (r *Room) hasConnected() bool {
	for _, p := range r.Players {
		if p.conn != nil {
			return true
		}
	}
	return false
}

// RoomSummary is the lobby-listing view of a room.
type RoomSummary struct {
	RoomID      string `json:"roomId"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	HasPassword bool   `json:"hasPassword"`
}

func (r *Room) summary() RoomSummary {
	return RoomSummary{
		RoomID:      r.ID,
		PlayerCount: len(r.Players),
		MaxPlayers:  r.MaxPlayers,
		HasPassword: r.Password != "",
	}
}
