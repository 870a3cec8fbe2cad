package ws

import (
	"github.com/manimoeinpourofficial-hub/maze-race-server/game"
)

// Client -> server message types. The handler table is built over exactly
// this set; anything else on the wire is ignored.
const (
	EventCreateRoom = "createRoom"
	EventJoinRoom   = "joinRoom"
	EventMove       = "move"
	EventWin        = "win"
	EventGetRooms   = "getRooms"
)

// Server -> client message types emitted by this package. Room-scoped
// messages (roomJoined, start, state, roomClosed) are emitted by the
// registry.
const (
	EventWelcome     = "welcome"
	EventRoomList    = "roomList"
	EventRoomCreated = "roomCreated"
	EventError       = "error"
)

// Machine-readable reasons carried by error envelopes.
const (
	ReasonRoomExists    = "room_already_exists"
	ReasonRoomNotFound  = "room_not_found"
	ReasonWrongPassword = "wrong_password"
	ReasonRoomFull      = "room_full"
)

// Envelope is the first-pass decode of an inbound frame: just the
// discriminator. Each handler re-decodes the raw frame into its own payload
// struct, since the fields sit at the top level of the object.
type Envelope struct {
	Type string `json:"type"`
}

// EventHandler processes one inbound frame for a client.
type EventHandler func(raw []byte, c *Client) error

type CreateRoomPayload struct {
	RoomID     string `json:"roomId" validate:"required"`
	Password   string `json:"password"`
	// clamped to the allowed range by the registry; 0 means default
	MaxPlayers int    `json:"maxPlayers"`
}

type JoinRoomPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	Password string `json:"password"`
	// optional rejoin identity; defaults to the connection's own id
	PlayerID string `json:"playerId"`
}

// MovePayload carries coordinates nested under "payload", matching the
// client's move frames. All other inbound messages are flat.
type MovePayload struct {
	Payload struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"payload"`
}

type WelcomeMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type RoomListMessage struct {
	Type  string             `json:"type"`
	Rooms []game.RoomSummary `json:"rooms"`
}

type RoomCreatedMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId"`
	MaxPlayers  int    `json:"maxPlayers"`
	HasPassword bool   `json:"hasPassword"`
}

type ErrorMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func NewErrorMessage(reason string) ErrorMessage {
	return ErrorMessage{Type: EventError, Reason: reason}
}
