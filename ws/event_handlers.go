package ws

import (
	"encoding/json"
	"errors"

	"github.com/manimoeinpourofficial-hub/maze-race-server/game"
	"github.com/manimoeinpourofficial-hub/maze-race-server/util"
)

// reasonFor maps registry failures to the wire-level error reasons.
func reasonFor(err error) (string, bool) {
	switch {
	case errors.Is(err, game.ErrRoomExists):
		return ReasonRoomExists, true
	case errors.Is(err, game.ErrRoomNotFound):
		return ReasonRoomNotFound, true
	case errors.Is(err, game.ErrWrongPassword):
		return ReasonWrongPassword, true
	case errors.Is(err, game.ErrRoomFull):
		return ReasonRoomFull, true
	}
	return "", false
}

// sendRequestError reports a request-level failure to the caller. Unmapped
// errors bubble up to the route logger instead.
func sendRequestError(c *Client, err error) error {
	reason, ok := reasonFor(err)
	if !ok {
		return err
	}
	c.Send(NewErrorMessage(reason))
	return nil
}

func CreateRoomHandler(raw []byte, c *Client) error {
	var payload CreateRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if err := util.Validate.Struct(payload); err != nil {
		return err
	}

	summary, err := c.manager.registry.CreateRoom(payload.RoomID, payload.Password, payload.MaxPlayers, c.PlayerID(), c)
	if err != nil {
		return sendRequestError(c, err)
	}

	c.Send(RoomCreatedMessage{
		Type:        EventRoomCreated,
		RoomID:      summary.RoomID,
		MaxPlayers:  summary.MaxPlayers,
		HasPassword: summary.HasPassword,
	})

	c.manager.BroadcastRoomList()
	return nil
}

func JoinRoomHandler(raw []byte, c *Client) error {
	var payload JoinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if err := util.Validate.Struct(payload); err != nil {
		return err
	}

	playerID := payload.PlayerID
	if playerID == "" {
		playerID = c.PlayerID()
	}

	if err := c.manager.registry.JoinRoom(payload.RoomID, payload.Password, playerID, c); err != nil {
		return sendRequestError(c, err)
	}

	// the connection now speaks as the joined (possibly reclaimed) identity
	c.setPlayerID(playerID)
	return nil
}

func MoveHandler(raw []byte, c *Client) error {
	var payload MovePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	c.manager.registry.RecordMove(c.PlayerID(), payload.Payload.X, payload.Payload.Y)
	return nil
}

func WinHandler(_ []byte, c *Client) error {
	c.manager.registry.RecordWin(c.PlayerID())
	return nil
}

func GetRoomsHandler(_ []byte, c *Client) error {
	c.Send(RoomListMessage{Type: EventRoomList, Rooms: c.manager.registry.ListRooms()})
	return nil
}
