// Package ws is the connection layer: it upgrades HTTP requests, assigns
// each socket an ephemeral identity, and dispatches decoded envelopes to the
// game registry.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/manimoeinpourofficial-hub/maze-race-server/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the game client is served from a different origin than the server
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Manager struct {
	registry *game.Registry
	clients  map[string]*Client
	handlers map[string]EventHandler
	sync.RWMutex
}

func NewManager(registry *game.Registry) *Manager {
	m := &Manager{
		registry: registry,
		clients:  make(map[string]*Client),
		handlers: make(map[string]EventHandler),
	}

	m.setupEventHandlers()
	return m
}

// setupEventHandlers registers the closed set of inbound message types.
func (m *Manager) setupEventHandlers() {
	m.handlers[EventCreateRoom] = CreateRoomHandler
	m.handlers[EventJoinRoom] = JoinRoomHandler
	m.handlers[EventMove] = MoveHandler
	m.handlers[EventWin] = WinHandler
	m.handlers[EventGetRooms] = GetRoomsHandler
}

// routeEvent dispatches one inbound frame. Unrecognized types are ignored.
func (m *Manager) routeEvent(env Envelope, raw []byte, c *Client) error {
	handler, ok := m.handlers[env.Type]
	if !ok {
		return nil
	}
	return handler(raw, c)
}

func (m *Manager) addClient(client *Client) {
	m.Lock()
	defer m.Unlock()

	m.clients[client.socketID] = client
}

// removeClient tears down one connection. The registry keeps the player's
// room slot for a later rejoin; only the live channel and session entry go.
func (m *Manager) removeClient(client *Client) {
	m.registry.Disconnect(client.PlayerID(), client)

	m.Lock()
	defer m.Unlock()

	if _, ok := m.clients[client.socketID]; ok {
		client.Close()
		delete(m.clients, client.socketID)
	}
}

// BroadcastRoomList pushes the current lobby listing to every connected
// socket, room member or not, so idle clients see new rooms appear.
func (m *Manager) BroadcastRoomList() {
	msg := RoomListMessage{Type: EventRoomList, Rooms: m.registry.ListRooms()}

	b, err := json.Marshal(msg)
	if err != nil {
		log.Println("marshalling room list:", err)
		return
	}

	m.RLock()
	defer m.RUnlock()

	for _, client := range m.clients {
		client.TrySend(b)
	}
}

// ServeWS upgrades the request, assigns a fresh identity, and greets the
// client with welcome + the current room listing before starting the pumps.
func (m *Manager) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("error upgrading to websocket connection: %v", err)
		return
	}

	client := NewClient(conn, m)
	m.addClient(client)

	client.Send(WelcomeMessage{Type: EventWelcome, ID: client.PlayerID()})
	client.Send(RoomListMessage{Type: EventRoomList, Rooms: m.registry.ListRooms()})

	go client.readMessages()
	go client.writeMessages()
}
