package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	pongWait     = 10 * time.Second
	pingInterval = (pongWait * 9) / 10

	// time allowed for a single write to the peer
	writeWait = 10 * time.Second
)

const (
	maxMessageSize = 512
	egressBuffer   = 256
)

// Client owns one websocket connection: a read pump decoding inbound
// envelopes and a write pump draining the egress buffer. It implements
// game.Sender so the registry can broadcast to it without knowing about
// websockets.
type Client struct {
	socketID   string
	playerID   string // starts as socketID, replaced when a rejoin adopts an earlier identity
	manager    *Manager
	connection *websocket.Conn
	egress     chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

func NewClient(conn *websocket.Conn, manager *Manager) *Client {
	id := uuid.NewString()
	return &Client{
		socketID:   id,
		playerID:   id,
		manager:    manager,
		connection: conn,
		egress:     make(chan []byte, egressBuffer),
		done:       make(chan struct{}),
	}
}

// PlayerID is the identity inbound frames are attributed to. It is only
// touched from the read pump, so no locking is needed.
func (c *Client) PlayerID() string {
	return c.playerID
}

func (c *Client) setPlayerID(id string) {
	c.playerID = id
}

// TrySend queues a pre-marshaled frame without blocking. A closed client or
// a full buffer drops the frame for this receiver only; broadcasts to other
// participants are never stalled.
func (c *Client) TrySend(msg []byte) bool {
	select {
	case <-c.done:
		return false
	case c.egress <- msg:
		return true
	default:
		return false
	}
}

// Close tears the connection down. It only signals the write pump, which
// drains frames already queued (a roomClosed notification, say) before the
// socket goes away. Safe to call more than once and from any goroutine (the
// reaper closes clients of expired rooms).
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Send marshals v and queues it for this client.
func (c *Client) Send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("marshalling %T for client %v: %v", v, c.socketID, err)
		return
	}
	c.TrySend(b)
}

func (c *Client) readMessages() {
	defer c.manager.removeClient(c)

	c.connection.SetReadLimit(maxMessageSize)
	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Println("setting read deadline:", err)
		return
	}
	c.connection.SetPongHandler(c.pongHandler)

	for {
		_, payload, err := c.connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("unexpected closure of socket %v: %v", c.socketID, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			// malformed input is not fatal to the session
			log.Printf("dropping unparseable frame from %v: %v", c.socketID, err)
			continue
		}

		if err := c.manager.routeEvent(env, payload, c); err != nil {
			log.Printf("dropping %q frame from %v: %v", env.Type, c.socketID, err)
		}
	}
}

func (c *Client) writeMessages() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
		c.connection.Close()
	}()

	for {
		select {
		case <-c.done:
			c.flushEgress()
			c.connection.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.egress:
			c.connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.connection.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("write to client %v: %v", c.socketID, err)
				return
			}
		case <-ticker.C:
			c.connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.connection.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// flushEgress delivers frames that were queued before shutdown was
// signalled, so a notification enqueued right before Close still reaches
// the peer.
func (c *Client) flushEgress() {
	c.connection.SetWriteDeadline(time.Now().Add(writeWait))
	for {
		select {
		case message := <-c.egress:
			if err := c.connection.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}
