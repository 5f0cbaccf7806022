// Package ws manages websocket connections and room-scoped fanout.
package ws

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frankieli/wager_arena/pkg/logger"
)

// CloseReason explains why a connection was closed
type CloseReason string

const (
	ReasonWriteError CloseReason = "write_error"
	ReasonPingError  CloseReason = "ping_error"
	ReasonReadError  CloseReason = "read_error"
	ReasonShutdown   CloseReason = "server_shutdown"
	ReasonBufferFull CloseReason = "buffer_full"
)

// Connection represents one WebSocket connection
type Connection struct {
	ID        int64
	Conn      *websocket.Conn
	Send      chan []byte
	manager   *Manager
	closeOnce sync.Once
}

// Manager owns all connections and the room membership index. Fanout is
// enqueue-and-continue: sends never block the caller; a connection whose
// buffer is full gets dropped instead.
type Manager struct {
	clients    map[int64]*Connection
	rooms      map[string]map[int64]*Connection
	register   chan *Connection
	unregister chan *Connection
	mu         sync.RWMutex
	nextID     int64
}

// NewManager creates a new connection manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[int64]*Connection),
		rooms:      make(map[string]map[int64]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
	}
}

// Register wraps a raw websocket connection and assigns it an id
func (m *Manager) Register(conn *websocket.Conn) *Connection {
	c := &Connection{
		ID:      atomic.AddInt64(&m.nextID, 1),
		Conn:    conn,
		Send:    make(chan []byte, 256),
		manager: m,
	}
	m.register <- c
	return c
}

// Run starts the manager loop
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			m.clients[client.ID] = client
			m.mu.Unlock()

		case client := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[client.ID]; ok {
				delete(m.clients, client.ID)
				for _, members := range m.rooms {
					delete(members, client.ID)
				}
			}
			m.mu.Unlock()
		}
	}
}

// JoinRoom adds the connection to a room's broadcast set
func (m *Manager) JoinRoom(connID int64, roomCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, ok := m.clients[connID]
	if !ok {
		return
	}
	if m.rooms[roomCode] == nil {
		m.rooms[roomCode] = make(map[int64]*Connection)
	}
	m.rooms[roomCode][connID] = client
}

// LeaveRoom removes the connection from a room's broadcast set
func (m *Manager) LeaveRoom(connID int64, roomCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if members, ok := m.rooms[roomCode]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(m.rooms, roomCode)
		}
	}
}

// BroadcastRoom sends a message to every connection in the room
func (m *Manager) BroadcastRoom(roomCode string, message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.rooms[roomCode] {
		select {
		case client.Send <- message:
		default:
			// Buffer full, drop the slow client. The unregister channel
			// handles map cleanup once the pumps exit.
			client.CloseWithReason(ReasonBufferFull, nil)
		}
	}
}

// SendToConn sends a message to one connection
func (m *Manager) SendToConn(connID int64, message []byte) {
	m.mu.RLock()
	client, ok := m.clients[connID]
	m.mu.RUnlock()

	if !ok {
		return
	}
	select {
	case client.Send <- message:
	default:
		client.CloseWithReason(ReasonBufferFull, nil)
	}
}

// Shutdown closes all connections
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		client.CloseWithReason(ReasonShutdown, nil)
	}
}

// CloseWithReason closes the connection once, logging the reason
func (c *Connection) CloseWithReason(r CloseReason, err error) {
	c.closeOnce.Do(func() {
		logger.Warn(context.Background()).
			Int64("conn_id", c.ID).
			Str("reason", string(r)).
			Err(err).
			Msg("ws connection closed")
		c.Conn.Close()
	})
}

// WritePump pumps messages from the send channel to the websocket
func (c *Connection) WritePump() {
	ticker := time.NewTicker(54 * time.Second) // Ping period
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.CloseWithReason(ReasonWriteError, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.CloseWithReason(ReasonPingError, err)
				return
			}
		}
	}
}

// ReadPump pumps inbound messages into handleMessage until the connection
// dies, then unregisters
func (c *Connection) ReadPump(handleMessage func(int64, []byte)) {
	var readErr error
	defer func() {
		c.manager.unregister <- c
		c.CloseWithReason(ReasonReadError, readErr)
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second)) // Pong wait
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				readErr = err
			}
			break
		}

		handleMessage(c.ID, message)
	}
}
