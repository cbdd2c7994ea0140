package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single socket write.
	writeWait = 10 * time.Second

	// pongWait is how long we tolerate a silent client before assuming
	// the connection is dead. The read deadline is refreshed on every
	// pong and on every inbound frame.
	pongWait = 90 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = 30 * time.Second

	// maxMessageSize caps inbound frames. Commands are tiny; anything
	// bigger is not ours.
	maxMessageSize = 1024

	// sendBufferSize is each client's outbound buffer. A full buffer
	// marks the client as a slow consumer and the Hub drops it.
	sendBufferSize = 256

	// commandTimeout bounds the store work behind one inbound command.
	commandTimeout = 5 * time.Second
)

// ConnState is the lifecycle state of one connection.
//
// Transitions only move forward:
//
//	Connecting → Authorizing → Active → Closing → Closed
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateAuthorizing
	StateActive
	StateClosing
	StateClosed
)

// String returns the state name for logs.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthorizing:
		return "authorizing"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CommandSink handles the commands a client may send over the socket.
// In practice this is the notification service; the small interface keeps
// the ws package from importing services (which imports ws).
type CommandSink interface {
	MarkRead(ctx context.Context, userID string, notificationID int64) error
	MarkAllRead(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// Client is one WebSocket connection.
//
// Two goroutines serve it: ReadPump consumes inbound commands, WritePump
// drains the send channel into the socket. gorilla/websocket allows only
// one concurrent reader and one concurrent writer, hence the split.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	sink   CommandSink
	userID string

	send  chan []byte
	state atomic.Int32
	wmu   sync.Mutex // guards conn writes (frames and pings)
}

func (c *Client) setState(s ConnState) {
	c.state.Store(int32(s))
}

// State returns the connection's current lifecycle state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// ReadPump consumes inbound frames until the connection dies, then
// unregisters the client. Runs on the HTTP handler's goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.setState(StateClosing)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		// Any inbound traffic proves liveness.
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			// Malformed frames are dropped, not fatal.
			log.Printf("[ws] invalid frame from user %s: %v", c.userID, err)
			continue
		}

		c.handleCommand(cmd)
	}
}

// handleCommand dispatches one inbound command to the sink. The sink is
// responsible for broadcasting the resulting state change back out, so
// every connection of the user converges, not just this one.
func (c *Client) handleCommand(cmd Command) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch cmd.Type {
	case CmdMarkRead:
		if cmd.NotificationID <= 0 {
			log.Printf("[ws] mark_read without notification_id from user %s", c.userID)
			return
		}
		if err := c.sink.MarkRead(ctx, c.userID, cmd.NotificationID); err != nil {
			log.Printf("[ws] mark_read failed for user %s: %v", c.userID, err)
		}

	case CmdMarkAllRead:
		if err := c.sink.MarkAllRead(ctx, c.userID); err != nil {
			log.Printf("[ws] mark_all_read failed for user %s: %v", c.userID, err)
		}

	default:
		log.Printf("[ws] unknown command from user %s: %q", c.userID, cmd.Type)
	}
}

// sendEvent queues one event for this connection only. The hub's read lock
// excludes removeClient/Shutdown, which close the send channel and move the
// state to closed together under the write lock; a closed client is skipped
// rather than sent to.
func (c *Client) sendEvent(event Event) {
	event.Seq = c.hub.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.State() == StateClosed {
		return
	}

	select {
	case c.send <- data:
	default:
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		go func() { c.hub.unregister <- c }()
	}
}

// WritePump drains the send channel into the socket and keeps the
// connection alive with periodic pings. Runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub removed us.
				c.writeMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
