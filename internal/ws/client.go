package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"

	"github.com/Prsnt95/coup/internal/game"
	"github.com/Prsnt95/coup/internal/room"
)

// Client is one websocket connection. It sits in at most one room at a time.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu          sync.Mutex
	closed      bool
	room        *room.Room
	seat        int
	unsubscribe func()
}

func newClient(conn *websocket.Conn, limiter *rate.Limiter, logger zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, 64),
		limiter: limiter,
		logger:  logger.With().Str("client", id).Logger(),
		seat:    game.NoSeat,
	}
}

// push queues b for the writer and drops it if the client is gone or lagging.
func (c *Client) push(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		c.logger.Warn().Msg("send buffer full, dropping message")
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// seated returns the room and seat the client is in, if any.
func (c *Client) seated() (*room.Room, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room, c.seat
}

func (c *Client) sit(r *room.Room, seat int, unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room, c.seat, c.unsubscribe = r, seat, unsubscribe
}

// stand clears the seat and returns what it held.
func (c *Client) stand() (*room.Room, int) {
	c.mu.Lock()
	r, seat, unsub := c.room, c.seat, c.unsubscribe
	c.room, c.seat, c.unsubscribe = nil, game.NoSeat, nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	return r, seat
}
