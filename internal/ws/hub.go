package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"

	"github.com/Prsnt95/coup/internal/game"
	"github.com/Prsnt95/coup/internal/room"
)

const (
	pingInterval = 15 * time.Second
	readLimit    = 4096
)

// Options tunes the hub.
type Options struct {
	AllowOrigins []string
	MessageRate  float64 // messages per second per client
	MessageBurst int
}

type Hub struct {
	allowOrigins map[string]bool
	rooms        *room.Registry
	logger       zerolog.Logger
	rate         rate.Limit
	burst        int

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub(rooms *room.Registry, logger zerolog.Logger, opts Options) *Hub {
	m := map[string]bool{}
	for _, a := range opts.AllowOrigins {
		if a != "" {
			m[a] = true
		}
	}
	if opts.MessageRate <= 0 {
		opts.MessageRate = 10
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = 20
	}
	return &Hub{
		allowOrigins: m,
		rooms:        rooms,
		logger:       logger,
		rate:         rate.Limit(opts.MessageRate),
		burst:        opts.MessageBurst,
		clients:      map[*Client]struct{}{},
	}
}

// Clients counts open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ---------- websockets ----------

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Debug().Err(err).Msg("websocket accept")
		return
	}
	c.SetReadLimit(readLimit)

	client := newClient(c, rate.NewLimiter(h.rate, h.burst), h.logger)
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	client.logger.Info().Str("remote", r.RemoteAddr).Msg("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// writer
	done := make(chan struct{})
	go func() {
		defer close(done)
		ping := time.NewTicker(pingInterval)
		defer func() { ping.Stop(); _ = c.Close(websocket.StatusNormalClosure, "bye") }()
		for {
			select {
			case msg, ok := <-client.send:
				if !ok {
					return
				}
				if err := c.Write(ctx, websocket.MessageText, msg); err != nil {
					cancel()
					return
				}
			case <-ping.C:
				if err := c.Ping(ctx); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// reader
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			if !closedNormally(err) {
				client.logger.Debug().Err(err).Msg("read failed")
			}
			break
		}
		if !client.limiter.Allow() {
			h.sendError(client, ErrorMsg{Code: CodeRateLimited, Message: "slow down"})
			continue
		}
		var m Msg
		if err := json.Unmarshal(data, &m); err != nil {
			h.sendError(client, ErrorMsg{Code: CodeBadMessage, Message: "malformed message"})
			continue
		}
		h.handle(ctx, client, m)
	}

	// disconnect
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
	if rm, seat := client.stand(); rm != nil {
		rm.Disconnect(seat)
		h.rooms.Release(rm.Code())
	}
	client.close()
	<-done
	client.logger.Info().Msg("client disconnected")
}

func (h *Hub) handle(ctx context.Context, client *Client, m Msg) {
	switch m.T {

	// ---- Lobby ----
	case TypeCreateRoom:
		var p createRoomMsg
		if !h.decode(client, m, &p) || !h.requireUnseated(client) {
			return
		}
		rm, err := h.rooms.Create()
		if err != nil {
			h.fail(client, m.T, err)
			return
		}
		seat, token, err := rm.Join(p.Name)
		if err != nil {
			h.rooms.Release(rm.Code())
			h.fail(client, m.T, err)
			return
		}
		h.attach(client, rm, seat, token)

	case TypeJoinRoom:
		var p joinRoomMsg
		if !h.decode(client, m, &p) || !h.requireUnseated(client) {
			return
		}
		rm, err := h.rooms.Get(p.Room)
		if err != nil {
			h.fail(client, m.T, err)
			return
		}
		seat, token, err := rm.Join(p.Name)
		if err != nil {
			h.fail(client, m.T, err)
			return
		}
		h.attach(client, rm, seat, token)

	case TypeRejoin:
		var p rejoinMsg
		if !h.decode(client, m, &p) || !h.requireUnseated(client) {
			return
		}
		rm, err := h.rooms.Get(p.Room)
		if err != nil {
			h.fail(client, m.T, err)
			return
		}
		seat, err := rm.Rejoin(p.Token)
		if err != nil {
			h.fail(client, m.T, err)
			return
		}
		h.attach(client, rm, seat, p.Token)

	case TypeLeaveRoom:
		rm, seat := client.seated()
		if rm == nil {
			h.fail(client, m.T, room.ErrNotSeated)
			return
		}
		client.stand()
		if err := rm.Leave(seat); err != nil {
			// The seat stays but this socket no longer speaks for it.
			rm.Disconnect(seat)
			h.fail(client, m.T, err)
		}
		h.rooms.Release(rm.Code())

	case TypeStart:
		rm, seat := client.seated()
		if rm == nil {
			h.fail(client, m.T, room.ErrNotSeated)
			return
		}
		if err := rm.Start(seat); err != nil {
			h.fail(client, m.T, err)
		}

	// ---- Game ----
	case string(game.IntentAction), string(game.IntentChallenge), string(game.IntentBlock),
		string(game.IntentPass), string(game.IntentChooseCard), string(game.IntentChooseExchange):
		var p intentMsg
		if !h.decode(client, m, &p) {
			return
		}
		rm, seat := client.seated()
		if rm == nil {
			h.fail(client, m.T, room.ErrNotSeated)
			return
		}
		if _, err := rm.Apply(ctx, seat, p.intent(game.IntentType(m.T))); err != nil {
			h.fail(client, m.T, err)
		}

	default:
		h.sendError(client, ErrorMsg{Code: CodeBadMessage, Message: "unknown message type " + m.T})
	}
}

// attach seats client in rm, subscribes it to state changes and sends the first view.
func (h *Hub) attach(client *Client, rm *room.Room, seat int, token string) {
	h.sendTo(client, TypeJoined, JoinedMsg{Room: rm.Code(), Seat: seat, Token: token})
	unsubscribe := rm.OnChange(func() { h.sendState(client) })
	client.sit(rm, seat, unsubscribe)
	client.logger.Info().Str("room", rm.Code()).Int("seat", seat).Msg("client seated")
	h.sendState(client)
}

func (h *Hub) requireUnseated(client *Client) bool {
	if rm, _ := client.seated(); rm != nil {
		h.sendError(client, ErrorMsg{Code: CodeAlreadySeated, Message: "already seated in room " + rm.Code()})
		return false
	}
	return true
}

func (h *Hub) decode(client *Client, m Msg, into any) bool {
	if len(m.M) == 0 {
		return true
	}
	if err := json.Unmarshal(m.M, into); err != nil {
		h.sendError(client, ErrorMsg{Code: CodeBadMessage, Message: "malformed " + m.T + " payload"})
		return false
	}
	return true
}

// ---------- helpers (send/state) ----------

func (h *Hub) fail(client *Client, t string, err error) {
	em := errorMsg(err)
	ev := client.logger.Debug()
	if em.Code == CodeInternal || em.Code == CodeRoomBroken {
		ev = client.logger.Error()
	}
	ev.Err(err).Str("msg", t).Str("code", em.Code).Msg("request rejected")
	h.sendError(client, em)
}

func (h *Hub) sendError(client *Client, em ErrorMsg) {
	h.sendTo(client, TypeError, em)
}

func (h *Hub) sendTo(client *Client, t string, payload any) {
	b, err := encode(t, payload)
	if err != nil {
		client.logger.Error().Err(err).Str("msg", t).Msg("encode message")
		return
	}
	client.push(b)
}

// sendState pushes the client's own view of its room.
func (h *Hub) sendState(client *Client) {
	rm, seat := client.seated()
	if rm == nil {
		return
	}
	h.sendTo(client, TypeState, rm.View(seat))
}

// closedNormally reports whether err is an ordinary end of the connection.
func closedNormally(err error) bool {
	return errors.Is(err, context.Canceled) || websocket.CloseStatus(err) != -1
}
