// Package room serializes access to one game and tracks who is at the table.
package room

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Prsnt95/coup/internal/game"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotHost      = errors.New("only the host can do that")
	ErrBadToken     = errors.New("unknown reconnect token")
	ErrNotSeated    = errors.New("not seated in this room")
	ErrRoomBroken   = errors.New("room stopped after an internal error")
)

// DefaultGracePeriod is how long a disconnected seat may hold up the table.
const DefaultGracePeriod = 30 * time.Second

// Archiver receives the public snapshot of every finished game.
type Archiver interface {
	SaveFinished(ctx context.Context, snap game.Snapshot) error
}

type member struct {
	name  string
	token string
	conns int
}

func (m *member) connected() bool { return m.conns > 0 }

// Room owns one game. Every method takes the room lock.
type Room struct {
	code   string
	logger zerolog.Logger
	tracer trace.Tracer

	mu        sync.Mutex
	g         *game.Game
	members   map[int]*member
	timers    map[graceKey]stopper
	grace     time.Duration
	afterFunc scheduler
	archiver  Archiver
	archived  bool
	broken    bool
	closed    bool

	listeners  map[int]func()
	nextListen int

	rules    *game.Rules
	gameOpts []game.Option
}

type Option func(*Room)

func WithRules(r game.Rules) Option {
	return func(rm *Room) { rm.rules = &r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(rm *Room) { rm.logger = l }
}

func WithGracePeriod(d time.Duration) Option {
	return func(rm *Room) { rm.grace = d }
}

func WithArchiver(a Archiver) Option {
	return func(rm *Room) { rm.archiver = a }
}

// WithGameOptions passes extra options through to game.New.
func WithGameOptions(opts ...game.Option) Option {
	return func(rm *Room) { rm.gameOpts = append(rm.gameOpts, opts...) }
}

func withScheduler(s scheduler) Option {
	return func(rm *Room) { rm.afterFunc = s }
}

// New builds a room around a fresh game identified by code.
func New(code string, opts ...Option) (*Room, error) {
	r := &Room{
		code:      code,
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer("github.com/Prsnt95/coup/internal/room"),
		members:   make(map[int]*member),
		timers:    make(map[graceKey]stopper),
		grace:     DefaultGracePeriod,
		afterFunc: realScheduler,
		listeners: make(map[int]func()),
	}
	for _, o := range opts {
		o(r)
	}
	gopts := []game.Option{game.WithLogger(r.logger)}
	r.logger = r.logger.With().Str("room", code).Logger()
	if r.rules != nil {
		gopts = append(gopts, game.WithRules(*r.rules))
	}
	g, err := game.New(code, append(gopts, r.gameOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", code, err)
	}
	r.g = g
	return r, nil
}

func (r *Room) Code() string { return r.code }

// OnChange registers fn to run after every state change, outside the room lock.
// The returned func unregisters it.
func (r *Room) OnChange(fn func()) (remove func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextListen
	r.nextListen++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Join seats a new player and hands back the seat and its reconnect token.
func (r *Room) Join(name string) (int, string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return game.NoSeat, "", ErrRoomNotFound
	}
	var seat int
	err := r.guard(func() (err error) {
		seat, err = r.g.Join(name)
		return err
	})
	if err != nil {
		r.mu.Unlock()
		return game.NoSeat, "", err
	}
	token := uuid.NewString()
	r.members[seat] = &member{name: name, token: token, conns: 1}
	r.logger.Info().Int("seat", seat).Str("name", name).Msg("player joined")
	fin := r.settle()
	r.mu.Unlock()
	r.publish(context.Background(), fin)
	return seat, token, nil
}

// Rejoin reconnects the seat holding token.
func (r *Room) Rejoin(token string) (int, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return game.NoSeat, ErrRoomNotFound
	}
	seat := game.NoSeat
	for s, m := range r.members {
		if token != "" && m.token == token {
			seat = s
			m.conns++
			break
		}
	}
	if seat == game.NoSeat {
		r.mu.Unlock()
		return game.NoSeat, ErrBadToken
	}
	r.cancelTimers(seat)
	r.logger.Info().Int("seat", seat).Msg("player reconnected")
	fin := r.settle()
	r.mu.Unlock()
	r.publish(context.Background(), fin)
	return seat, nil
}

// Leave gives up the seat for good.
func (r *Room) Leave(seat int) error {
	r.mu.Lock()
	if _, ok := r.members[seat]; !ok {
		r.mu.Unlock()
		return ErrNotSeated
	}
	if err := r.guard(func() error { return r.g.Leave(seat) }); err != nil {
		r.mu.Unlock()
		return err
	}
	r.cancelTimers(seat)
	delete(r.members, seat)
	r.logger.Info().Int("seat", seat).Msg("player left")
	fin := r.settle()
	r.mu.Unlock()
	r.publish(context.Background(), fin)
	return nil
}

// Start deals the game. Only the host may start it.
func (r *Room) Start(seat int) error {
	r.mu.Lock()
	if _, ok := r.members[seat]; !ok {
		r.mu.Unlock()
		return ErrNotSeated
	}
	if r.g.Host() != seat {
		r.mu.Unlock()
		return ErrNotHost
	}
	if err := r.guard(r.g.Start); err != nil {
		r.mu.Unlock()
		return err
	}
	r.logger.Info().Ints("seats", r.g.Seats()).Msg("game started")
	fin := r.settle()
	r.mu.Unlock()
	r.publish(context.Background(), fin)
	return nil
}

// Apply runs one player intent against the game.
func (r *Room) Apply(ctx context.Context, seat int, in game.Intent) (res game.Result, err error) {
	ctx, span := r.tracer.Start(ctx, "room.apply", trace.WithAttributes(
		attribute.String("coup.room", r.code),
		attribute.Int("coup.seat", seat),
		attribute.String("coup.intent", string(in.Type)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	r.mu.Lock()
	if _, ok := r.members[seat]; !ok {
		r.mu.Unlock()
		return game.Result{}, ErrNotSeated
	}
	err = r.guard(func() (err error) {
		res, err = r.g.Apply(seat, in)
		return err
	})
	if err != nil {
		r.mu.Unlock()
		r.logger.Debug().Err(err).Int("seat", seat).Str("intent", string(in.Type)).Msg("intent rejected")
		return game.Result{}, err
	}
	span.SetAttributes(attribute.String("coup.phase", string(r.g.Phase())))
	fin := r.settle()
	r.mu.Unlock()
	r.publish(ctx, fin)
	return res, nil
}

// Disconnect drops one connection of seat. Once none are left the seat is gone:
// before the start that is the same as leaving, afterwards the seat keeps its
// place and the grace clock starts.
func (r *Room) Disconnect(seat int) {
	r.mu.Lock()
	m, ok := r.members[seat]
	if !ok || !m.connected() {
		r.mu.Unlock()
		return
	}
	m.conns--
	if m.connected() {
		r.mu.Unlock()
		return
	}
	if r.g.Phase() == game.PhaseWaiting {
		if err := r.guard(func() error { return r.g.Leave(seat) }); err != nil {
			r.logger.Warn().Err(err).Int("seat", seat).Msg("leave on disconnect failed")
		}
		delete(r.members, seat)
	}
	r.logger.Info().Int("seat", seat).Msg("player disconnected")
	fin := r.settle()
	r.mu.Unlock()
	r.publish(context.Background(), fin)
}

// Snapshot is the table as seat sees it.
func (r *Room) Snapshot(seat int) game.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.g.PublicState(seat)
}

// View is a snapshot plus the moves its viewer may make.
type View struct {
	game.Snapshot
	Intents []game.IntentType `json:"intents"`
	Actions []game.ActionKind `json:"actions"`
}

// View builds what seat needs to render the table.
func (r *Room) View(seat int) View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return View{
		Snapshot: r.g.PublicState(seat),
		Intents:  r.g.LegalIntents(seat),
		Actions:  r.g.LegalActions(seat),
	}
}

// Connected counts members with a live connection.
func (r *Room) Connected() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected()
}

func (r *Room) connected() int {
	n := 0
	for _, m := range r.members {
		if m.connected() {
			n++
		}
	}
	return n
}

// Close stops every grace timer. A closed room accepts no new members.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.close()
}

func (r *Room) close() {
	r.closed = true
	for k, t := range r.timers {
		t.Stop()
		delete(r.timers, k)
	}
}

// closeIfEmpty closes the room when nobody is connected and reports whether it did.
func (r *Room) closeIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connected() > 0 {
		return false
	}
	r.close()
	return true
}

// guard runs fn and turns a panic from the game into ErrRoomBroken.
func (r *Room) guard(fn func() error) (err error) {
	if r.broken {
		return ErrRoomBroken
	}
	defer func() {
		if p := recover(); p != nil {
			r.broken = true
			r.logger.Error().
				Str("panic", fmt.Sprint(p)).
				Str("stack", string(debug.Stack())).
				Msg("game invariant violated")
			err = ErrRoomBroken
		}
	}()
	return fn()
}

// settle runs under the lock after a mutation. It returns the finished snapshot
// when the game just ended and still needs archiving.
func (r *Room) settle() *game.Snapshot {
	r.scheduleGrace()
	if !r.g.IsFinished() || r.archived {
		return nil
	}
	r.archived = true
	snap := r.g.PublicState(game.NoSeat)
	r.logger.Info().Int("winner", r.g.Winner()).Msg("game finished")
	if r.archiver == nil {
		return nil
	}
	return &snap
}

// publish archives a finished game and wakes the listeners. It runs without the lock.
func (r *Room) publish(ctx context.Context, finished *game.Snapshot) {
	if finished != nil {
		if err := r.archiver.SaveFinished(context.WithoutCancel(ctx), *finished); err != nil {
			r.logger.Warn().Err(err).Msg("archive finished game")
		}
	}
	r.mu.Lock()
	fns := make([]func(), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
