package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Phase is the stage of the table.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhasePlaying    Phase = "playing"
	PhaseChallenge  Phase = "challenge-pending"
	PhaseBlock      Phase = "block-pending"
	PhaseChooseCard Phase = "choose-card"
	PhaseExchange   Phase = "ambassador-exchange"
	PhaseFinished   Phase = "finished"
)

// Game is one table. It is not safe for concurrent use; callers serialize access.
type Game struct {
	id     string
	rules  Rules
	deck   *Deck
	log    *EventLog
	logger zerolog.Logger
	now    func() time.Time
	intn   func(int) int

	players  []*Player
	nextSeat int
	host     int

	phase   Phase
	turn    int
	gen     uint64
	pending pending
	window  *responseWindow
	winner  int
}

// Option configures a Game.
type Option func(*Game)

// WithRules replaces DefaultRules.
func WithRules(r Rules) Option {
	return func(g *Game) { g.rules = r.clone() }
}

// WithLogger mirrors every narrated event to l at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Game) { g.logger = l }
}

// WithClock overrides the timestamp source of log entries.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// WithRandom overrides the shuffle source. intn must return a value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(g *Game) { g.intn = intn }
}

// New creates an empty table in the waiting phase.
func New(id string, opts ...Option) (*Game, error) {
	g := &Game{
		id:     id,
		rules:  DefaultRules(),
		logger: zerolog.Nop(),
		now:    time.Now,
		host:   NoSeat,
		phase:  PhaseWaiting,
		winner: NoSeat,
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.rules.Validate(); err != nil {
		return nil, fmt.Errorf("game %s: %w", id, err)
	}
	g.deck = NewDeck(g.intn)
	g.log = NewEventLog(g.rules.LogCapacity)
	g.logger = g.logger.With().Str("room", id).Logger()
	return g, nil
}

func (g *Game) ID() string       { return g.id }
func (g *Game) Phase() Phase     { return g.phase }
func (g *Game) Host() int        { return g.host }
func (g *Game) Winner() int      { return g.winner }
func (g *Game) Rules() Rules     { return g.rules.clone() }
func (g *Game) IsFinished() bool { return g.phase == PhaseFinished }

// TurnGeneration increases every time the turn moves on.
func (g *Game) TurnGeneration() uint64 { return g.gen }

// CurrentSeat is the seat holding the turn, or NoSeat before the start.
func (g *Game) CurrentSeat() int {
	if g.phase == PhaseWaiting || len(g.players) == 0 {
		return NoSeat
	}
	return g.players[g.turn].Seat
}

// Seats lists seated players in table order.
func (g *Game) Seats() []int {
	out := make([]int, len(g.players))
	for i, p := range g.players {
		out[i] = p.Seat
	}
	return out
}

func (g *Game) position(seat int) (int, bool) {
	for i, p := range g.players {
		if p.Seat == seat {
			return i, true
		}
	}
	return -1, false
}

func (g *Game) player(seat int) *Player {
	if pos, ok := g.position(seat); ok {
		return g.players[pos]
	}
	return nil
}

func (g *Game) name(seat int) string {
	if p := g.player(seat); p != nil {
		return p.Name
	}
	return "Unknown"
}

func (g *Game) record(e LogEntry) {
	if e.Kind == "" {
		e.Kind = LogInfo
	}
	e.Time = g.now()
	e = g.log.Append(e)
	g.logger.Debug().
		Uint64("event", e.ID).
		Str("kind", string(e.Kind)).
		Ints("seats", e.Seats).
		Msg(e.Message)
}

// Join seats a new player. Blank names become "Player N".
func (g *Game) Join(name string) (int, error) {
	if g.phase != PhaseWaiting {
		return NoSeat, reject(CodeInvalidPhase, "game already started")
	}
	if len(g.players) >= g.rules.MaxPlayers {
		return NoSeat, reject(CodeTableFull, "table is full (%d players)", g.rules.MaxPlayers)
	}
	seat := g.nextSeat
	g.nextSeat++
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Player %d", seat+1)
	}
	g.players = append(g.players, &Player{Seat: seat, Name: name, Coins: g.rules.StartingCoins})
	if g.host == NoSeat {
		g.host = seat
	}
	g.record(LogEntry{Message: name + " joined.", Kind: LogSystem, Seats: []int{seat}})
	return seat, nil
}

// Leave removes seat before the start. Once the game runs, leaving forfeits: the
// leaver's cards are turned over and anything waiting on them is cancelled. A
// challenge the leaver was losing is settled against them instead.
func (g *Game) Leave(seat int) error {
	switch g.phase {
	case PhaseFinished:
		return nil
	case PhaseWaiting:
		pos, ok := g.position(seat)
		if !ok {
			return reject(CodeUnknownSeat, "unknown seat %d", seat)
		}
		p := g.players[pos]
		g.players = append(g.players[:pos], g.players[pos+1:]...)
		if g.host == seat {
			g.host = NoSeat
			if len(g.players) > 0 {
				g.host = g.players[0].Seat
			}
		}
		g.record(LogEntry{Message: p.Name + " left.", Kind: LogSystem, Seats: []int{seat}})
		return nil
	}

	pos, ok := g.position(seat)
	if !ok {
		return reject(CodeUnknownSeat, "unknown seat %d", seat)
	}
	p := g.players[pos]
	if p.Eliminated {
		return nil
	}
	if ex, ok := g.pending.(*ambassadorExchange); ok && ex.actor == seat {
		g.deck.ReturnAndReshuffle(ex.pool[len(ex.slots):]...)
	}
	for i := range p.Hand {
		p.Hand[i].Revealed = true
	}
	p.Eliminated = true
	g.record(LogEntry{Message: p.Name + " left the table and forfeits.", Kind: LogLoss, Outcome: OutcomeEliminated, Seats: []int{seat}})
	if g.checkGameEnd() {
		return nil
	}

	switch pa := g.pending.(type) {
	case *challengerLoss:
		if pa.challenge.challenger == seat {
			// The forfeit pays the card the failed challenge owed.
			g.resumeUnchallenged(pa)
			return nil
		}
	case *challengeReveal:
		if pa.challenge.challenged == seat {
			g.record(LogEntry{
				Message: fmt.Sprintf("%s did not reveal %s. Challenge succeeded.", p.Name, pa.challenge.character),
				Kind:    LogChallenge,
				Outcome: OutcomeSuccess,
				Seats:   []int{pa.challenge.challenger, seat},
			})
			g.collapseClaim(pa)
			return nil
		}
	}

	switch {
	case g.involves(seat):
		g.record(LogEntry{Message: "The pending action is cancelled.", Kind: LogInfo, Seats: []int{seat}})
		g.advanceTurn()
	case g.window != nil && g.window.eligible.has(pos):
		g.window.drop(pos)
		if g.window.complete() {
			g.closeWindow()
		}
	case g.phase == PhasePlaying && g.turn == pos:
		g.advanceTurn()
	}
	return nil
}

// Start deals the cards and hands the turn to the first seat.
func (g *Game) Start() error {
	if g.phase != PhaseWaiting {
		return reject(CodeInvalidPhase, "game already started")
	}
	if len(g.players) < g.rules.MinPlayers {
		return reject(CodeNotEnoughPlayers, "need at least %d players", g.rules.MinPlayers)
	}
	g.deck.Refill()
	for _, p := range g.players {
		p.Coins = g.rules.StartingCoins
		for i := range p.Hand {
			c, ok := g.deck.Draw()
			if !ok {
				panic(fmt.Sprintf("game %s: deck ran dry while dealing", g.id))
			}
			p.Hand[i] = CardSlot{Character: c}
		}
	}
	g.phase = PhasePlaying
	g.turn = 0
	g.gen++
	g.record(LogEntry{Message: fmt.Sprintf("Game started with %d players.", len(g.players)), Kind: LogSystem, Seats: g.Seats()})
	return nil
}

// ForceSkipCurrentTurn passes the turn of an absent player. It only applies when
// expectedSeat still holds the same turn it held when the caller looked.
func (g *Game) ForceSkipCurrentTurn(expectedSeat int, expectedGeneration uint64) error {
	if g.phase != PhasePlaying {
		return reject(CodeInvalidPhase, "no turn to skip in phase %s", g.phase)
	}
	if g.CurrentSeat() != expectedSeat || g.gen != expectedGeneration {
		return rejectWith(CodeNotYourTurn, map[string]string{"reason": "stale"}, "seat %d no longer holds that turn", expectedSeat)
	}
	g.record(LogEntry{Message: g.name(expectedSeat) + "'s turn was skipped.", Kind: LogSystem, Seats: []int{expectedSeat}})
	g.advanceTurn()
	return nil
}

// advanceTurn ends the current action and moves to the next seat still in the game.
func (g *Game) advanceTurn() {
	g.pending = nil
	g.window = nil
	if g.checkGameEnd() {
		return
	}
	g.phase = PhasePlaying
	n := len(g.players)
	for step := 1; step <= n; step++ {
		pos := (g.turn + step) % n
		if !g.players[pos].Eliminated {
			g.turn = pos
			break
		}
	}
	g.gen++
}

// checkGameEnd finishes the game when at most one player is left.
func (g *Game) checkGameEnd() bool {
	if g.phase == PhaseFinished {
		return true
	}
	active := g.activePositions()
	if active.len() > 1 {
		return false
	}
	g.phase = PhaseFinished
	g.pending = nil
	g.window = nil
	if positions := active.positions(); len(positions) == 1 {
		w := g.players[positions[0]]
		g.winner = w.Seat
		g.record(LogEntry{Message: w.Name + " wins.", Kind: LogSystem, Outcome: OutcomeSuccess, Seats: []int{w.Seat}})
	}
	return true
}

// loseSlot turns slot over for good and eliminates the owner when nothing is left.
// It reports whether the game is over.
func (g *Game) loseSlot(p *Player, slot int) bool {
	p.Hand[slot].Revealed = true
	g.record(LogEntry{
		Message: fmt.Sprintf("%s revealed %s and lost influence.", p.Name, p.Hand[slot].Character),
		Kind:    LogLoss,
		Outcome: OutcomeLost,
		Seats:   []int{p.Seat},
	})
	if p.Influence() > 0 {
		return false
	}
	p.Eliminated = true
	g.record(LogEntry{Message: p.Name + " has been eliminated.", Kind: LogLoss, Outcome: OutcomeEliminated, Seats: []int{p.Seat}})
	return g.checkGameEnd()
}

// swapSlot replaces a proven card with a fresh draw.
func (g *Game) swapSlot(p *Player, slot int) {
	g.deck.ReturnAndReshuffle(p.Hand[slot].Character)
	c, ok := g.deck.Draw()
	if !ok {
		panic(fmt.Sprintf("game %s: empty deck after a return", g.id))
	}
	p.Hand[slot] = CardSlot{Character: c}
}

// Role is what the game currently needs from a seat.
type Role string

const (
	RoleNone      Role = ""
	RoleTurn      Role = "turn"
	RoleResponder Role = "responder"
	RoleChooser   Role = "chooser"
	RoleExchanger Role = "exchanger"
)

// RoleOf reports what the game is waiting on seat for.
func (g *Game) RoleOf(seat int) Role {
	pos, ok := g.position(seat)
	if !ok || g.players[pos].Eliminated {
		return RoleNone
	}
	switch g.phase {
	case PhasePlaying:
		if g.turn == pos {
			return RoleTurn
		}
	case PhaseChallenge, PhaseBlock:
		if g.window != nil && g.window.awaiting(pos) {
			return RoleResponder
		}
	case PhaseChooseCard:
		if g.chooser() == seat {
			return RoleChooser
		}
	case PhaseExchange:
		if ex, ok := g.pending.(*ambassadorExchange); ok && ex.actor == seat {
			return RoleExchanger
		}
	}
	return RoleNone
}

// AwaitedSeats lists every seat the game cannot progress without.
func (g *Game) AwaitedSeats() []int {
	var out []int
	for _, p := range g.players {
		if g.RoleOf(p.Seat) != RoleNone {
			out = append(out, p.Seat)
		}
	}
	return out
}
