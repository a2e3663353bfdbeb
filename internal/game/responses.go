package game

import "math/bits"

// maxTableSize is the width of seatSet.
const maxTableSize = 8

// seatSet is a set of table positions. Positions are frozen once the game starts.
type seatSet uint8

func (s seatSet) has(pos int) bool {
	return pos >= 0 && pos < maxTableSize && s&(1<<pos) != 0
}

func (s seatSet) with(pos int) seatSet {
	return s | 1<<pos
}

func (s seatSet) without(pos int) seatSet {
	return s &^ (1 << pos)
}

func (s seatSet) len() int {
	return bits.OnesCount8(uint8(s))
}

func (s seatSet) positions() []int {
	out := make([]int, 0, s.len())
	for pos := 0; pos < maxTableSize; pos++ {
		if s.has(pos) {
			out = append(out, pos)
		}
	}
	return out
}

type windowKind string

const (
	challengeWindow windowKind = "challenge"
	blockWindow     windowKind = "block"
)

// responseWindow is an open quorum vote. passed is always a subset of eligible.
type responseWindow struct {
	kind     windowKind
	eligible seatSet
	passed   seatSet
}

func (w *responseWindow) awaiting(pos int) bool {
	return w.eligible.has(pos) && !w.passed.has(pos)
}

func (w *responseWindow) complete() bool {
	return w.passed == w.eligible
}

// drop removes pos from the vote entirely, used when a responder forfeits.
func (w *responseWindow) drop(pos int) {
	w.eligible = w.eligible.without(pos)
	w.passed = w.passed.without(pos)
}

// activePositions returns every non-eliminated table position except the excluded seats.
func (g *Game) activePositions(except ...int) seatSet {
	var s seatSet
outer:
	for pos, p := range g.players {
		if p.Eliminated {
			continue
		}
		for _, seat := range except {
			if p.Seat == seat {
				continue outer
			}
		}
		s = s.with(pos)
	}
	return s
}

func (g *Game) seatsOf(s seatSet) []int {
	positions := s.positions()
	out := make([]int, len(positions))
	for i, pos := range positions {
		out[i] = g.players[pos].Seat
	}
	return out
}

// openChallengeWindow lets everybody still in the game except the claimant dispute the
// pending claim. An empty window resolves at once.
func (g *Game) openChallengeWindow() {
	aw := g.awaiting()
	claimant := aw.action.actor
	if aw.block != nil {
		claimant = aw.block.blocker
	}
	g.phase = PhaseChallenge
	eligible := g.activePositions(claimant)
	if eligible == 0 {
		g.window = nil
		g.resolveNoChallenge()
		return
	}
	g.window = &responseWindow{kind: challengeWindow, eligible: eligible}
}

// openBlockWindow offers the block to whoever the action allows. Foreign aid can be
// blocked by anybody; targeted actions only by a target still in the game.
func (g *Game) openBlockWindow() {
	aw := g.awaiting()
	g.phase = PhaseBlock
	var eligible seatSet
	if len(g.rules.Blockers[aw.action.kind]) > 0 {
		switch aw.action.kind {
		case ActionForeignAid:
			eligible = g.activePositions(aw.action.actor)
		case ActionAssassin, ActionCaptain:
			if pos, ok := g.position(aw.action.target); ok && !g.players[pos].Eliminated {
				eligible = eligible.with(pos)
			}
		}
	}
	if eligible == 0 {
		g.window = nil
		g.resolveNoBlock()
		return
	}
	g.window = &responseWindow{kind: blockWindow, eligible: eligible}
}

// Pass records that seat lets the open window go by.
func (g *Game) Pass(seat int) error {
	if g.window == nil {
		return reject(CodeInvalidPhase, "nothing to pass on")
	}
	p := g.player(seat)
	if p == nil {
		return reject(CodeUnknownSeat, "unknown seat %d", seat)
	}
	pos, _ := g.position(seat)
	if !g.window.eligible.has(pos) {
		return reject(CodeIneligibleResponder, "%s cannot respond to this %s", p.Name, g.window.kind)
	}
	if g.window.passed.has(pos) {
		return reject(CodeIneligibleResponder, "%s already passed", p.Name)
	}

	w := g.window
	w.passed = w.passed.with(pos)
	g.record(LogEntry{Message: p.Name + " passed on the " + string(w.kind) + ".", Kind: LogPass, Seats: []int{seat}})
	if w.complete() {
		g.closeWindow()
	}
	return nil
}

// closeWindow resolves a window where every eligible seat passed.
func (g *Game) closeWindow() {
	w := g.window
	g.window = nil
	switch w.kind {
	case challengeWindow:
		g.record(LogEntry{Message: "No one challenged.", Kind: LogChallenge, Seats: g.seatsOf(w.eligible)})
		g.resolveNoChallenge()
	case blockWindow:
		g.record(LogEntry{Message: "No one blocked.", Kind: LogBlock, Seats: g.seatsOf(w.eligible)})
		g.resolveNoBlock()
	}
}
