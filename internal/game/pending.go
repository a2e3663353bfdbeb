package game

import "fmt"

// pending is the action in flight. Each variant is exactly the shape legal in its stage.
type pending interface {
	stage() string
}

// stagedAction is a declared action. target is NoSeat for untargeted kinds.
type stagedAction struct {
	kind   ActionKind
	actor  int
	target int
}

type blockClaim struct {
	blocker   int
	character Character
}

type challengeRecord struct {
	challenger int
	challenged int
	character  Character
}

// awaitingResponse holds a claim, and optionally a block on it, while a window is open.
type awaitingResponse struct {
	action stagedAction
	block  *blockClaim
}

// challengeReveal waits for the challenged seat to show a card.
type challengeReveal struct {
	action    stagedAction
	block     *blockClaim
	challenge challengeRecord
}

// challengerLoss waits for a challenger whose challenge failed to give up a card.
type challengerLoss struct {
	action    stagedAction
	block     *blockClaim
	challenge challengeRecord
}

// forcedReveal waits for the target of a coup or assassination.
type forcedReveal struct {
	actor  int
	target int
	cause  ActionKind
}

// ambassadorExchange holds the private option pool. pool starts with the
// actor's concealed cards in slot order, followed by the drawn cards.
type ambassadorExchange struct {
	actor     int
	pool      []Character
	drawn     int
	keepCount int
	slots     []int
}

func (*awaitingResponse) stage() string   { return "response" }
func (*challengeReveal) stage() string    { return "reveal" }
func (*challengerLoss) stage() string     { return "loss" }
func (*forcedReveal) stage() string       { return "forced-reveal" }
func (*ambassadorExchange) stage() string { return "exchange" }

// unchallenged strips the challenge from a staged claim.
func (c *challengerLoss) unchallenged() *awaitingResponse {
	return &awaitingResponse{action: c.action, block: c.block}
}

// awaiting returns the pending claim behind an open window.
func (g *Game) awaiting() *awaitingResponse {
	aw, ok := g.pending.(*awaitingResponse)
	if !ok {
		panic(fmt.Sprintf("game %s: expected a staged claim, have %T", g.id, g.pending))
	}
	return aw
}

// chooser is the seat that must pick a card in choose-card, or NoSeat.
func (g *Game) chooser() int {
	if g.phase != PhaseChooseCard {
		return NoSeat
	}
	switch p := g.pending.(type) {
	case *challengeReveal:
		return p.challenge.challenged
	case *challengerLoss:
		return p.challenge.challenger
	case *forcedReveal:
		return p.target
	}
	return NoSeat
}

// involves reports whether the pending action cannot go on without seat.
func (g *Game) involves(seat int) bool {
	switch p := g.pending.(type) {
	case *awaitingResponse:
		return p.action.actor == seat || p.action.target == seat || (p.block != nil && p.block.blocker == seat)
	case *challengeReveal:
		return p.action.actor == seat || p.action.target == seat || (p.block != nil && p.block.blocker == seat) ||
			p.challenge.challenger == seat || p.challenge.challenged == seat
	case *challengerLoss:
		return p.action.actor == seat || p.action.target == seat || (p.block != nil && p.block.blocker == seat) ||
			p.challenge.challenger == seat || p.challenge.challenged == seat
	case *forcedReveal:
		return p.target == seat
	case *ambassadorExchange:
		return p.actor == seat
	}
	return false
}
