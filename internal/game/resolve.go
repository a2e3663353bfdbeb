package game

import (
	"fmt"
	"strconv"
)

// Challenge disputes the claim on record for challenged. It closes the window at
// once and asks the challenged seat to reveal a card.
func (g *Game) Challenge(challenger, challenged int, character Character) (Result, error) {
	if g.phase != PhaseChallenge || g.window == nil || g.window.kind != challengeWindow {
		return Result{}, reject(CodeInvalidPhase, "no claim to challenge")
	}
	c := g.player(challenger)
	if c == nil {
		return Result{}, reject(CodeUnknownSeat, "unknown seat %d", challenger)
	}
	aw := g.awaiting()
	claimant, claim := aw.action.actor, aw.action.kind.Claim()
	if aw.block != nil {
		claimant, claim = aw.block.blocker, aw.block.character
	}
	if challenged != claimant {
		return Result{}, rejectWith(CodeInvalidClaim, map[string]string{"claimant": strconv.Itoa(claimant)},
			"seat %d has no claim on record", challenged)
	}
	if character != claim {
		return Result{}, rejectWith(CodeInvalidClaim, map[string]string{"claim": claim.String()},
			"%s claimed %s, not %s", g.name(claimant), claim, character)
	}
	if challenger == challenged {
		return Result{}, reject(CodeInvalidTarget, "cannot challenge yourself")
	}
	pos, _ := g.position(challenger)
	if !g.window.eligible.has(pos) {
		return Result{}, reject(CodeIneligibleResponder, "%s cannot challenge", c.Name)
	}

	label := claim.String()
	if aw.block != nil {
		label = "block (" + label + ")"
	}
	g.record(LogEntry{Message: fmt.Sprintf("%s challenged %s's %s.", c.Name, g.name(claimant), label), Kind: LogChallenge, Seats: []int{challenger, claimant}})
	g.window = nil
	g.pending = &challengeReveal{
		action:    aw.action,
		block:     aw.block,
		challenge: challengeRecord{challenger: challenger, challenged: claimant, character: claim},
	}
	g.phase = PhaseChooseCard
	return g.result(), nil
}

// Block stops the pending action with a character claim, which opens a new
// challenge window against the blocker.
func (g *Game) Block(blocker, actorSeat int, character Character) (Result, error) {
	if g.phase != PhaseBlock || g.window == nil || g.window.kind != blockWindow {
		return Result{}, reject(CodeInvalidPhase, "nothing to block")
	}
	b := g.player(blocker)
	if b == nil {
		return Result{}, reject(CodeUnknownSeat, "unknown seat %d", blocker)
	}
	aw := g.awaiting()
	if actorSeat != aw.action.actor {
		return Result{}, reject(CodeInvalidTarget, "seat %d is not acting", actorSeat)
	}
	pos, _ := g.position(blocker)
	if !g.window.eligible.has(pos) {
		return Result{}, reject(CodeIneligibleResponder, "%s cannot block this action", b.Name)
	}
	if !g.rules.canBlock(aw.action.kind, character) {
		return Result{}, reject(CodeInvalidClaim, "%s cannot block %s", character, aw.action.kind.label())
	}

	g.record(LogEntry{
		Message: fmt.Sprintf("%s blocked %s with %s.", b.Name, aw.action.kind.label(), character),
		Kind:    LogBlock,
		Seats:   append([]int{blocker}, actionSeats(aw.action)...),
		Claim:   character,
	})
	g.window = nil
	g.pending = &awaitingResponse{action: aw.action, block: &blockClaim{blocker: blocker, character: character}}
	g.openChallengeWindow()
	return g.result(), nil
}

// ChooseCard reveals slot of the seat the table is waiting on.
func (g *Game) ChooseCard(seat, slot int) error {
	if g.phase != PhaseChooseCard {
		return reject(CodeInvalidPhase, "no card choice pending")
	}
	p := g.player(seat)
	if p == nil {
		return reject(CodeUnknownSeat, "unknown seat %d", seat)
	}
	if g.chooser() != seat {
		return reject(CodeIneligibleResponder, "%s is not choosing a card", p.Name)
	}
	if slot < 0 || slot >= HandSize || p.Hand[slot].Revealed {
		return reject(CodeInvalidSelection, "invalid card %d", slot)
	}

	switch pa := g.pending.(type) {
	case *challengeReveal:
		g.resolveReveal(p, slot, pa)
	case *challengerLoss:
		if g.loseSlot(p, slot) {
			return nil
		}
		g.resumeUnchallenged(pa)
	case *forcedReveal:
		if g.loseSlot(p, slot) {
			return nil
		}
		g.advanceTurn()
	default:
		panic(fmt.Sprintf("game %s: card choice with pending %T", g.id, g.pending))
	}
	return nil
}

// resolveReveal settles a challenge once the challenged seat shows a card.
func (g *Game) resolveReveal(p *Player, slot int, cr *challengeReveal) {
	claim := cr.challenge.character
	if p.Hand[slot].Character == claim {
		g.record(LogEntry{
			Message: fmt.Sprintf("%s revealed %s. Challenge failed, %s loses influence.", p.Name, claim, g.name(cr.challenge.challenger)),
			Kind:    LogChallenge,
			Outcome: OutcomeLost,
			Seats:   []int{cr.challenge.challenger},
		})
		g.swapSlot(p, slot)
		g.pending = &challengerLoss{action: cr.action, block: cr.block, challenge: cr.challenge}
		return
	}

	g.record(LogEntry{
		Message: fmt.Sprintf("%s did not reveal %s. Challenge succeeded.", p.Name, claim),
		Kind:    LogChallenge,
		Outcome: OutcomeSuccess,
		Seats:   []int{cr.challenge.challenger, p.Seat},
	})
	if g.loseSlot(p, slot) {
		return
	}
	g.collapseClaim(cr)
}

// resumeUnchallenged carries on with the claim a failed challenge left standing.
func (g *Game) resumeUnchallenged(cl *challengerLoss) {
	aw := cl.unchallenged()
	g.pending = aw
	if aw.block != nil {
		g.resolveUnchallengedBlock(aw)
		return
	}
	g.resolveUnchallengedAction(aw.action)
}

// collapseClaim drops a claim its challenger disproved. A failed action claim
// ends the turn; a failed block lets the action through.
func (g *Game) collapseClaim(cr *challengeReveal) {
	if cr.block == nil {
		g.advanceTurn()
		return
	}
	g.record(LogEntry{Message: g.name(cr.block.blocker) + "'s block fails.", Kind: LogBlock, Outcome: OutcomeLost, Seats: []int{cr.block.blocker}})
	g.pending = &awaitingResponse{action: cr.action}
	g.resolveActionIgnoringBlocks(cr.action)
}

// ChooseAmbassadorKeep finishes an exchange. indices pick keepCount distinct
// cards from the option pool; the rest go back into the deck.
func (g *Game) ChooseAmbassadorKeep(seat int, indices []int) error {
	if g.phase != PhaseExchange {
		return reject(CodeInvalidPhase, "no exchange in progress")
	}
	p := g.player(seat)
	if p == nil {
		return reject(CodeUnknownSeat, "unknown seat %d", seat)
	}
	ex, ok := g.pending.(*ambassadorExchange)
	if !ok {
		panic(fmt.Sprintf("game %s: exchange phase with pending %T", g.id, g.pending))
	}
	if ex.actor != seat {
		return reject(CodeIneligibleResponder, "not your exchange")
	}
	if len(indices) != ex.keepCount {
		return reject(CodeInvalidSelection, "must select %d card%s", ex.keepCount, plural(ex.keepCount))
	}
	chosen := make([]bool, len(ex.pool))
	for _, i := range indices {
		if i < 0 || i >= len(ex.pool) {
			return reject(CodeInvalidSelection, "invalid card selection %d", i)
		}
		if chosen[i] {
			return reject(CodeInvalidSelection, "duplicate card selection %d", i)
		}
		chosen[i] = true
	}

	for n, i := range indices {
		p.Hand[ex.slots[n]] = CardSlot{Character: ex.pool[i]}
	}
	rest := make([]Character, 0, len(ex.pool)-len(indices))
	for i, c := range ex.pool {
		if !chosen[i] {
			rest = append(rest, c)
		}
	}
	g.deck.ReturnAndReshuffle(rest...)
	g.record(LogEntry{Message: p.Name + " completed an Ambassador exchange.", Kind: LogAction, Outcome: OutcomeSuccess, Seats: []int{seat}})
	g.advanceTurn()
	return nil
}
