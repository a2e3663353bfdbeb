package game

import "fmt"

// Result tells the caller what the table is waiting for after a successful call.
type Result struct {
	RequiresChallenge  bool `json:"requiresChallenge,omitempty"`
	RequiresBlock      bool `json:"requiresBlock,omitempty"`
	RequiresCardChoice bool `json:"requiresCardChoice,omitempty"`
	RequiresExchange   bool `json:"requiresExchange,omitempty"`
	Chooser            int  `json:"chooser"`
}

func (g *Game) result() Result {
	r := Result{Chooser: NoSeat}
	switch g.phase {
	case PhaseChallenge:
		r.RequiresChallenge = true
	case PhaseBlock:
		r.RequiresBlock = true
	case PhaseChooseCard:
		r.RequiresCardChoice = true
		r.Chooser = g.chooser()
	case PhaseExchange:
		r.RequiresExchange = true
		if ex, ok := g.pending.(*ambassadorExchange); ok {
			r.Chooser = ex.actor
		}
	}
	return r
}

// PerformAction declares the current player's action. target is NoSeat for
// untargeted kinds; claim may be NoCharacter or must match the kind.
func (g *Game) PerformAction(seat int, kind ActionKind, target int, claim Character) (Result, error) {
	if g.phase != PhasePlaying {
		return Result{}, reject(CodeInvalidPhase, "cannot act in phase %s", g.phase)
	}
	p := g.player(seat)
	if p == nil {
		return Result{}, reject(CodeUnknownSeat, "unknown seat %d", seat)
	}
	if p.Eliminated || g.CurrentSeat() != seat {
		return Result{}, reject(CodeNotYourTurn, "not your turn")
	}
	if !kind.valid() {
		return Result{}, reject(CodeInvalidAction, "unknown action %q", kind)
	}
	if p.Coins >= g.rules.MandatoryCoupAt && kind != ActionCoup {
		return Result{}, reject(CodeMandatoryCoup, "you must perform a coup with %d or more coins", g.rules.MandatoryCoupAt)
	}
	if claim != NoCharacter && claim != kind.Claim() {
		return Result{}, reject(CodeInvalidClaim, "%s does not justify %s", claim, kind)
	}
	switch kind {
	case ActionCoup:
		if p.Coins < g.rules.CoupCost {
			return Result{}, reject(CodeInsufficientFunds, "a coup costs %d coins", g.rules.CoupCost)
		}
	case ActionAssassin:
		if p.Coins < g.rules.AssassinCost {
			return Result{}, reject(CodeInsufficientFunds, "an assassination costs %d coins", g.rules.AssassinCost)
		}
	}
	if kind.targeted() {
		if err := g.checkTarget(seat, target); err != nil {
			return Result{}, err
		}
	} else {
		target = NoSeat
	}

	g.window = nil
	action := stagedAction{kind: kind, actor: seat, target: target}
	switch kind {
	case ActionIncome:
		p.Coins += g.rules.IncomeGain
		g.record(LogEntry{Message: fmt.Sprintf("%s took Income (+%d).", p.Name, g.rules.IncomeGain), Kind: LogAction, Outcome: OutcomeSuccess, Seats: []int{seat}})
		g.advanceTurn()
	case ActionForeignAid:
		g.record(LogEntry{Message: fmt.Sprintf("%s is taking Foreign Aid (+%d).", p.Name, g.rules.ForeignAidGain), Kind: LogAction, Seats: []int{seat}})
		g.pending = &awaitingResponse{action: action}
		g.openBlockWindow()
	case ActionCoup:
		p.Coins -= g.rules.CoupCost
		g.record(LogEntry{Message: fmt.Sprintf("%s launched a Coup against %s.", p.Name, g.name(target)), Kind: LogAction, Seats: []int{seat, target}})
		g.pending = &forcedReveal{actor: seat, target: target, cause: ActionCoup}
		g.phase = PhaseChooseCard
	default:
		if kind == ActionAssassin {
			p.Coins -= g.rules.AssassinCost
		}
		g.record(LogEntry{Message: g.claimMessage(p, action), Kind: LogAction, Seats: actionSeats(action), Claim: kind.Claim()})
		g.pending = &awaitingResponse{action: action}
		g.openChallengeWindow()
	}
	return g.result(), nil
}

func (g *Game) checkTarget(actor, target int) error {
	if target == NoSeat {
		return reject(CodeInvalidTarget, "a target is required")
	}
	if target == actor {
		return reject(CodeInvalidTarget, "cannot target yourself")
	}
	t := g.player(target)
	if t == nil || t.Eliminated {
		return reject(CodeInvalidTarget, "invalid target %d", target)
	}
	return nil
}

func (g *Game) claimMessage(p *Player, a stagedAction) string {
	switch a.kind {
	case ActionDuke:
		return fmt.Sprintf("%s claimed Duke (+%d).", p.Name, g.rules.TaxGain)
	case ActionAssassin:
		return fmt.Sprintf("%s attempted an assassination on %s.", p.Name, g.name(a.target))
	case ActionCaptain:
		return fmt.Sprintf("%s attempted to steal from %s.", p.Name, g.name(a.target))
	}
	return p.Name + " claimed Ambassador (exchange)."
}

func actionSeats(a stagedAction) []int {
	if a.target == NoSeat {
		return []int{a.actor}
	}
	return []int{a.actor, a.target}
}

// resolveNoChallenge runs when a challenge window closes with everybody passing.
func (g *Game) resolveNoChallenge() {
	aw := g.awaiting()
	if aw.block != nil {
		g.resolveUnchallengedBlock(aw)
		return
	}
	g.resolveUnchallengedAction(aw.action)
}

// resolveNoBlock runs when a block window closes with everybody passing.
func (g *Game) resolveNoBlock() {
	g.resolveActionIgnoringBlocks(g.awaiting().action)
}

// resolveUnchallengedAction applies a claim taken at face value.
func (g *Game) resolveUnchallengedAction(a stagedAction) {
	p := g.player(a.actor)
	switch a.kind {
	case ActionDuke:
		p.Coins += g.rules.TaxGain
		g.record(LogEntry{Message: fmt.Sprintf("No challenge. %s takes %d coins (Duke).", p.Name, g.rules.TaxGain), Kind: LogAction, Outcome: OutcomeSuccess, Seats: []int{a.actor}})
		g.advanceTurn()
	case ActionAmbassador:
		g.record(LogEntry{Message: fmt.Sprintf("No challenge. %s will exchange cards (Ambassador).", p.Name), Kind: LogAction, Outcome: OutcomeSuccess, Seats: []int{a.actor}})
		g.beginExchange(p)
	case ActionAssassin, ActionCaptain:
		g.pending = &awaitingResponse{action: a}
		g.openBlockWindow()
	default:
		panic(fmt.Sprintf("game %s: %s cannot be claimed", g.id, a.kind))
	}
}

// resolveActionIgnoringBlocks executes an action nobody stopped.
func (g *Game) resolveActionIgnoringBlocks(a stagedAction) {
	p := g.player(a.actor)
	switch a.kind {
	case ActionForeignAid:
		p.Coins += g.rules.ForeignAidGain
		g.record(LogEntry{Message: fmt.Sprintf("Foreign Aid succeeds. %s gains %d coins.", p.Name, g.rules.ForeignAidGain), Kind: LogAction, Outcome: OutcomeSuccess, Seats: []int{a.actor}})
		g.advanceTurn()
	case ActionAssassin:
		t := g.player(a.target)
		if t == nil || t.Eliminated {
			g.advanceTurn()
			return
		}
		g.record(LogEntry{Message: fmt.Sprintf("Assassination succeeds. %s must lose influence.", t.Name), Kind: LogAction, Outcome: OutcomeSuccess, Seats: []int{a.actor, a.target}})
		g.pending = &forcedReveal{actor: a.actor, target: a.target, cause: ActionAssassin}
		g.window = nil
		g.phase = PhaseChooseCard
	case ActionCaptain:
		t := g.player(a.target)
		if t == nil || t.Eliminated {
			g.advanceTurn()
			return
		}
		stolen := min(g.rules.StealAmount, t.Coins)
		t.Coins -= stolen
		p.Coins += stolen
		g.record(LogEntry{Message: fmt.Sprintf("%s steals %d coin%s from %s.", p.Name, stolen, plural(stolen), t.Name), Kind: LogAction, Outcome: OutcomeSuccess, Seats: []int{a.actor, a.target}})
		g.advanceTurn()
	default:
		panic(fmt.Sprintf("game %s: %s cannot be blocked", g.id, a.kind))
	}
}

// resolveUnchallengedBlock cancels the action behind a block that stood.
func (g *Game) resolveUnchallengedBlock(aw *awaitingResponse) {
	seats := append([]int{aw.block.blocker}, actionSeats(aw.action)...)
	g.record(LogEntry{
		Message: fmt.Sprintf("%s's block stands. %s's %s is canceled.", g.name(aw.block.blocker), g.name(aw.action.actor), aw.action.kind.label()),
		Kind:    LogBlock,
		Outcome: OutcomeSuccess,
		Seats:   seats,
	})
	g.advanceTurn()
}

func (g *Game) beginExchange(p *Player) {
	slots := p.concealedSlots()
	pool := make([]Character, 0, len(slots)+g.rules.ExchangeDraw)
	for _, s := range slots {
		pool = append(pool, p.Hand[s].Character)
	}
	drawn := 0
	for range g.rules.ExchangeDraw {
		c, ok := g.deck.Draw()
		if !ok {
			break
		}
		pool = append(pool, c)
		drawn++
	}
	g.pending = &ambassadorExchange{actor: p.Seat, pool: pool, drawn: drawn, keepCount: len(slots), slots: slots}
	g.window = nil
	g.phase = PhaseExchange
	g.record(LogEntry{Message: fmt.Sprintf("%s is choosing %d card%s to keep.", p.Name, len(slots), plural(len(slots))), Kind: LogAction, Seats: []int{p.Seat}})
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
