package game

// IntentType names a player move.
type IntentType string

const (
	IntentAction         IntentType = "action"
	IntentChallenge      IntentType = "challenge"
	IntentBlock          IntentType = "block"
	IntentPass           IntentType = "pass"
	IntentChooseCard     IntentType = "choose_card"
	IntentChooseExchange IntentType = "choose_exchange"
)

// Intent is one decoded player move. Only the fields its Type uses are read.
type Intent struct {
	Type      IntentType `json:"type"`
	Action    ActionKind `json:"action,omitempty"`
	Target    int        `json:"target"`
	Character Character  `json:"character,omitempty"`
	Slot      int        `json:"card"`
	Indices   []int      `json:"indices,omitempty"`
}

// Apply routes an intent from seat to the matching operation.
func (g *Game) Apply(seat int, in Intent) (Result, error) {
	switch in.Type {
	case IntentAction:
		return g.PerformAction(seat, in.Action, in.Target, in.Character)
	case IntentChallenge:
		return g.Challenge(seat, in.Target, in.Character)
	case IntentBlock:
		return g.Block(seat, in.Target, in.Character)
	case IntentPass:
		if err := g.Pass(seat); err != nil {
			return Result{}, err
		}
	case IntentChooseCard:
		if err := g.ChooseCard(seat, in.Slot); err != nil {
			return Result{}, err
		}
	case IntentChooseExchange:
		if err := g.ChooseAmbassadorKeep(seat, in.Indices); err != nil {
			return Result{}, err
		}
	default:
		return Result{}, reject(CodeInvalidAction, "unknown intent %q", in.Type)
	}
	return g.result(), nil
}

// LegalIntents lists the intent types seat may send right now. Targets and
// characters are left for the client to fill in.
func (g *Game) LegalIntents(seat int) []IntentType {
	switch g.RoleOf(seat) {
	case RoleTurn:
		return []IntentType{IntentAction}
	case RoleChooser:
		return []IntentType{IntentChooseCard}
	case RoleExchanger:
		return []IntentType{IntentChooseExchange}
	}
	pos, ok := g.position(seat)
	if !ok || g.window == nil || !g.window.eligible.has(pos) {
		return nil
	}
	var out []IntentType
	if g.window.kind == challengeWindow {
		out = append(out, IntentChallenge)
	} else {
		out = append(out, IntentBlock)
	}
	if !g.window.passed.has(pos) {
		out = append(out, IntentPass)
	}
	return out
}

// LegalActions lists the action kinds the current player can afford.
func (g *Game) LegalActions(seat int) []ActionKind {
	if g.RoleOf(seat) != RoleTurn {
		return nil
	}
	p := g.player(seat)
	if p.Coins >= g.rules.MandatoryCoupAt {
		return []ActionKind{ActionCoup}
	}
	out := make([]ActionKind, 0, len(ActionKinds))
	for _, k := range ActionKinds {
		switch {
		case k == ActionCoup && p.Coins < g.rules.CoupCost:
		case k == ActionAssassin && p.Coins < g.rules.AssassinCost:
		default:
			out = append(out, k)
		}
	}
	return out
}
