package game

import "fmt"

// ActionKind is a turn action.
type ActionKind string

const (
	ActionIncome     ActionKind = "income"
	ActionForeignAid ActionKind = "foreign-aid"
	ActionCoup       ActionKind = "coup"
	ActionDuke       ActionKind = "duke"
	ActionAssassin   ActionKind = "assassin"
	ActionCaptain    ActionKind = "captain"
	ActionAmbassador ActionKind = "ambassador"
)

// ActionKinds lists every action in the order clients usually present them.
var ActionKinds = []ActionKind{
	ActionIncome, ActionForeignAid, ActionCoup,
	ActionDuke, ActionAssassin, ActionCaptain, ActionAmbassador,
}

// Claim is the character an action asserts, or NoCharacter for unclaimed actions.
func (k ActionKind) Claim() Character {
	switch k {
	case ActionDuke:
		return Duke
	case ActionAssassin:
		return Assassin
	case ActionCaptain:
		return Captain
	case ActionAmbassador:
		return Ambassador
	}
	return NoCharacter
}

func (k ActionKind) valid() bool {
	for _, a := range ActionKinds {
		if a == k {
			return true
		}
	}
	return false
}

func (k ActionKind) targeted() bool {
	return k == ActionCoup || k == ActionAssassin || k == ActionCaptain
}

// label is the noun used in narration.
func (k ActionKind) label() string {
	switch k {
	case ActionForeignAid:
		return "Foreign Aid"
	case ActionAssassin:
		return "assassination"
	case ActionCaptain:
		return "steal"
	}
	return "action"
}

// Rules is the tunable rule table. The zero value is not usable; start from DefaultRules.
type Rules struct {
	StartingCoins   int
	IncomeGain      int
	ForeignAidGain  int
	TaxGain         int
	StealAmount     int
	CoupCost        int
	AssassinCost    int
	MandatoryCoupAt int
	ExchangeDraw    int
	MinPlayers      int
	MaxPlayers      int
	LogCapacity     int

	// Blockers lists, per blockable action, the characters a block may claim.
	Blockers map[ActionKind][]Character
}

// MaxLogCapacity bounds the event log a table may keep.
const MaxLogCapacity = 1000

// DefaultRules returns the standard table. Stealing is blocked by Captain only;
// add Ambassador to Blockers[ActionCaptain] for the tabletop variant.
func DefaultRules() Rules {
	return Rules{
		StartingCoins:   2,
		IncomeGain:      1,
		ForeignAidGain:  2,
		TaxGain:         3,
		StealAmount:     2,
		CoupCost:        7,
		AssassinCost:    3,
		MandatoryCoupAt: 10,
		ExchangeDraw:    2,
		MinPlayers:      2,
		MaxPlayers:      6,
		LogCapacity:     40,
		Blockers: map[ActionKind][]Character{
			ActionForeignAid: {Duke},
			ActionAssassin:   {Contessa},
			ActionCaptain:    {Captain},
		},
	}
}

// Validate checks the table for values the engine cannot honour.
func (r Rules) Validate() error {
	switch {
	case r.MinPlayers < 2:
		return fmt.Errorf("min players %d below 2", r.MinPlayers)
	case r.MaxPlayers < r.MinPlayers || r.MaxPlayers > maxTableSize:
		return fmt.Errorf("max players %d outside [%d, %d]", r.MaxPlayers, r.MinPlayers, maxTableSize)
	case r.MaxPlayers*HandSize > DeckSize:
		return fmt.Errorf("max players %d cannot be dealt from %d cards", r.MaxPlayers, DeckSize)
	case r.StartingCoins < 0, r.IncomeGain < 0, r.ForeignAidGain < 0, r.TaxGain < 0, r.StealAmount < 0:
		return fmt.Errorf("coin amounts must not be negative")
	case r.CoupCost < 0 || r.AssassinCost < 0:
		return fmt.Errorf("action costs must not be negative")
	case r.MandatoryCoupAt < r.CoupCost:
		return fmt.Errorf("mandatory coup threshold %d below coup cost %d", r.MandatoryCoupAt, r.CoupCost)
	case r.ExchangeDraw < 0 || r.MaxPlayers*HandSize+r.ExchangeDraw > DeckSize:
		return fmt.Errorf("exchange draw %d out of range", r.ExchangeDraw)
	case r.LogCapacity < 1 || r.LogCapacity > MaxLogCapacity:
		return fmt.Errorf("log capacity %d outside [1, %d]", r.LogCapacity, MaxLogCapacity)
	}
	for kind, chars := range r.Blockers {
		if kind != ActionForeignAid && kind != ActionAssassin && kind != ActionCaptain {
			return fmt.Errorf("action %q cannot be blocked", kind)
		}
		for _, c := range chars {
			if !c.Valid() {
				return fmt.Errorf("invalid blocker for %q", kind)
			}
		}
	}
	return nil
}

func (r Rules) canBlock(kind ActionKind, c Character) bool {
	for _, b := range r.Blockers[kind] {
		if b == c {
			return true
		}
	}
	return false
}

func (r Rules) clone() Rules {
	out := r
	out.Blockers = make(map[ActionKind][]Character, len(r.Blockers))
	for k, v := range r.Blockers {
		out.Blockers[k] = append([]Character(nil), v...)
	}
	return out
}
