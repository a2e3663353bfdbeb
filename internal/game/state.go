package game

// Snapshot is the table as one viewer may see it.
type Snapshot struct {
	Room           string        `json:"room"`
	Viewer         int           `json:"viewer"`
	Phase          Phase         `json:"phase"`
	CurrentSeat    int           `json:"currentSeat"`
	TurnGeneration uint64        `json:"turnGeneration"`
	Host           int           `json:"host"`
	DeckSize       int           `json:"deckSize"`
	Players        []PlayerView  `json:"players"`
	Winner         *WinnerView   `json:"winner"`
	Pending        *PendingView  `json:"pending,omitempty"`
	Response       *ResponseView `json:"response,omitempty"`
	Exchange       *ExchangeView `json:"exchange,omitempty"`
	Log            []LogEntry    `json:"logs"`
}

type PlayerView struct {
	Seat       int        `json:"seat"`
	Name       string     `json:"name"`
	Coins      int        `json:"coins"`
	Cards      []CardView `json:"cards"`
	CardCount  int        `json:"cardCount"`
	Eliminated bool       `json:"eliminated"`
	LastClaim  Character  `json:"lastClaim,omitempty"`
}

// CardView is a slot after redaction; Character is HiddenCard unless the viewer may see it.
type CardView struct {
	Character string `json:"character"`
	Revealed  bool   `json:"revealed"`
}

type WinnerView struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
}

// PendingView is the public face of the action in flight. Seats that do not
// apply are NoSeat.
type PendingView struct {
	Stage           string     `json:"stage"`
	Action          ActionKind `json:"action,omitempty"`
	Actor           int        `json:"actor"`
	Target          int        `json:"target"`
	Claim           Character  `json:"claim,omitempty"`
	Blocker         int        `json:"blocker"`
	BlockClaim      Character  `json:"blockClaim,omitempty"`
	Challenger      int        `json:"challenger"`
	Challenged      int        `json:"challenged"`
	ChallengedClaim Character  `json:"challengedClaim,omitempty"`
	ChallengeResult string     `json:"challengeResult,omitempty"`
	Chooser         int        `json:"chooser"`
}

type ResponseView struct {
	Kind     string `json:"kind"`
	Eligible []int  `json:"eligible"`
	Passed   []int  `json:"passed"`
}

// ExchangeView is the private option pool, only ever built for the exchanging seat.
type ExchangeView struct {
	Options   []Character `json:"options"`
	KeepCount int         `json:"keepCount"`
}

// PublicState projects the table for viewer. NoSeat gives the fully public view.
func (g *Game) PublicState(viewer int) Snapshot {
	s := Snapshot{
		Room:           g.id,
		Viewer:         viewer,
		Phase:          g.phase,
		CurrentSeat:    g.CurrentSeat(),
		TurnGeneration: g.gen,
		Host:           g.host,
		DeckSize:       g.deck.Len(),
		Players:        make([]PlayerView, 0, len(g.players)),
		Log:            g.log.Recent(g.rules.LogCapacity),
	}
	for _, p := range g.players {
		pv := PlayerView{
			Seat:       p.Seat,
			Name:       p.Name,
			Coins:      p.Coins,
			Cards:      make([]CardView, 0, HandSize),
			CardCount:  p.Influence(),
			Eliminated: p.Eliminated,
		}
		for _, slot := range p.Hand {
			cv := CardView{Character: HiddenCard, Revealed: slot.Revealed}
			if slot.Revealed || (viewer != NoSeat && p.Seat == viewer) {
				cv.Character = slot.Character.String()
			}
			pv.Cards = append(pv.Cards, cv)
		}
		if c, ok := g.log.LastClaim(p.Seat); ok {
			pv.LastClaim = c
		}
		s.Players = append(s.Players, pv)
	}
	if g.winner != NoSeat {
		s.Winner = &WinnerView{Seat: g.winner, Name: g.name(g.winner)}
	}
	if g.pending != nil {
		s.Pending = g.pendingView()
	}
	if g.window != nil {
		s.Response = &ResponseView{
			Kind:     string(g.window.kind),
			Eligible: g.seatsOf(g.window.eligible),
			Passed:   g.seatsOf(g.window.passed),
		}
	}
	if ex, ok := g.pending.(*ambassadorExchange); ok && viewer != NoSeat && ex.actor == viewer {
		s.Exchange = &ExchangeView{Options: append([]Character(nil), ex.pool...), KeepCount: ex.keepCount}
	}
	return s
}

func (g *Game) pendingView() *PendingView {
	v := &PendingView{
		Stage:      g.pending.stage(),
		Actor:      NoSeat,
		Target:     NoSeat,
		Blocker:    NoSeat,
		Challenger: NoSeat,
		Challenged: NoSeat,
		Chooser:    g.chooser(),
	}
	fill := func(a stagedAction, b *blockClaim) {
		v.Action, v.Actor, v.Target, v.Claim = a.kind, a.actor, a.target, a.kind.Claim()
		if b != nil {
			v.Blocker, v.BlockClaim = b.blocker, b.character
		}
	}
	switch p := g.pending.(type) {
	case *awaitingResponse:
		fill(p.action, p.block)
	case *challengeReveal:
		fill(p.action, p.block)
		v.Challenger, v.Challenged, v.ChallengedClaim = p.challenge.challenger, p.challenge.challenged, p.challenge.character
		v.ChallengeResult = "pending"
	case *challengerLoss:
		fill(p.action, p.block)
		v.Challenger, v.Challenged, v.ChallengedClaim = p.challenge.challenger, p.challenge.challenged, p.challenge.character
		v.ChallengeResult = "failed"
	case *forcedReveal:
		v.Action, v.Actor, v.Target = p.cause, p.actor, p.target
	case *ambassadorExchange:
		v.Action, v.Actor, v.Claim = ActionAmbassador, p.actor, Ambassador
	}
	return v
}
