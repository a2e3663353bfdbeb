package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return epoch }

// newTable seats n players named after their seat and starts the game.
func newTable(t *testing.T, n int, opts ...Option) *Game {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock), WithRandom(func(int) int { return 0 })}, opts...)
	g, err := New("TEST01", opts...)
	require.NoError(t, err)
	for i := range n {
		seat, err := g.Join(fmt.Sprintf("p%d", i))
		require.NoError(t, err)
		require.Equal(t, i, seat)
	}
	require.NoError(t, g.Start())
	return g
}

// deal replaces every hand. Seats missing from hands get cards from what is left;
// everything else becomes the deck.
func deal(t *testing.T, g *Game, hands map[int][HandSize]Character) {
	t.Helper()
	left := make(map[Character]int, len(Characters))
	for _, c := range Characters {
		left[c] = CopiesPerCharacter
	}
	for _, h := range hands {
		for _, c := range h {
			left[c]--
			require.GreaterOrEqual(t, left[c], 0, "not enough %s to deal", c)
		}
	}
	var rest []Character
	for _, c := range Characters {
		for range left[c] {
			rest = append(rest, c)
		}
	}
	for _, p := range g.players {
		h, ok := hands[p.Seat]
		if !ok {
			h = [HandSize]Character{rest[len(rest)-1], rest[len(rest)-2]}
			rest = rest[:len(rest)-2]
		}
		for i := range p.Hand {
			p.Hand[i] = CardSlot{Character: h[i]}
		}
	}
	g.deck.cards = rest
}

func setCoins(g *Game, seat, coins int) {
	g.player(seat).Coins = coins
}

func slotOf(t *testing.T, g *Game, seat int, c Character) int {
	t.Helper()
	for i, s := range g.player(seat).Hand {
		if !s.Revealed && s.Character == c {
			return i
		}
	}
	t.Fatalf("seat %d has no concealed %s", seat, c)
	return -1
}

// requireConserved checks that every character is accounted for exactly once.
func requireConserved(t *testing.T, g *Game) {
	t.Helper()
	if g.phase == PhaseWaiting {
		return
	}
	count := make(map[Character]int)
	for _, c := range g.deck.cards {
		count[c]++
	}
	unrevealed, revealed := 0, 0
	for _, p := range g.players {
		for _, s := range p.Hand {
			count[s.Character]++
			if s.Revealed {
				revealed++
			} else {
				unrevealed++
			}
		}
	}
	drawn := 0
	if ex, ok := g.pending.(*ambassadorExchange); ok {
		drawn = ex.drawn
		for _, c := range ex.pool[len(ex.slots):] {
			count[c]++
		}
	}
	require.Equal(t, DeckSize-revealed, g.deck.Len()+unrevealed+drawn)
	for _, c := range Characters {
		require.Equal(t, CopiesPerCharacter, count[c], "copies of %s", c)
	}
}

func requireInvariants(t *testing.T, g *Game) {
	t.Helper()
	requireConserved(t, g)
	for pos, p := range g.players {
		require.Equal(t, p.Influence() == 0, p.Eliminated, "seat %d eliminated flag", p.Seat)
		if g.window != nil && p.Eliminated {
			require.False(t, g.window.eligible.has(pos), "eliminated seat %d is eligible", p.Seat)
		}
	}
	if g.window != nil {
		require.Equal(t, g.window.passed, g.window.passed&g.window.eligible)
		require.False(t, g.window.complete(), "complete window left open")
	}
	switch g.phase {
	case PhasePlaying:
		require.False(t, g.players[g.turn].Eliminated, "eliminated seat holds the turn")
		require.Nil(t, g.pending)
	case PhaseFinished:
		require.NotEqual(t, NoSeat, g.winner)
		require.LessOrEqual(t, g.activePositions().len(), 1)
	}
}

func requireCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, &Error{Code: code})
}
