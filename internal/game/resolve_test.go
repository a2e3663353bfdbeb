package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDukeUnanimousPass(t *testing.T) {
	g := newTable(t, 4)
	gen := g.TurnGeneration()
	res, err := g.PerformAction(0, ActionDuke, NoSeat, Duke)
	require.NoError(t, err)
	assert.Equal(t, Result{RequiresChallenge: true, Chooser: NoSeat}, res)

	s := g.PublicState(NoSeat)
	require.NotNil(t, s.Response)
	assert.Equal(t, "challenge", s.Response.Kind)
	assert.Equal(t, []int{1, 2, 3}, s.Response.Eligible)

	requireCode(t, g.Pass(0), CodeIneligibleResponder)
	require.NoError(t, g.Pass(1))
	require.NoError(t, g.Pass(3))
	assert.Equal(t, PhaseChallenge, g.Phase(), "window stays open until the last eligible seat passes")
	assert.Equal(t, 2, g.player(0).Coins)

	require.NoError(t, g.Pass(2))
	assert.Equal(t, 5, g.player(0).Coins)
	assert.Equal(t, PhasePlaying, g.Phase())
	assert.Equal(t, 1, g.CurrentSeat())
	assert.Equal(t, gen+1, g.TurnGeneration())
	requireInvariants(t, g)
}

func TestPassTwiceIsRejected(t *testing.T) {
	g := newTable(t, 3)
	_, err := g.PerformAction(0, ActionDuke, NoSeat, NoCharacter)
	require.NoError(t, err)
	require.NoError(t, g.Pass(1))
	before := stateOf(g)

	requireCode(t, g.Pass(1), CodeIneligibleResponder)
	assert.Equal(t, before, stateOf(g))
	assert.Equal(t, []int{1}, g.PublicState(NoSeat).Response.Passed)
	requireCode(t, g.Pass(42), CodeUnknownSeat)
}

func TestChallengeClosesWindowEarly(t *testing.T) {
	g := newTable(t, 4)
	deal(t, g, map[int][HandSize]Character{0: {Captain, Contessa}})
	_, err := g.PerformAction(0, ActionDuke, NoSeat, NoCharacter)
	require.NoError(t, err)
	require.NoError(t, g.Pass(1))

	res, err := g.Challenge(2, 0, Duke)
	require.NoError(t, err)
	assert.Equal(t, Result{RequiresCardChoice: true, Chooser: 0}, res)
	assert.Nil(t, g.PublicState(NoSeat).Response)
	requireCode(t, g.Pass(3), CodeInvalidPhase)

	p := g.PublicState(NoSeat).Pending
	require.NotNil(t, p)
	assert.Equal(t, "reveal", p.Stage)
	assert.Equal(t, 2, p.Challenger)
	assert.Equal(t, "pending", p.ChallengeResult)

	require.NoError(t, g.ChooseCard(0, 1))
	assert.True(t, g.player(0).Hand[1].Revealed)
	assert.Equal(t, 2, g.player(0).Coins, "a disproven claim is cancelled")
	assert.Equal(t, 1, g.CurrentSeat())
	requireInvariants(t, g)
}

func TestChallengeRejections(t *testing.T) {
	g := newTable(t, 3)
	_, err := g.Challenge(1, 0, Duke)
	requireCode(t, err, CodeInvalidPhase)

	_, err = g.PerformAction(0, ActionDuke, NoSeat, NoCharacter)
	require.NoError(t, err)
	before := stateOf(g)

	_, err = g.Challenge(1, 2, Duke)
	requireCode(t, err, CodeInvalidClaim)
	_, err = g.Challenge(1, 0, Captain)
	requireCode(t, err, CodeInvalidClaim)
	_, err = g.Challenge(0, 0, Duke)
	requireCode(t, err, CodeInvalidTarget)
	_, err = g.Challenge(9, 0, Duke)
	requireCode(t, err, CodeUnknownSeat)
	assert.Equal(t, before, stateOf(g))

	require.NoError(t, g.Pass(1))
	_, err = g.Challenge(1, 0, Duke)
	require.NoError(t, err, "a seat that passed may still challenge while the window is open")
}

func TestFailedChallengePaysTax(t *testing.T) {
	g := newTable(t, 3)
	deal(t, g, map[int][HandSize]Character{
		0: {Captain, Duke},
		1: {Contessa, Assassin},
	})
	_, err := g.PerformAction(0, ActionDuke, NoSeat, NoCharacter)
	require.NoError(t, err)
	_, err = g.Challenge(1, 0, Duke)
	require.NoError(t, err)

	require.NoError(t, g.ChooseCard(0, 1))
	assert.False(t, g.player(0).Hand[1].Revealed, "a proven card is swapped, not lost")
	assert.Equal(t, PhaseChooseCard, g.Phase())
	assert.Equal(t, 1, g.chooser())
	p := g.PublicState(NoSeat).Pending
	assert.Equal(t, "loss", p.Stage)
	assert.Equal(t, "failed", p.ChallengeResult)
	requireConserved(t, g)

	requireCode(t, g.ChooseCard(0, 0), CodeIneligibleResponder)
	require.NoError(t, g.ChooseCard(1, 0))
	assert.True(t, g.player(1).Hand[0].Revealed)
	assert.Equal(t, 5, g.player(0).Coins)
	assert.Equal(t, 1, g.CurrentSeat())
	requireInvariants(t, g)
}

func TestAssassinBlockedByRealContessa(t *testing.T) {
	g := newTable(t, 3)
	deal(t, g, map[int][HandSize]Character{
		0: {Assassin, Duke},
		1: {Contessa, Captain},
		2: {Duke, Captain},
	})
	setCoins(g, 0, 3)

	res, err := g.PerformAction(0, ActionAssassin, 1, NoCharacter)
	require.NoError(t, err)
	assert.True(t, res.RequiresChallenge)
	assert.Equal(t, 0, g.player(0).Coins, "assassin fee is paid up front")

	require.NoError(t, g.Pass(1))
	require.NoError(t, g.Pass(2))
	require.Equal(t, PhaseBlock, g.Phase())
	assert.Equal(t, []int{1}, g.PublicState(NoSeat).Response.Eligible)

	_, err = g.Block(2, 0, Contessa)
	requireCode(t, err, CodeIneligibleResponder)
	_, err = g.Block(1, 0, Duke)
	requireCode(t, err, CodeInvalidClaim)
	_, err = g.Block(1, 2, Contessa)
	requireCode(t, err, CodeInvalidTarget)

	res, err = g.Block(1, 0, Contessa)
	require.NoError(t, err)
	assert.True(t, res.RequiresChallenge)
	assert.Equal(t, []int{0, 2}, g.PublicState(NoSeat).Response.Eligible)

	_, err = g.Challenge(2, 0, Assassin)
	requireCode(t, err, CodeInvalidClaim)
	_, err = g.Challenge(2, 1, Duke)
	requireCode(t, err, CodeInvalidClaim)

	res, err = g.Challenge(2, 1, Contessa)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Chooser)

	require.NoError(t, g.ChooseCard(1, slotOf(t, g, 1, Contessa)))
	assert.Equal(t, 2, g.player(1).Influence())
	assert.Equal(t, 2, g.chooser())

	require.NoError(t, g.ChooseCard(2, 0))
	assert.Equal(t, 1, g.player(2).Influence())
	assert.Equal(t, 2, g.player(1).Influence(), "assassination is cancelled")
	assert.Equal(t, 0, g.player(0).Coins)
	assert.Equal(t, PhasePlaying, g.Phase())
	assert.Equal(t, 1, g.CurrentSeat())
	requireInvariants(t, g)
}

func TestAssassinationGoesThrough(t *testing.T) {
	g := newTable(t, 3)
	setCoins(g, 0, 4)
	_, err := g.PerformAction(0, ActionAssassin, 2, Assassin)
	require.NoError(t, err)
	require.NoError(t, g.Pass(1))
	require.NoError(t, g.Pass(2))
	require.NoError(t, g.Pass(2))

	assert.Equal(t, PhaseChooseCard, g.Phase())
	p := g.PublicState(NoSeat).Pending
	assert.Equal(t, "forced-reveal", p.Stage)
	assert.Equal(t, 2, p.Chooser)

	require.NoError(t, g.ChooseCard(2, 0))
	assert.Equal(t, 1, g.player(2).Influence())
	assert.Equal(t, 1, g.player(0).Coins)
	assert.Equal(t, 1, g.CurrentSeat())
	requireInvariants(t, g)
}

func TestCaptainChallengedWithoutCaptain(t *testing.T) {
	g := newTable(t, 3)
	deal(t, g, map[int][HandSize]Character{
		0: {Duke, Contessa},
		1: {Assassin, Ambassador},
	})
	_, err := g.PerformAction(0, ActionCaptain, 1, NoCharacter)
	require.NoError(t, err)
	_, err = g.Challenge(1, 0, Captain)
	require.NoError(t, err)
	require.NoError(t, g.ChooseCard(0, 0))

	assert.True(t, g.player(0).Hand[0].Revealed)
	assert.Equal(t, 2, g.player(0).Coins)
	assert.Equal(t, 2, g.player(1).Coins)
	assert.Equal(t, 1, g.CurrentSeat())
	requireInvariants(t, g)
}

func TestCaptainStealsAtMostWhatTargetHas(t *testing.T) {
	g := newTable(t, 2)
	setCoins(g, 1, 1)
	_, err := g.PerformAction(0, ActionCaptain, 1, NoCharacter)
	require.NoError(t, err)
	require.NoError(t, g.Pass(1))
	require.Equal(t, PhaseBlock, g.Phase())
	require.NoError(t, g.Pass(1))

	assert.Equal(t, 3, g.player(0).Coins)
	assert.Equal(t, 0, g.player(1).Coins)
}

func TestStealBlockersFollowRules(t *testing.T) {
	g := newTable(t, 2)
	_, err := g.PerformAction(0, ActionCaptain, 1, NoCharacter)
	require.NoError(t, err)
	require.NoError(t, g.Pass(1))
	_, err = g.Block(1, 0, Ambassador)
	requireCode(t, err, CodeInvalidClaim)

	r := DefaultRules()
	r.Blockers[ActionCaptain] = []Character{Captain, Ambassador}
	g = newTable(t, 2, WithRules(r))
	_, err = g.PerformAction(0, ActionCaptain, 1, NoCharacter)
	require.NoError(t, err)
	require.NoError(t, g.Pass(1))
	_, err = g.Block(1, 0, Ambassador)
	require.NoError(t, err)
	require.NoError(t, g.Pass(0))
	assert.Equal(t, 2, g.player(0).Coins, "unchallenged block cancels the steal")
	assert.Equal(t, 2, g.player(1).Coins)
}

func TestForeignAidBlockStands(t *testing.T) {
	g := newTable(t, 3)
	res, err := g.PerformAction(0, ActionForeignAid, NoSeat, NoCharacter)
	require.NoError(t, err)
	assert.True(t, res.RequiresBlock)
	_, err = g.Challenge(1, 0, Duke)
	requireCode(t, err, CodeInvalidPhase)

	require.NoError(t, g.Pass(2))
	_, err = g.Block(2, 0, Duke)
	require.NoError(t, err, "a seat that passed may still block while the window is open")
	require.NoError(t, g.Pass(0))
	require.NoError(t, g.Pass(1))

	assert.Equal(t, 2, g.player(0).Coins)
	assert.Equal(t, 1, g.CurrentSeat())
	requireInvariants(t, g)
}

func TestForeignAidBlockCollapses(t *testing.T) {
	g := newTable(t, 3)
	deal(t, g, map[int][HandSize]Character{1: {Contessa, Captain}})
	_, err := g.PerformAction(0, ActionForeignAid, NoSeat, NoCharacter)
	require.NoError(t, err)
	_, err = g.Block(1, 0, Duke)
	require.NoError(t, err)
	_, err = g.Challenge(0, 1, Duke)
	require.NoError(t, err)
	require.NoError(t, g.ChooseCard(1, 0))

	assert.True(t, g.player(1).Hand[0].Revealed)
	assert.Equal(t, 4, g.player(0).Coins)
	assert.Equal(t, 1, g.CurrentSeat())
	requireInvariants(t, g)
}

func TestForeignAidUnblocked(t *testing.T) {
	g := newTable(t, 2)
	_, err := g.PerformAction(0, ActionForeignAid, NoSeat, NoCharacter)
	require.NoError(t, err)
	require.NoError(t, g.Pass(1))
	assert.Equal(t, 4, g.player(0).Coins)
}

func TestAmbassadorExchange(t *testing.T) {
	g := newTable(t, 2)
	deal(t, g, map[int][HandSize]Character{0: {Duke, Captain}})
	deckSize := g.deck.Len()

	_, err := g.PerformAction(0, ActionAmbassador, NoSeat, NoCharacter)
	require.NoError(t, err)
	require.NoError(t, g.Pass(1))
	require.Equal(t, PhaseExchange, g.Phase())
	assert.Equal(t, deckSize-2, g.deck.Len())
	requireConserved(t, g)

	ex := g.PublicState(0).Exchange
	require.NotNil(t, ex)
	require.Len(t, ex.Options, 4)
	assert.Equal(t, []Character{Duke, Captain}, ex.Options[:2], "current cards come first")

	before := stateOf(g)
	requireCode(t, g.ChooseAmbassadorKeep(1, []int{0, 1}), CodeIneligibleResponder)
	requireCode(t, g.ChooseAmbassadorKeep(0, []int{0}), CodeInvalidSelection)
	requireCode(t, g.ChooseAmbassadorKeep(0, []int{1, 1}), CodeInvalidSelection)
	requireCode(t, g.ChooseAmbassadorKeep(0, []int{0, 4}), CodeInvalidSelection)
	requireCode(t, g.ChooseAmbassadorKeep(0, []int{0, 1, 2}), CodeInvalidSelection)
	assert.Equal(t, before, stateOf(g))

	require.NoError(t, g.ChooseAmbassadorKeep(0, []int{3, 2}))
	h := g.player(0).Hand
	assert.Equal(t, ex.Options[3], h[0].Character)
	assert.Equal(t, ex.Options[2], h[1].Character)
	assert.Equal(t, deckSize, g.deck.Len())
	assert.Equal(t, 1, g.CurrentSeat())
	requireInvariants(t, g)
}

func TestAmbassadorWithOneCardKeepsOne(t *testing.T) {
	g := newTable(t, 2)
	g.player(0).Hand[0].Revealed = true
	_, err := g.PerformAction(0, ActionAmbassador, NoSeat, NoCharacter)
	require.NoError(t, err)
	require.NoError(t, g.Pass(1))

	ex := g.PublicState(0).Exchange
	require.NotNil(t, ex)
	assert.Len(t, ex.Options, 3)
	assert.Equal(t, 1, ex.KeepCount)
	require.NoError(t, g.ChooseAmbassadorKeep(0, []int{2}))
	assert.True(t, g.player(0).Hand[0].Revealed, "revealed slots are untouched")
	assert.Equal(t, ex.Options[2], g.player(0).Hand[1].Character)
	requireInvariants(t, g)
}

func TestFailedChallengeOnAmbassadorStillExchanges(t *testing.T) {
	g := newTable(t, 3)
	deal(t, g, map[int][HandSize]Character{0: {Ambassador, Duke}})
	_, err := g.PerformAction(0, ActionAmbassador, NoSeat, NoCharacter)
	require.NoError(t, err)
	_, err = g.Challenge(2, 0, Ambassador)
	require.NoError(t, err)
	require.NoError(t, g.ChooseCard(0, 0))
	require.NoError(t, g.ChooseCard(2, 1))

	assert.Equal(t, PhaseExchange, g.Phase())
	assert.Equal(t, 1, g.player(2).Influence())
	requireInvariants(t, g)
}

func TestChallengerEliminatedAsTarget(t *testing.T) {
	g := newTable(t, 3)
	deal(t, g, map[int][HandSize]Character{0: {Assassin, Duke}})
	g.player(1).Hand[1].Revealed = true
	setCoins(g, 0, 3)

	_, err := g.PerformAction(0, ActionAssassin, 1, NoCharacter)
	require.NoError(t, err)
	_, err = g.Challenge(1, 0, Assassin)
	require.NoError(t, err)
	require.NoError(t, g.ChooseCard(0, 0))
	require.NoError(t, g.ChooseCard(1, 0))

	assert.True(t, g.player(1).Eliminated)
	assert.Equal(t, PhasePlaying, g.Phase(), "no block window for an eliminated target")
	assert.Equal(t, 2, g.CurrentSeat())
	requireInvariants(t, g)
}
