package game

import (
	crand "crypto/rand"
	"math/big"
	"math/rand/v2"
)

// CopiesPerCharacter is how many of each character a fresh deck holds.
const CopiesPerCharacter = 3

// DeckSize is the total number of tokens in circulation.
const DeckSize = CopiesPerCharacter * 5

// Deck is the shuffled draw pile. The top of the pile is the end of the slice.
type Deck struct {
	cards []Character
	intn  func(n int) int
}

// NewDeck returns an empty deck that shuffles with intn, or crypto/rand when intn is nil.
func NewDeck(intn func(n int) int) *Deck {
	if intn == nil {
		intn = cryptoIntn
	}
	return &Deck{intn: intn}
}

// Refill rebuilds the full 15 token multiset and shuffles it.
func (d *Deck) Refill() {
	d.cards = d.cards[:0]
	for _, c := range Characters {
		for range CopiesPerCharacter {
			d.cards = append(d.cards, c)
		}
	}
	d.shuffle()
}

// Len is the number of tokens left in the pile.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Draw takes the top token. ok is false when the pile is empty.
func (d *Deck) Draw() (c Character, ok bool) {
	if len(d.cards) == 0 {
		return NoCharacter, false
	}
	c = d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, true
}

// ReturnAndReshuffle puts tokens back and reshuffles the whole pile so the
// return order never leaks into the draw order.
func (d *Deck) ReturnAndReshuffle(cs ...Character) {
	d.cards = append(d.cards, cs...)
	d.shuffle()
}

// Count returns how many copies of c are left in the pile.
func (d *Deck) Count(c Character) int {
	n := 0
	for _, x := range d.cards {
		if x == c {
			n++
		}
	}
	return n
}

// Fisher-Yates
func (d *Deck) shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

func cryptoIntn(n int) int {
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return rand.IntN(n)
	}
	return int(v.Int64())
}
