package game

// HandSize is the number of card slots every player owns for the whole game.
const HandSize = 2

// NoSeat marks an absent seat: no target, no viewer, no winner.
const NoSeat = -1

// CardSlot is one influence slot. Its character may be replaced but the slot never goes away.
type CardSlot struct {
	Character Character `json:"character"`
	Revealed  bool      `json:"revealed"`
}

// Player is a seated player. Only the Game mutates it.
type Player struct {
	Seat       int
	Name       string
	Coins      int
	Hand       [HandSize]CardSlot
	Eliminated bool
}

// Influence is the number of concealed slots left.
func (p *Player) Influence() int {
	n := 0
	for _, s := range p.Hand {
		if !s.Revealed {
			n++
		}
	}
	return n
}

// firstConcealed returns the index of the first unrevealed slot, or -1.
func (p *Player) firstConcealed() int {
	for i, s := range p.Hand {
		if !s.Revealed {
			return i
		}
	}
	return -1
}

func (p *Player) concealedSlots() []int {
	out := make([]int, 0, HandSize)
	for i, s := range p.Hand {
		if !s.Revealed {
			out = append(out, i)
		}
	}
	return out
}
