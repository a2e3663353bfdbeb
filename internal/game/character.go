package game

import (
	"fmt"
	"strings"
)

// Character is an influence card.
type Character uint8

const (
	NoCharacter Character = iota
	Duke
	Assassin
	Captain
	Ambassador
	Contessa
)

// Characters lists every character in deck order.
var Characters = []Character{Duke, Assassin, Captain, Ambassador, Contessa}

// HiddenCard is what a concealed slot projects to for anybody but its owner.
const HiddenCard = "Hidden"

var characterNames = map[Character]string{
	Duke:       "Duke",
	Assassin:   "Assassin",
	Captain:    "Captain",
	Ambassador: "Ambassador",
	Contessa:   "Contessa",
}

func (c Character) String() string {
	if name, ok := characterNames[c]; ok {
		return name
	}
	return ""
}

// Valid reports whether c is one of the five characters.
func (c Character) Valid() bool {
	_, ok := characterNames[c]
	return ok
}

// ParseCharacter accepts a character name in any case. An empty string parses to NoCharacter.
func ParseCharacter(s string) (Character, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoCharacter, nil
	}
	for c, name := range characterNames {
		if strings.EqualFold(name, s) {
			return c, nil
		}
	}
	return NoCharacter, fmt.Errorf("unknown character %q", s)
}

func (c Character) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Character) UnmarshalText(b []byte) error {
	parsed, err := ParseCharacter(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
