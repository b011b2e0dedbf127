// Package bridge holds the card-play domain model shared by the hand
// engine, the device controllers, and the reporting layer.
package bridge

import (
	"errors"
	"fmt"
)

// Suit identifies one of the four card suits. The zero-based order is
// also the comparison order: clubs lowest, spades highest.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades

	// NoTrump is only valid as a contract trump designation, never on a card.
	NoTrump Suit = 4
)

// Rank identifies a card rank, ordered strictly low to high.
type Rank int

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Direction identifies a seat at the table, clockwise.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// NumDirections is the number of seats at the table.
const NumDirections = 4

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// HandSize is the number of cards dealt to each seat.
const HandSize = 13

var suitLetters = [...]string{"C", "D", "H", "S"}

var rankLetters = [...]string{"2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K", "A"}

var directionNames = [...]string{"North", "East", "South", "West"}

func (s Suit) String() string {
	if s == NoTrump {
		return "NT"
	}
	if s < Clubs || s > Spades {
		return "?"
	}
	return suitLetters[s]
}

// Valid reports whether the suit is a playable card suit.
func (s Suit) Valid() bool {
	return s >= Clubs && s <= Spades
}

func (r Rank) String() string {
	if r < Two || r > Ace {
		return "?"
	}
	return rankLetters[r]
}

// Valid reports whether the rank is in range.
func (r Rank) Valid() bool {
	return r >= Two && r <= Ace
}

func (d Direction) String() string {
	if d < North || d > West {
		return "?"
	}
	return directionNames[d]
}

// Valid reports whether the direction is one of the four seats.
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

// Next returns the seat one place clockwise.
func (d Direction) Next() Direction {
	return (d + 1) % NumDirections
}

// Partner returns the seat opposite.
func (d Direction) Partner() Direction {
	return (d + 2) % NumDirections
}

// SameTeam reports whether two seats belong to the same partnership.
func (d Direction) SameTeam(other Direction) bool {
	return d == other || d.Partner() == other
}

// ParseDirection resolves a single-letter or full seat name.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "N", "n", "North", "north":
		return North, nil
	case "E", "e", "East", "east":
		return East, nil
	case "S", "s", "South", "south":
		return South, nil
	case "W", "w", "West", "west":
		return West, nil
	}
	return 0, fmt.Errorf("bridge: unknown direction %q", s)
}

// ParseSuit resolves a suit letter or "NT" for no-trump.
func ParseSuit(s string) (Suit, error) {
	switch s {
	case "C", "c":
		return Clubs, nil
	case "D", "d":
		return Diamonds, nil
	case "H", "h":
		return Hearts, nil
	case "S", "s":
		return Spades, nil
	case "NT", "nt", "N", "n":
		return NoTrump, nil
	}
	return 0, fmt.Errorf("bridge: unknown suit %q", s)
}

// Card is an immutable rank/suit pair.
type Card struct {
	Rank Rank
	Suit Suit
}

// ErrBadCard is returned when a card cannot be decoded.
var ErrBadCard = errors.New("bridge: invalid card")

// String returns the two-character abbreviation, rank letter first.
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Valid reports whether both rank and suit are in range.
func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit.Valid()
}

// Index maps the card onto 0..51 as used by the wire protocol:
// suit = index/13, rank = index%13.
func (c Card) Index() int {
	return int(c.Suit)*HandSize + int(c.Rank)
}

// Less orders cards by suit, then by rank.
func (c Card) Less(other Card) bool {
	if c.Suit != other.Suit {
		return c.Suit < other.Suit
	}
	return c.Rank < other.Rank
}

// CardFromIndex is the inverse of Card.Index.
func CardFromIndex(index int) (Card, error) {
	if index < 0 || index >= DeckSize {
		return Card{}, ErrBadCard
	}
	return Card{Rank: Rank(index % HandSize), Suit: Suit(index / HandSize)}, nil
}

// ParseCard resolves a two-character abbreviation such as "QH" or "TD".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, ErrBadCard
	}
	var card Card
	found := false
	for i, letter := range rankLetters {
		if letter == string(s[0]) {
			card.Rank = Rank(i)
			found = true
			break
		}
	}
	if !found {
		return Card{}, ErrBadCard
	}
	switch s[1] {
	case 'C', 'c':
		card.Suit = Clubs
	case 'D', 'd':
		card.Suit = Diamonds
	case 'H', 'h':
		card.Suit = Hearts
	case 'S', 's':
		card.Suit = Spades
	default:
		return Card{}, ErrBadCard
	}
	return card, nil
}

// Deck returns the full 52-card deck in index order.
func Deck() []Card {
	deck := make([]Card, 0, DeckSize)
	for i := 0; i < DeckSize; i++ {
		card, _ := CardFromIndex(i)
		deck = append(deck, card)
	}
	return deck
}
