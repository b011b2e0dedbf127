package bridge

import (
	"errors"
	"sort"
)

// PlayerHand is the mutable card set owned by one seat. It never holds
// more than thirteen cards and reports completeness at exactly thirteen.
type PlayerHand struct {
	seat  Direction
	cards []Card
}

// ErrHandFull is returned when a fourteenth card is added.
var ErrHandFull = errors.New("bridge: hand already holds thirteen cards")

// ErrDuplicateCard is returned when the hand already holds the card.
var ErrDuplicateCard = errors.New("bridge: card already in hand")

// NewPlayerHand constructs an empty hand for a seat.
func NewPlayerHand(seat Direction) *PlayerHand {
	return &PlayerHand{seat: seat}
}

// Seat returns the owning seat.
func (h *PlayerHand) Seat() Direction {
	return h.seat
}

// Add inserts a card, keeping the hand sorted by suit then rank.
func (h *PlayerHand) Add(card Card) error {
	if len(h.cards) >= HandSize {
		return ErrHandFull
	}
	if h.Has(card) {
		return ErrDuplicateCard
	}
	h.cards = append(h.cards, card)
	sort.Slice(h.cards, func(i, j int) bool { return h.cards[i].Less(h.cards[j]) })
	return nil
}

// Remove deletes a card, reporting whether it was present.
func (h *PlayerHand) Remove(card Card) bool {
	for i, c := range h.cards {
		if c == card {
			h.cards = append(h.cards[:i], h.cards[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether the hand holds the card.
func (h *PlayerHand) Has(card Card) bool {
	for _, c := range h.cards {
		if c == card {
			return true
		}
	}
	return false
}

// HasSuit reports whether the hand holds any card of the suit.
func (h *PlayerHand) HasSuit(suit Suit) bool {
	for _, c := range h.cards {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// Complete reports whether the hand holds exactly thirteen cards.
func (h *PlayerHand) Complete() bool {
	return len(h.cards) == HandSize
}

// Len returns the number of cards currently held.
func (h *PlayerHand) Len() int {
	return len(h.cards)
}

// Cards returns a copy of the held cards in suit-then-rank order.
func (h *PlayerHand) Cards() []Card {
	out := make([]Card, len(h.cards))
	copy(out, h.cards)
	return out
}

// Clear drops every card.
func (h *PlayerHand) Clear() {
	h.cards = h.cards[:0]
}
