package bridge

import "errors"

// Play is one card laid into a trick by one seat.
type Play struct {
	Seat Direction
	Card Card
}

// Trick accumulates the four plays of one round. The lead suit is fixed
// by the first play and the winner is derived only when the trick closes.
type Trick struct {
	plays  []Play
	winner Direction
	won    bool
}

// TrickSize is the number of plays that close a trick.
const TrickSize = 4

// ErrTrickFull is returned when a fifth play is added.
var ErrTrickFull = errors.New("bridge: trick already holds four plays")

// ErrSeatPlayed is returned when a seat plays twice into one trick.
var ErrSeatPlayed = errors.New("bridge: seat already played in this trick")

// NewTrick constructs an empty trick.
func NewTrick() *Trick {
	return &Trick{plays: make([]Play, 0, TrickSize)}
}

// Add appends a play. Exactly one play per seat, at most four total.
func (t *Trick) Add(seat Direction, card Card) error {
	if len(t.plays) >= TrickSize {
		return ErrTrickFull
	}
	for _, p := range t.plays {
		if p.Seat == seat {
			return ErrSeatPlayed
		}
	}
	t.plays = append(t.plays, Play{Seat: seat, Card: card})
	return nil
}

// RemoveLast pops the most recent play, for undo.
func (t *Trick) RemoveLast() (Play, bool) {
	if len(t.plays) == 0 {
		return Play{}, false
	}
	last := t.plays[len(t.plays)-1]
	t.plays = t.plays[:len(t.plays)-1]
	t.won = false
	return last, true
}

// Len returns the number of plays so far.
func (t *Trick) Len() int {
	return len(t.plays)
}

// Complete reports whether four plays have been made.
func (t *Trick) Complete() bool {
	return len(t.plays) == TrickSize
}

// LeadSuit returns the suit of the first play.
func (t *Trick) LeadSuit() (Suit, bool) {
	if len(t.plays) == 0 {
		return 0, false
	}
	return t.plays[0].Card.Suit, true
}

// Plays returns a copy of the plays in order.
func (t *Trick) Plays() []Play {
	out := make([]Play, len(t.plays))
	copy(out, t.plays)
	return out
}

// Score derives and records the winning seat for the given trump
// designation. Comparison runs a single "best so far" pass: a trump
// always beats a non-trump, two trumps compare by rank, and otherwise
// only lead-suit cards compare by rank. A card that is neither trump
// nor lead suit never displaces the best.
func (t *Trick) Score(trump Suit, trumpSet bool) (Direction, error) {
	if !t.Complete() {
		return 0, errors.New("bridge: cannot score an open trick")
	}
	lead := t.plays[0].Card.Suit
	best := t.plays[0]
	for _, p := range t.plays[1:] {
		if beats(p.Card, best.Card, lead, trump, trumpSet) {
			best = p
		}
	}
	t.winner = best.Seat
	t.won = true
	return t.winner, nil
}

// Winner returns the scored winner, if the trick has been scored.
func (t *Trick) Winner() (Direction, bool) {
	return t.winner, t.won
}

func beats(card, best Card, lead, trump Suit, trumpSet bool) bool {
	if trumpSet && trump != NoTrump {
		switch {
		case card.Suit == trump && best.Suit != trump:
			return true
		case card.Suit == trump && best.Suit == trump:
			return card.Rank > best.Rank
		case best.Suit == trump:
			return false
		}
	}
	if card.Suit != lead {
		return false
	}
	if best.Suit == lead {
		return card.Rank > best.Rank
	}
	return true
}
