package bridge

import "testing"

func play(t *testing.T, trick *Trick, seat Direction, rank Rank, suit Suit) {
	t.Helper()
	if err := trick.Add(seat, Card{Rank: rank, Suit: suit}); err != nil {
		t.Fatalf("add %v for %v: %v", Card{Rank: rank, Suit: suit}, seat, err)
	}
}

func TestTrickTrumpBeatsEverything(t *testing.T) {
	trick := NewTrick()
	play(t, trick, North, Two, Spades)
	play(t, trick, East, Ace, Spades)
	play(t, trick, South, Three, Hearts)
	play(t, trick, West, King, Spades)

	winner, err := trick.Score(Hearts, true)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if winner != South {
		t.Fatalf("winner: got %v want South (lone trump)", winner)
	}
}

func TestTrickNoTrumpOnlyLeadSuitCompetes(t *testing.T) {
	trick := NewTrick()
	play(t, trick, North, Five, Diamonds)
	play(t, trick, East, King, Diamonds)
	play(t, trick, South, Two, Clubs)
	play(t, trick, West, Ace, Diamonds)

	winner, err := trick.Score(NoTrump, true)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if winner != West {
		t.Fatalf("winner: got %v want West (ace of the led suit)", winner)
	}
}

func TestTrickWinnerIsAlwaysAParticipant(t *testing.T) {
	// Every rotation of the same four plays must name a seat that
	// actually played, and off-suit non-trumps must never win.
	plays := []Play{
		{North, Card{Rank: Queen, Suit: Clubs}},
		{East, Card{Rank: King, Suit: Diamonds}},
		{South, Card{Rank: Ace, Suit: Hearts}},
		{West, Card{Rank: Jack, Suit: Clubs}},
	}
	for rot := 0; rot < TrickSize; rot++ {
		trick := NewTrick()
		seen := map[Direction]bool{}
		for i := 0; i < TrickSize; i++ {
			p := plays[(rot+i)%TrickSize]
			if err := trick.Add(p.Seat, p.Card); err != nil {
				t.Fatalf("rotation %d add: %v", rot, err)
			}
			seen[p.Seat] = true
		}
		winner, err := trick.Score(Spades, true)
		if err != nil {
			t.Fatalf("rotation %d score: %v", rot, err)
		}
		if !seen[winner] {
			t.Fatalf("rotation %d: winner %v did not play", rot, winner)
		}
		lead, _ := trick.LeadSuit()
		winningCard := Card{}
		for _, p := range trick.Plays() {
			if p.Seat == winner {
				winningCard = p.Card
			}
		}
		if winningCard.Suit != lead && winningCard.Suit != Spades {
			t.Fatalf("rotation %d: off-suit non-trump %v won", rot, winningCard)
		}
	}
}

func TestTrickGuards(t *testing.T) {
	trick := NewTrick()
	play(t, trick, North, Two, Clubs)
	if err := trick.Add(North, Card{Rank: Three, Suit: Clubs}); err != ErrSeatPlayed {
		t.Fatalf("double play by one seat: got %v want ErrSeatPlayed", err)
	}
	if _, err := trick.Score(Clubs, true); err == nil {
		t.Fatal("scoring an open trick must fail")
	}
	play(t, trick, East, Three, Clubs)
	play(t, trick, South, Four, Clubs)
	play(t, trick, West, Five, Clubs)
	if err := trick.Add(North, Card{Rank: Six, Suit: Clubs}); err != ErrTrickFull {
		t.Fatalf("fifth play: got %v want ErrTrickFull", err)
	}
	if _, ok := trick.Winner(); ok {
		t.Fatal("winner must be unset before scoring")
	}
	if winner, err := trick.Score(NoTrump, true); err != nil || winner != West {
		t.Fatalf("score: winner=%v err=%v", winner, err)
	}
}

func TestTrickUndoReopens(t *testing.T) {
	trick := NewTrick()
	play(t, trick, North, Two, Clubs)
	play(t, trick, East, Three, Clubs)
	removed, ok := trick.RemoveLast()
	if !ok || removed.Seat != East {
		t.Fatalf("remove last: got %v ok=%v", removed, ok)
	}
	if trick.Len() != 1 {
		t.Fatalf("len after undo: got %d want 1", trick.Len())
	}
}
