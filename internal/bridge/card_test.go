package bridge

import "testing"

func TestCardIndexRoundTrip(t *testing.T) {
	for i := 0; i < DeckSize; i++ {
		card, err := CardFromIndex(i)
		if err != nil {
			t.Fatalf("card from index %d: %v", i, err)
		}
		if card.Index() != i {
			t.Fatalf("index round trip: got %d want %d", card.Index(), i)
		}
	}
	if _, err := CardFromIndex(52); err == nil {
		t.Fatal("expected error for index 52")
	}
	if _, err := CardFromIndex(-1); err == nil {
		t.Fatal("expected error for negative index")
	}
}

func TestCardAbbreviation(t *testing.T) {
	cases := []struct {
		card Card
		want string
	}{
		{Card{Rank: Queen, Suit: Hearts}, "QH"},
		{Card{Rank: Two, Suit: Clubs}, "2C"},
		{Card{Rank: Ten, Suit: Diamonds}, "TD"},
		{Card{Rank: Ace, Suit: Spades}, "AS"},
	}
	for _, tc := range cases {
		if got := tc.card.String(); got != tc.want {
			t.Errorf("String(%v): got %q want %q", tc.card, got, tc.want)
		}
		parsed, err := ParseCard(tc.want)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.want, err)
		}
		if parsed != tc.card {
			t.Errorf("parse %q: got %v want %v", tc.want, parsed, tc.card)
		}
	}
	for _, bad := range []string{"", "Q", "QQ", "1H", "QX", "AHH"} {
		if _, err := ParseCard(bad); err == nil {
			t.Errorf("parse %q: expected error", bad)
		}
	}
}

func TestDirectionArithmetic(t *testing.T) {
	if North.Partner() != South || East.Partner() != West {
		t.Fatal("partner must be two seats on")
	}
	if West.Next() != North {
		t.Fatal("next must wrap around the table")
	}
	if !North.SameTeam(South) || North.SameTeam(East) {
		t.Fatal("teams are opposite seat pairs")
	}
}

func TestCardOrdering(t *testing.T) {
	low := Card{Rank: Ace, Suit: Clubs}
	high := Card{Rank: Two, Suit: Diamonds}
	if !low.Less(high) {
		t.Fatal("suit dominates rank in the ordering")
	}
	if !(Card{Rank: Three, Suit: Hearts}).Less(Card{Rank: Four, Suit: Hearts}) {
		t.Fatal("same suit compares by rank")
	}
}

func TestPlayerHandInvariants(t *testing.T) {
	hand := NewPlayerHand(South)
	for i := 0; i < HandSize; i++ {
		card, _ := CardFromIndex(i)
		if err := hand.Add(card); err != nil {
			t.Fatalf("add %v: %v", card, err)
		}
	}
	if !hand.Complete() {
		t.Fatal("hand with thirteen cards must be complete")
	}
	extra, _ := CardFromIndex(20)
	if err := hand.Add(extra); err != ErrHandFull {
		t.Fatalf("fourteenth card: got %v want ErrHandFull", err)
	}
	if !hand.Remove(Card{Rank: Two, Suit: Clubs}) {
		t.Fatal("remove of held card must succeed")
	}
	if hand.Complete() {
		t.Fatal("hand with twelve cards is not complete")
	}
	dup := Card{Rank: Three, Suit: Clubs}
	if err := hand.Add(dup); err != ErrDuplicateCard {
		t.Fatalf("duplicate add: got %v want ErrDuplicateCard", err)
	}
}
