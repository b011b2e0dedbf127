package engine

import (
	"context"
	"reflect"
	"testing"

	"bridgetable/internal/bridge"
)

func TestUndoRedoScannedCardRoundTrip(t *testing.T) {
	h, r := newTestHand(t, WithBlindSeats(bridge.North))
	ctx := context.Background()
	h.NewHand(ctx)

	card := bridge.Card{Rank: bridge.Queen, Suit: bridge.Hearts}
	h.AddScannedCard(ctx, bridge.North, card)
	before := h.HandOf(bridge.North)
	stateBefore := h.State()

	// Unconfirmed undo only announces.
	h.Undo(ctx, false)
	if got := r.count(func(e any) bool { _, ok := e.(UndoAnnounced); return ok }); got != 1 {
		t.Fatalf("undo announcements: %d", got)
	}
	if !reflect.DeepEqual(h.HandOf(bridge.North), before) {
		t.Fatal("unconfirmed undo mutated the hand")
	}

	h.Undo(ctx, true)
	if len(h.HandOf(bridge.North)) != 0 {
		t.Fatalf("hand after undo: %v", h.HandOf(bridge.North))
	}
	if undo, redo := h.UndoDepth(); undo != 0 || redo != 1 {
		t.Fatalf("stacks after undo: undo=%d redo=%d", undo, redo)
	}

	h.Redo(ctx, true)
	if !reflect.DeepEqual(h.HandOf(bridge.North), before) {
		t.Fatalf("hand after redo: %v want %v", h.HandOf(bridge.North), before)
	}
	if h.State() != stateBefore {
		t.Fatalf("state after redo: %v want %v", h.State(), stateBefore)
	}
	if undo, redo := h.UndoDepth(); undo != 1 || redo != 0 {
		t.Fatalf("stacks after redo: undo=%d redo=%d", undo, redo)
	}
}

func TestForwardEventClearsRedo(t *testing.T) {
	h, _ := newTestHand(t, WithBlindSeats(bridge.North))
	ctx := context.Background()
	h.NewHand(ctx)

	h.AddScannedCard(ctx, bridge.North, bridge.Card{Rank: bridge.Two, Suit: bridge.Clubs})
	h.Undo(ctx, true)
	if _, redo := h.UndoDepth(); redo != 1 {
		t.Fatalf("redo depth: %d", redo)
	}
	h.AddScannedCard(ctx, bridge.North, bridge.Card{Rank: bridge.Three, Suit: bridge.Clubs})
	if undo, redo := h.UndoDepth(); undo != 1 || redo != 0 {
		t.Fatalf("forward event must clear redo: undo=%d redo=%d", undo, redo)
	}
}

func TestUndoCompleteHandScanReversesWholeHand(t *testing.T) {
	h, _ := newTestHand(t, WithBlindSeats(bridge.North))
	ctx := context.Background()
	h.NewHand(ctx)

	for i := 0; i < bridge.HandSize; i++ {
		card, _ := bridge.CardFromIndex(i)
		h.AddScannedCard(ctx, bridge.North, card)
	}
	if h.State() != EnteringContract {
		t.Fatalf("state: %v", h.State())
	}
	h.Undo(ctx, true)
	if len(h.HandOf(bridge.North)) != 0 {
		t.Fatalf("aggregate undo left %d cards", len(h.HandOf(bridge.North)))
	}
	if h.State() != ScanningBlindHands {
		t.Fatalf("state after aggregate undo: %v", h.State())
	}
	h.Redo(ctx, true)
	if len(h.HandOf(bridge.North)) != bridge.HandSize {
		t.Fatalf("aggregate redo restored %d cards", len(h.HandOf(bridge.North)))
	}
	if h.State() != EnteringContract {
		t.Fatalf("state after aggregate redo: %v", h.State())
	}
}

func TestUndoContractField(t *testing.T) {
	h, _ := newTestHand(t)
	ctx := context.Background()
	h.NewHand(ctx)

	h.SetContractTrump(ctx, bridge.Hearts)
	h.SetContractTrump(ctx, bridge.Spades)
	h.Undo(ctx, true)
	trump, ok := h.Contract().Trump()
	if !ok || trump != bridge.Hearts {
		t.Fatalf("trump after undo: %v set=%v", trump, ok)
	}
	h.Undo(ctx, true)
	if _, ok := h.Contract().Trump(); ok {
		t.Fatal("trump still set after undoing first entry")
	}
}

func TestUndoTrickClosingPlayReopensTrick(t *testing.T) {
	h, _ := newTestHand(t, WithBlindSeats(allSeats()...))
	setupPlay(t, h)
	ctx := context.Background()

	var lastSeat bridge.Direction
	for i := 0; i < bridge.TrickSize; i++ {
		lastSeat = h.NextPlayer()
		h.PlayCard(ctx, lastSeat, legalCard(t, h, lastSeat))
	}
	if h.Tricks().Len() != 1 {
		t.Fatalf("tricks recorded: %d", h.Tricks().Len())
	}

	h.Undo(ctx, true)
	if h.Tricks().Len() != 0 {
		t.Fatal("ledger must be popped")
	}
	if h.trick.Len() != bridge.TrickSize-1 {
		t.Fatalf("reopened trick holds %d plays", h.trick.Len())
	}
	if h.NextPlayer() != lastSeat {
		t.Fatalf("next player after undo: %v want %v", h.NextPlayer(), lastSeat)
	}
	if h.State() != WaitingForNextPlayer {
		t.Fatalf("state after undo: %v", h.State())
	}

	h.Redo(ctx, true)
	if h.Tricks().Len() != 1 {
		t.Fatal("redo must re-record the trick")
	}
	if h.State() != WaitingForFirstPlayer {
		t.Fatalf("state after redo: %v", h.State())
	}
}

type fakeSession struct {
	prev, next int
}

func (s *fakeSession) PreviousHand(context.Context) error { s.prev++; return nil }
func (s *fakeSession) NextHand(context.Context) error     { s.next++; return nil }

func TestEmptyStacksDelegateToSession(t *testing.T) {
	session := &fakeSession{}
	h, _ := newTestHand(t, WithSession(session))
	ctx := context.Background()
	h.NewHand(ctx)

	h.Undo(ctx, true)
	h.Redo(ctx, true)
	if session.prev != 1 || session.next != 1 {
		t.Fatalf("session calls: prev=%d next=%d", session.prev, session.next)
	}
}
