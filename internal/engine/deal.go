package engine

import (
	"context"
	"math/rand"

	"bridgetable/internal/bridge"
)

// cannedDeals are fixed partitions used by the deal command: 0 gives
// each seat a full suit, 1 deals round-robin by index.
var cannedDeals = []func(i int) bridge.Direction{
	func(i int) bridge.Direction { return bridge.Direction(i / bridge.HandSize) },
	func(i int) bridge.Direction { return bridge.Direction(i % bridge.NumDirections) },
}

// NumCannedDeals is the number of fixed deals available to DealHands.
var NumCannedDeals = len(cannedDeals)

// DealHands is a testing helper: it partitions the deck across the four
// seats (a canned layout for fixed >= 0, random otherwise), turns on
// auto-scanning, and immediately scans the blind hands. The dummy hand
// is scanned automatically once the state machine reaches it.
func (h *Hand) DealHands(ctx context.Context, fixed int) {
	deck := bridge.Deck()
	assign := make([]bridge.Direction, bridge.DeckSize)
	if fixed >= 0 {
		layout := cannedDeals[fixed%len(cannedDeals)]
		for i := range deck {
			assign[i] = layout(i)
		}
	} else {
		order := rand.Perm(bridge.DeckSize)
		for i, slot := range order {
			assign[i] = bridge.Direction(slot / bridge.HandSize)
		}
	}
	h.dealt = [bridge.NumDirections][]bridge.Card{}
	for i, card := range deck {
		seat := assign[i]
		h.dealt[seat] = append(h.dealt[seat], card)
	}
	h.autoScan = true
	for seat := bridge.North; seat <= bridge.West; seat++ {
		if !h.blindSeats[seat] {
			continue
		}
		for _, card := range h.dealt[seat] {
			h.addScannedCard(ctx, seat, card)
		}
	}
	h.settle(ctx)
	h.maybeAutoScanDummy(ctx)
}

// DealtHand returns the cards dealt to a seat by DealHands, for the
// interpreter's simulated plays.
func (h *Hand) DealtHand(seat bridge.Direction) []bridge.Card {
	out := make([]bridge.Card, len(h.dealt[seat]))
	copy(out, h.dealt[seat])
	return out
}

// maybeAutoScanDummy feeds the dealt dummy hand into the scanner once
// the state machine asks for it, completing the deal command's promise.
func (h *Hand) maybeAutoScanDummy(ctx context.Context) {
	if !h.autoScan || h.state != ScanningDummy || h.autoScanning {
		return
	}
	h.autoScanning = true
	defer func() { h.autoScanning = false }()
	dummy := h.contract.Dummy()
	for _, card := range h.dealt[dummy] {
		if h.state != ScanningDummy {
			break
		}
		h.addScannedCard(ctx, dummy, card)
	}
}
