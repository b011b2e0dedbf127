package engine

import (
	"context"

	"bridgetable/internal/bridge"
	"bridgetable/internal/observability/metrics"
)

// HandState names the phases of one hand. Transitions are derived by
// the pure nextState function; side effects live only in the engine's
// entry broadcasts.
type HandState int

const (
	// ScanningBlindHands: blind seats register their dealt cards.
	ScanningBlindHands HandState = iota
	// EnteringContract: the three contract fields are being entered.
	EnteringContract
	// WaitingForFirstPlayer: a trick is open for its lead.
	WaitingForFirstPlayer
	// ScanningDummy: the dummy's cards are being exposed.
	ScanningDummy
	// WaitingForNextPlayer: a trick is open for its remaining plays.
	WaitingForNextPlayer
	// TrickComplete: a trick has just been scored and recorded.
	TrickComplete
	// HandComplete: all thirteen tricks are recorded.
	HandComplete
)

func (s HandState) String() string {
	switch s {
	case ScanningBlindHands:
		return "scanning-blind-hands"
	case EnteringContract:
		return "entering-contract"
	case WaitingForFirstPlayer:
		return "waiting-for-first-player"
	case ScanningDummy:
		return "scanning-dummy"
	case WaitingForNextPlayer:
		return "waiting-for-next-player"
	case TrickComplete:
		return "trick-complete"
	case HandComplete:
		return "hand-complete"
	default:
		return "unknown"
	}
}

// nextState inspects the hand data and returns either the same state
// (keep waiting) or the state that follows. It never mutates; the
// engine applies it repeatedly after every mutation until it is stable.
func nextState(state HandState, h *Hand) HandState {
	switch state {
	case ScanningBlindHands:
		for seat := range h.blindSeats {
			if !h.hands[seat].Complete() {
				return state
			}
		}
		return EnteringContract
	case EnteringContract:
		if h.contract.Complete() {
			return WaitingForFirstPlayer
		}
		return state
	case WaitingForFirstPlayer:
		if h.trick.Len() == 0 {
			return state
		}
		if !h.known[h.contract.Dummy()] {
			return ScanningDummy
		}
		return WaitingForNextPlayer
	case ScanningDummy:
		if h.known[h.contract.Dummy()] {
			return WaitingForNextPlayer
		}
		return state
	case WaitingForNextPlayer:
		// The engine swaps in a fresh trick the moment the fourth play
		// is scored, so an empty trick here means one just closed.
		if h.trick.Len() == 0 && h.tricks.Len() > 0 {
			return TrickComplete
		}
		return state
	case TrickComplete:
		if h.tricks.Complete() {
			return HandComplete
		}
		return WaitingForFirstPlayer
	case HandComplete:
		return state
	default:
		return state
	}
}

// enterState broadcasts the entry signal for a state. Entry actions
// only publish; they never touch hand data, which keeps the settle
// loop re-entrant.
func (h *Hand) enterState(ctx context.Context, state HandState) {
	switch state {
	case ScanningBlindHands:
		h.publish(ctx, BlindScanStarted{})
	case EnteringContract:
		h.publish(ctx, ContractEntryStarted{})
	case WaitingForFirstPlayer:
		h.publish(ctx, AwaitingLead{Seat: h.nextPlayer})
	case ScanningDummy:
		h.publish(ctx, DummyScanStarted{Seat: h.contract.Dummy()})
	case WaitingForNextPlayer:
		h.publish(ctx, AwaitingPlay{Seat: h.nextPlayer})
	case TrickComplete:
		h.publish(ctx, h.lastTrickClosed)
	case HandComplete:
		metrics.CountHandCompleted()
		winner, _ := h.tricks.HandWinner(h.contract)
		h.publish(ctx, HandClosed{
			WinningTeam: winner,
			NorthSouth:  h.tricks.TeamCount(bridge.North),
			EastWest:    h.tricks.TeamCount(bridge.East),
		})
	}
}

// settle re-derives the state until it stabilises, running each entered
// state's broadcast along the way.
func (h *Hand) settle(ctx context.Context) {
	for {
		next := nextState(h.state, h)
		if next == h.state {
			return
		}
		h.state = next
		h.enterState(ctx, next)
	}
}

// forceState restores a recorded state without running entry
// broadcasts or derivation. Used exclusively by undo and redo.
func (h *Hand) forceState(state HandState) {
	h.state = state
}
