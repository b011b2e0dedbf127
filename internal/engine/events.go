package engine

import "bridgetable/internal/bridge"

// The engine reports every accepted mutation and every state entry as a
// typed event on the bus. Subscribers (device controllers, the monitor
// feed, the history recorder) pick the variants they care about; the
// engine performs no per-subscriber filtering.

// HandStarted announces a fresh hand; blind-hand scanning begins.
type HandStarted struct{}

// CardScanned reports a card added to a seat's hand during scanning.
type CardScanned struct {
	Seat         bridge.Direction
	Card         bridge.Card
	HandComplete bool
}

// ContractTricksSet reports the bid level arriving on its own.
type ContractTricksSet struct {
	Tricks int
}

// ContractDeclarerSet reports the auction winner arriving on its own.
type ContractDeclarerSet struct {
	Seat bridge.Direction
}

// ContractTrumpSet reports the trump designation arriving on its own.
type ContractTrumpSet struct {
	Trump bridge.Suit
}

// ContractSet reports the contract becoming complete.
type ContractSet struct {
	Trump    bridge.Suit
	Tricks   int
	Declarer bridge.Direction
	Dummy    bridge.Direction
}

// CardPlayed reports an accepted play into the current trick.
type CardPlayed struct {
	Seat     bridge.Direction
	Card     bridge.Card
	TrickLen int
}

// TrickClosed reports a scored trick entering the ledger.
type TrickClosed struct {
	Winner      bridge.Direction
	Plays       []bridge.Play
	TrickNumber int
	NorthSouth  int
	EastWest    int
}

// HandClosed reports the thirteenth trick; WinningTeam is a seat on the
// team that made (or defeated) the contract.
type HandClosed struct {
	WinningTeam bridge.Direction
	NorthSouth  int
	EastWest    int
}

// BlindScanStarted is the scanning-blind-hands entry signal.
type BlindScanStarted struct{}

// ContractEntryStarted is the entering-contract entry signal.
type ContractEntryStarted struct{}

// AwaitingLead is the waiting-for-first-player entry signal.
type AwaitingLead struct {
	Seat bridge.Direction
}

// DummyScanStarted is the scanning-dummy entry signal.
type DummyScanStarted struct {
	Seat bridge.Direction
}

// AwaitingPlay is the waiting-for-next-player entry signal.
type AwaitingPlay struct {
	Seat bridge.Direction
}

// ViolationKind classifies a rejected play that warrants feedback.
type ViolationKind int

const (
	// ViolationWrongSuit: the seat held a card of the required suit.
	ViolationWrongSuit ViolationKind = iota
	// ViolationNotInHand: the card is not in the playing seat's hand.
	ViolationNotInHand
	// ViolationAlreadyPlayed: the card was played earlier in the hand.
	ViolationAlreadyPlayed
)

func (k ViolationKind) String() string {
	switch k {
	case ViolationWrongSuit:
		return "wrong-suit"
	case ViolationNotInHand:
		return "not-in-hand"
	case ViolationAlreadyPlayed:
		return "already-played"
	default:
		return "unknown"
	}
}

// RuleViolation reports an illegal play. No mutation happened; each
// subscriber decides its own feedback.
type RuleViolation struct {
	Seat bridge.Direction
	Card bridge.Card
	Kind ViolationKind
}

// UndoAnnounced is the unconfirmed first phase of an undo request.
type UndoAnnounced struct {
	Kind UndoKind
}

// UndoApplied reports a confirmed undo; State is the restored state.
type UndoApplied struct {
	Kind  UndoKind
	State HandState
}

// RedoAnnounced is the unconfirmed first phase of a redo request.
type RedoAnnounced struct {
	Kind UndoKind
}

// RedoApplied reports a confirmed redo.
type RedoApplied struct {
	Kind  UndoKind
	State HandState
}
