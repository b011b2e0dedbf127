package engine

import "bridgetable/internal/bridge"

// UndoKind tags the reversible event sitting on an undo or redo stack.
type UndoKind int

const (
	// UndoScanCard reverses one scanned card.
	UndoScanCard UndoKind = iota
	// UndoHandScanned reverses a completely scanned hand in one step.
	UndoHandScanned
	// UndoContractTricks reverses the bid level entry.
	UndoContractTricks
	// UndoContractDeclarer reverses the auction-winner entry.
	UndoContractDeclarer
	// UndoContractTrump reverses the trump entry.
	UndoContractTrump
	// UndoPlayCard reverses one play, reopening the trick it closed.
	UndoPlayCard
)

func (k UndoKind) String() string {
	switch k {
	case UndoScanCard:
		return "scan-card"
	case UndoHandScanned:
		return "hand-scanned"
	case UndoContractTricks:
		return "contract-tricks"
	case UndoContractDeclarer:
		return "contract-declarer"
	case UndoContractTrump:
		return "contract-trump"
	case UndoPlayCard:
		return "play-card"
	default:
		return "unknown"
	}
}

// command is one reversible mutation. Each event kind carries its own
// strongly-typed fields and its own paired revert/reapply.
type command interface {
	kind() UndoKind
	revert(h *Hand)
	reapply(h *Hand)
}

// undoEvent pairs a command with the state the hand was in when the
// forward event occurred. Undo and redo force-set that state back.
type undoEvent struct {
	state HandState
	cmd   command
}

type scanCardCmd struct {
	seat bridge.Direction
	card bridge.Card
}

func (c scanCardCmd) kind() UndoKind { return UndoScanCard }

func (c scanCardCmd) revert(h *Hand) {
	h.hands[c.seat].Remove(c.card)
}

func (c scanCardCmd) reapply(h *Hand) {
	if err := h.hands[c.seat].Add(c.card); err != nil {
		h.log.Printf("redo scan %v for %v: %v", c.card, c.seat, err)
	}
}

type handScannedCmd struct {
	seat  bridge.Direction
	cards []bridge.Card
}

func (c handScannedCmd) kind() UndoKind { return UndoHandScanned }

func (c handScannedCmd) revert(h *Hand) {
	for _, card := range c.cards {
		h.hands[c.seat].Remove(card)
	}
	h.known[c.seat] = false
}

func (c handScannedCmd) reapply(h *Hand) {
	for _, card := range c.cards {
		if err := h.hands[c.seat].Add(card); err != nil {
			h.log.Printf("redo hand scan %v for %v: %v", card, c.seat, err)
		}
	}
	h.known[c.seat] = true
}

type contractTricksCmd struct {
	tricks  int
	prev    int
	prevSet bool
}

func (c contractTricksCmd) kind() UndoKind { return UndoContractTricks }

func (c contractTricksCmd) revert(h *Hand) {
	if c.prevSet {
		_ = h.contract.SetTricks(c.prev)
		return
	}
	h.contract.ClearTricks()
}

func (c contractTricksCmd) reapply(h *Hand) {
	_ = h.contract.SetTricks(c.tricks)
}

type contractDeclarerCmd struct {
	seat    bridge.Direction
	prev    bridge.Direction
	prevSet bool
}

func (c contractDeclarerCmd) kind() UndoKind { return UndoContractDeclarer }

func (c contractDeclarerCmd) revert(h *Hand) {
	if c.prevSet {
		_ = h.contract.SetDeclarer(c.prev)
		return
	}
	h.contract.ClearDeclarer()
}

func (c contractDeclarerCmd) reapply(h *Hand) {
	_ = h.contract.SetDeclarer(c.seat)
	h.nextPlayer = c.seat.Next()
}

type contractTrumpCmd struct {
	trump   bridge.Suit
	prev    bridge.Suit
	prevSet bool
}

func (c contractTrumpCmd) kind() UndoKind { return UndoContractTrump }

func (c contractTrumpCmd) revert(h *Hand) {
	if c.prevSet {
		_ = h.contract.SetTrump(c.prev)
		return
	}
	h.contract.ClearTrump()
}

func (c contractTrumpCmd) reapply(h *Hand) {
	_ = h.contract.SetTrump(c.trump)
}

type playCardCmd struct {
	seat        bridge.Direction
	card        bridge.Card
	closedTrick bool
}

func (c playCardCmd) kind() UndoKind { return UndoPlayCard }

func (c playCardCmd) revert(h *Hand) {
	if c.closedTrick {
		popped, ok := h.tricks.Pop()
		if !ok {
			h.log.Printf("undo play: ledger empty while reopening a trick")
			return
		}
		h.trick = popped
	}
	h.trick.RemoveLast()
	if h.known[c.seat] {
		if err := h.hands[c.seat].Add(c.card); err != nil {
			h.log.Printf("undo play %v for %v: %v", c.card, c.seat, err)
		}
	}
	delete(h.played, c.card)
	h.nextPlayer = c.seat
}

func (c playCardCmd) reapply(h *Hand) {
	h.hands[c.seat].Remove(c.card)
	if err := h.trick.Add(c.seat, c.card); err != nil {
		h.log.Printf("redo play %v for %v: %v", c.card, c.seat, err)
		return
	}
	h.played[c.card] = true
	if h.trick.Complete() {
		h.closeTrick()
		return
	}
	h.nextPlayer = c.seat.Next()
}

// pushUndo records a forward event. Any forward event invalidates
// whatever was awaiting redo.
func (h *Hand) pushUndo(cmd command) {
	h.undoStack = append(h.undoStack, undoEvent{state: h.state, cmd: cmd})
	h.redoStack = nil
}

// collapseHandScan retroactively replaces the per-card undo entries for
// a seat with a single whole-hand entry, so undoing a finished scan
// reverses the hand in one step instead of thirteen.
func (h *Hand) collapseHandScan(seat bridge.Direction) {
	kept := h.undoStack[:0]
	state := h.state
	for _, evt := range h.undoStack {
		if scan, ok := evt.cmd.(scanCardCmd); ok && scan.seat == seat {
			state = evt.state
			continue
		}
		kept = append(kept, evt)
	}
	h.undoStack = append(kept, undoEvent{
		state: state,
		cmd:   handScannedCmd{seat: seat, cards: h.hands[seat].Cards()},
	})
}
