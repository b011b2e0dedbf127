// Package engine owns the state of one bridge hand: the four player
// hands, the contract, the trick in progress, the trick ledger, and the
// undo/redo stacks. Every public method is an event entry point: it is
// guarded by the hand state machine, mutates, records an undo entry,
// broadcasts on the bus, and then lets the state machine settle.
package engine

import (
	"context"
	"errors"
	"log"

	"bridgetable/internal/bridge"
	"bridgetable/internal/eventbus"
	"bridgetable/internal/observability/metrics"
)

// Session is the enclosing multi-hand session. Undo on an empty stack
// asks it for the previous hand; redo on an empty stack for the next.
type Session interface {
	PreviousHand(ctx context.Context) error
	NextHand(ctx context.Context) error
}

// Hand is the central orchestrator. It is entered synchronously from
// device goroutines and the interpreter; wrong-state and wrong-seat
// events are rejected by the guards before any mutation, which is what
// keeps concurrent entry from corrupting the hand. The request context
// travels as a parameter through every internal call, never as shared
// state.
type Hand struct {
	log     *log.Logger
	bus     eventbus.Bus
	session Session

	blindSeats map[bridge.Direction]bool
	hands      [bridge.NumDirections]*bridge.PlayerHand
	// known marks seats whose full hand has been entered. Sighted
	// players hold their own cards, so their hands stay untracked and
	// exempt from the in-hand and follow-suit checks.
	known      [bridge.NumDirections]bool
	contract   *bridge.Contract
	trick      *bridge.Trick
	tricks     *bridge.TrickSet
	played     map[bridge.Card]bool
	nextPlayer bridge.Direction
	state      HandState

	undoStack []undoEvent
	redoStack []undoEvent

	lastTrickClosed TrickClosed

	autoScan     bool
	autoScanning bool
	dealt        [bridge.NumDirections][]bridge.Card
}

// Option configures the hand engine.
type Option func(*Hand)

// WithSession attaches the enclosing session for empty-stack undo/redo.
func WithSession(session Session) Option {
	return func(h *Hand) { h.session = session }
}

// WithBlindSeats marks the seats whose hands are entered by scanning.
func WithBlindSeats(seats ...bridge.Direction) Option {
	return func(h *Hand) {
		for _, seat := range seats {
			h.blindSeats[seat] = true
		}
	}
}

// New constructs a hand engine publishing on the given bus.
func New(bus eventbus.Bus, logger *log.Logger, opts ...Option) (*Hand, error) {
	if bus == nil {
		return nil, errors.New("engine: nil bus")
	}
	if logger == nil {
		logger = log.Default()
	}
	h := &Hand{
		log:        logger,
		bus:        bus,
		blindSeats: make(map[bridge.Direction]bool),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.reset()
	return h, nil
}

func (h *Hand) reset() {
	for seat := bridge.North; seat <= bridge.West; seat++ {
		h.hands[seat] = bridge.NewPlayerHand(seat)
		h.known[seat] = false
	}
	h.contract = &bridge.Contract{}
	h.trick = bridge.NewTrick()
	h.tricks = bridge.NewTrickSet()
	h.played = make(map[bridge.Card]bool)
	h.nextPlayer = bridge.North
	h.state = ScanningBlindHands
	h.undoStack = nil
	h.redoStack = nil
	h.autoScan = false
	h.autoScanning = false
	h.dealt = [bridge.NumDirections][]bridge.Card{}
}

// State returns the current hand state.
func (h *Hand) State() HandState {
	return h.state
}

// NextPlayer returns the seat expected to act next.
func (h *Hand) NextPlayer() bridge.Direction {
	return h.nextPlayer
}

// HandOf returns a copy of a seat's current cards.
func (h *Hand) HandOf(seat bridge.Direction) []bridge.Card {
	return h.hands[seat].Cards()
}

// Contract returns the contract under entry or play.
func (h *Hand) Contract() *bridge.Contract {
	return h.contract
}

// Tricks returns the completed-trick ledger.
func (h *Hand) Tricks() *bridge.TrickSet {
	return h.tricks
}

func (h *Hand) publish(ctx context.Context, event any) {
	if ctx == nil {
		ctx = context.Background()
	}
	metrics.CountEventPublished(eventbus.EventType(event))
	if err := h.bus.Publish(ctx, event); err != nil {
		h.log.Printf("publish %T: %v", event, err)
	}
}

// NewHand discards all hand data and restarts at blind-hand scanning.
func (h *Hand) NewHand(ctx context.Context) {
	h.reset()
	h.publish(ctx, HandStarted{})
	h.enterState(ctx, ScanningBlindHands)
	h.settle(ctx)
}

// AddScannedCard registers a card into a seat's hand. Legal only while
// scanning blind hands or the dummy. Once the scan completes a hand,
// the per-card undo entries for that seat collapse into one.
func (h *Hand) AddScannedCard(ctx context.Context, seat bridge.Direction, card bridge.Card) {
	h.addScannedCard(ctx, seat, card)
}

func (h *Hand) addScannedCard(ctx context.Context, seat bridge.Direction, card bridge.Card) {
	if h.state != ScanningBlindHands && h.state != ScanningDummy {
		h.log.Printf("drop scan %v for %v: state %v", card, seat, h.state)
		return
	}
	if !seat.Valid() || !card.Valid() {
		h.log.Printf("drop scan: invalid seat %v or card %v", seat, card)
		return
	}
	if h.state == ScanningDummy && seat != h.contract.Dummy() {
		h.log.Printf("drop scan %v for %v: only the dummy is being scanned", card, seat)
		return
	}
	if h.state == ScanningBlindHands && !h.blindSeats[seat] {
		h.log.Printf("drop scan %v for %v: not a blind seat", card, seat)
		return
	}
	for other := bridge.North; other <= bridge.West; other++ {
		if h.hands[other].Has(card) {
			h.log.Printf("drop scan %v for %v: already held by %v", card, seat, other)
			return
		}
	}
	if err := h.hands[seat].Add(card); err != nil {
		h.log.Printf("drop scan %v for %v: %v", card, seat, err)
		return
	}
	h.pushUndo(scanCardCmd{seat: seat, card: card})
	complete := h.hands[seat].Complete()
	if complete {
		h.known[seat] = true
		h.collapseHandScan(seat)
	}
	h.publish(ctx, CardScanned{Seat: seat, Card: card, HandComplete: complete})
	h.settle(ctx)
	h.maybeAutoScanDummy(ctx)
}

// SetContractTricks records the bid level; the contract auto-promotes
// to set once all three fields are present.
func (h *Hand) SetContractTricks(ctx context.Context, tricks int) {
	if h.state != EnteringContract {
		h.log.Printf("drop contract tricks %d: state %v", tricks, h.state)
		return
	}
	prev, prevSet := h.contract.Tricks()
	if err := h.contract.SetTricks(tricks); err != nil {
		h.log.Printf("drop contract tricks %d: %v", tricks, err)
		return
	}
	h.pushUndo(contractTricksCmd{tricks: tricks, prev: prev, prevSet: prevSet})
	h.publish(ctx, ContractTricksSet{Tricks: tricks})
	h.promoteContract(ctx)
	h.settle(ctx)
}

// SetContractDeclarer records the seat that won the auction.
func (h *Hand) SetContractDeclarer(ctx context.Context, seat bridge.Direction) {
	if h.state != EnteringContract {
		h.log.Printf("drop contract declarer %v: state %v", seat, h.state)
		return
	}
	prev, prevSet := h.contract.Declarer()
	if err := h.contract.SetDeclarer(seat); err != nil {
		h.log.Printf("drop contract declarer %v: %v", seat, err)
		return
	}
	h.pushUndo(contractDeclarerCmd{seat: seat, prev: prev, prevSet: prevSet})
	h.publish(ctx, ContractDeclarerSet{Seat: seat})
	h.promoteContract(ctx)
	h.settle(ctx)
}

// SetContractTrump records the trump designation (a suit or NoTrump).
func (h *Hand) SetContractTrump(ctx context.Context, trump bridge.Suit) {
	if h.state != EnteringContract {
		h.log.Printf("drop contract trump %v: state %v", trump, h.state)
		return
	}
	prev, prevSet := h.contract.Trump()
	if err := h.contract.SetTrump(trump); err != nil {
		h.log.Printf("drop contract trump %v: %v", trump, err)
		return
	}
	h.pushUndo(contractTrumpCmd{trump: trump, prev: prev, prevSet: prevSet})
	h.publish(ctx, ContractTrumpSet{Trump: trump})
	h.promoteContract(ctx)
	h.settle(ctx)
}

func (h *Hand) promoteContract(ctx context.Context) {
	if !h.contract.Complete() {
		return
	}
	declarer, _ := h.contract.Declarer()
	trump, _ := h.contract.Trump()
	tricks, _ := h.contract.Tricks()
	h.nextPlayer = declarer.Next()
	h.publish(ctx, ContractSet{
		Trump:    trump,
		Tricks:   tricks,
		Declarer: declarer,
		Dummy:    h.contract.Dummy(),
	})
}

// PlayCard lays a card into the current trick. A play from a seat other
// than the expected next player is silently ignored (idle antennas
// re-read cards left on them); an illegal suit, an unheld card, or a
// card already played earlier in the hand raises a RuleViolation.
func (h *Hand) PlayCard(ctx context.Context, seat bridge.Direction, card bridge.Card) {
	h.playCard(ctx, seat, card)
}

func (h *Hand) playCard(ctx context.Context, seat bridge.Direction, card bridge.Card) {
	if h.state != WaitingForFirstPlayer && h.state != WaitingForNextPlayer {
		h.log.Printf("drop play %v by %v: state %v", card, seat, h.state)
		return
	}
	if !seat.Valid() || !card.Valid() {
		h.log.Printf("drop play: invalid seat %v or card %v", seat, card)
		return
	}
	if seat != h.nextPlayer {
		h.log.Printf("ignore play %v by %v: waiting for %v", card, seat, h.nextPlayer)
		return
	}
	if h.played[card] {
		h.violation(ctx, seat, card, ViolationAlreadyPlayed)
		return
	}
	if h.known[seat] {
		if !h.hands[seat].Has(card) {
			h.violation(ctx, seat, card, ViolationNotInHand)
			return
		}
		if lead, ok := h.trick.LeadSuit(); ok && card.Suit != lead && h.hands[seat].HasSuit(lead) {
			h.violation(ctx, seat, card, ViolationWrongSuit)
			return
		}
	}

	h.hands[seat].Remove(card)
	if err := h.trick.Add(seat, card); err != nil {
		// Unreachable given the guards above; restore and bail.
		h.log.Printf("play %v by %v: %v", card, seat, err)
		_ = h.hands[seat].Add(card)
		return
	}
	h.played[card] = true
	closed := h.trick.Complete()
	h.pushUndo(playCardCmd{seat: seat, card: card, closedTrick: closed})
	h.publish(ctx, CardPlayed{Seat: seat, Card: card, TrickLen: h.trick.Len()})
	if closed {
		h.closeTrick()
	} else {
		h.nextPlayer = seat.Next()
	}
	h.settle(ctx)
	h.maybeAutoScanDummy(ctx)
}

// closeTrick scores the open trick, records it, swaps in a fresh one,
// and hands the lead to the winner.
func (h *Hand) closeTrick() {
	trump, trumpSet := h.contract.Trump()
	winner, err := h.trick.Score(trump, trumpSet)
	if err != nil {
		h.log.Printf("score trick: %v", err)
		return
	}
	if err := h.tricks.Push(h.trick); err != nil {
		h.log.Printf("record trick: %v", err)
		return
	}
	h.lastTrickClosed = TrickClosed{
		Winner:      winner,
		Plays:       h.trick.Plays(),
		TrickNumber: h.tricks.Len(),
		NorthSouth:  h.tricks.TeamCount(bridge.North),
		EastWest:    h.tricks.TeamCount(bridge.East),
	}
	h.trick = bridge.NewTrick()
	h.nextPlayer = winner
}

func (h *Hand) violation(ctx context.Context, seat bridge.Direction, card bridge.Card, kind ViolationKind) {
	metrics.CountRuleViolation(kind.String())
	h.publish(ctx, RuleViolation{Seat: seat, Card: card, Kind: kind})
}

// Undo reverses the most recent forward event. With confirmed=false it
// only announces what would be undone; with confirmed=true it reverts
// the mutation, moves the event to the redo stack, and force-sets the
// state recorded when the event occurred. An empty stack delegates to
// the enclosing session.
func (h *Hand) Undo(ctx context.Context, confirmed bool) {
	if len(h.undoStack) == 0 {
		if h.session != nil {
			if err := h.session.PreviousHand(ctx); err != nil {
				h.log.Printf("previous hand: %v", err)
			}
		}
		return
	}
	evt := h.undoStack[len(h.undoStack)-1]
	if !confirmed {
		h.publish(ctx, UndoAnnounced{Kind: evt.cmd.kind()})
		return
	}
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	evt.cmd.revert(h)
	h.redoStack = append(h.redoStack, evt)
	h.forceState(evt.state)
	h.publish(ctx, UndoApplied{Kind: evt.cmd.kind(), State: h.state})
}

// Redo reapplies the most recently undone event. Mirrors Undo: an
// unconfirmed call only announces, an empty stack delegates to the
// session's next hand.
func (h *Hand) Redo(ctx context.Context, confirmed bool) {
	if len(h.redoStack) == 0 {
		if h.session != nil {
			if err := h.session.NextHand(ctx); err != nil {
				h.log.Printf("next hand: %v", err)
			}
		}
		return
	}
	evt := h.redoStack[len(h.redoStack)-1]
	if !confirmed {
		h.publish(ctx, RedoAnnounced{Kind: evt.cmd.kind()})
		return
	}
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.forceState(evt.state)
	evt.cmd.reapply(h)
	h.undoStack = append(h.undoStack, evt)
	h.publish(ctx, RedoApplied{Kind: evt.cmd.kind(), State: h.state})
	h.settle(ctx)
}

// UndoDepth returns the sizes of the undo and redo stacks.
func (h *Hand) UndoDepth() (undo, redo int) {
	return len(h.undoStack), len(h.redoStack)
}
