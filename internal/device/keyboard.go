package device

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bridgetable/internal/bridge"
	"bridgetable/internal/engine"
	"bridgetable/internal/eventbus"
	"bridgetable/internal/observability/metrics"
	"bridgetable/internal/serial"
)

// Audio reserves per announcement class, sized to the spoken phrase.
const (
	reserveShort = 800 * time.Millisecond
	reserveCard  = 1500 * time.Millisecond
	reserveLong  = 2500 * time.Millisecond
)

const readPoll = 500 * time.Millisecond

// Keyboard is the controller for one audio keyboard. It subscribes to
// hand-engine events, filters them by seat relevance, and queues the
// relevant ones as paced announcements; inbound bytes become engine
// calls on the reader goroutine.
type Keyboard struct {
	link
	eng    *engine.Hand
	sender *sender

	seatMu sync.Mutex
	seat   bridge.Direction

	frameMu   sync.Mutex
	lastFrame Frame
	hasFrame  bool
}

// NewKeyboard builds the controller for one seat and registers its bus
// subscriptions. Call Start to probe for the physical device.
func NewKeyboard(seat bridge.Direction, eng *engine.Hand, bus eventbus.Bus, pool *serial.Pool, open serial.Opener, logger *log.Logger) (*Keyboard, error) {
	if eng == nil || bus == nil || pool == nil || open == nil {
		return nil, errors.New("device: keyboard requires engine, bus, pool and opener")
	}
	if !seat.Valid() {
		return nil, fmt.Errorf("device: invalid keyboard seat %d", seat)
	}
	if logger == nil {
		logger = log.Default()
	}
	name := "keyboard-" + seat.String()
	k := &Keyboard{
		link: link{
			name: name,
			pool: pool,
			open: open,
			log:  logger,
			cfg: serial.HandshakeConfig{
				Identity: KeyboardIdentity,
				Foreign:  []string{AntennaIdentity},
			},
		},
		eng:    eng,
		sender: newSender(name, logger),
		seat:   seat,
	}
	k.subscribe(bus)
	return k, nil
}

// Seat returns the seat this keyboard speaks for.
func (k *Keyboard) Seat() bridge.Direction {
	k.seatMu.Lock()
	defer k.seatMu.Unlock()
	return k.seat
}

func (k *Keyboard) setSeat(seat bridge.Direction) {
	k.seatMu.Lock()
	k.seat = seat
	k.seatMu.Unlock()
}

// relevant reports whether a seat concerns this keyboard: its own
// chair or its partner's (the dummy it may be driving).
func (k *Keyboard) relevant(seat bridge.Direction) bool {
	own := k.Seat()
	return seat == own || seat == own.Partner()
}

// Start claims a port, runs the handshake and spins up the sender and
// reader goroutines. A seat code remembered by the firmware overrides
// the configured seat.
func (k *Keyboard) Start(ctx context.Context) error {
	result, err := k.connect()
	if err != nil {
		return err
	}
	if result.SeatKnown {
		k.setSeat(result.Seat)
	}
	k.sender.attach(k.current())
	go k.sender.run()
	go k.readLoop(ctx, k.current())
	return nil
}

// Reconnect re-runs the handshake on the claimed port. The previous
// reader goroutine exits when its transport closes; a new one is
// started against the fresh transport, and the full hand state is
// replayed so the rebooted firmware catches up.
func (k *Keyboard) Reconnect(ctx context.Context) error {
	result, err := k.reconnect()
	if err != nil {
		return err
	}
	if result.SeatKnown {
		k.setSeat(result.Seat)
	}
	k.sender.attach(k.current())
	go k.readLoop(ctx, k.current())
	k.eng.ResyncDevice(ctx, k)
	return nil
}

// Stop halts the sender and releases the port.
func (k *Keyboard) Stop() error {
	k.sender.stop()
	return k.Close()
}

func (k *Keyboard) readLoop(ctx context.Context, t serial.Transport) {
	for {
		b, err := t.ReadByte(readPoll)
		if errors.Is(err, serial.ErrTimeout) {
			continue
		}
		if errors.Is(err, serial.ErrClosed) {
			return
		}
		if err != nil {
			k.log.Printf("%s: read: %v", k.name, err)
			k.markNotReady()
			return
		}
		metrics.CountDeviceFrame(k.name, metrics.DirInbound)
		k.dispatch(ctx, b)
	}
}

func (k *Keyboard) dispatch(ctx context.Context, b byte) {
	in, err := DecodeInbound(b)
	if err != nil {
		k.log.Printf("%s: discard byte 0x%02x: %v", k.name, b, err)
		return
	}
	switch in.Family {
	case InPlayOwn:
		k.eng.PlayCard(ctx, k.Seat(), in.Card)
	case InPlayPartner:
		k.eng.PlayCard(ctx, k.Seat().Partner(), in.Card)
	case InUndo:
		confirmed := in.Sub&flagConfirmed != 0
		if in.Sub&flagRedo != 0 {
			k.eng.Redo(ctx, confirmed)
		} else {
			k.eng.Undo(ctx, confirmed)
		}
	case InControl:
		switch in.Sub {
		case SubReset:
			k.log.Printf("%s: firmware announced reset", k.name)
			k.markNotReady()
			go func() {
				if err := k.Reconnect(ctx); err != nil {
					k.log.Printf("%s: reconnect: %v", k.name, err)
				}
			}()
		case SubButton:
			k.PressButton()
		default:
			k.log.Printf("%s: discard control sub-command %d", k.name, in.Sub)
		}
	}
}

// PressButton repeats the keyboard's last announcement, the response
// to its physical repeat button.
func (k *Keyboard) PressButton() {
	k.frameMu.Lock()
	frame, ok := k.lastFrame, k.hasFrame
	k.frameMu.Unlock()
	if ok {
		k.sender.enqueue(frame)
	}
}

func (k *Keyboard) announce(f Frame) {
	k.frameMu.Lock()
	k.lastFrame = f
	k.hasFrame = true
	k.frameMu.Unlock()
	k.sender.enqueue(f)
}

func (k *Keyboard) subscribe(bus eventbus.Bus) {
	eventbus.On(bus, func(_ context.Context, _ engine.HandStarted) error {
		k.announce(Frame{Op: OpNewHand, Reserve: reserveShort})
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.CardScanned) error {
		if !k.relevant(e.Seat) {
			return nil
		}
		k.announce(Frame{Op: OpCardScanned, Seat: e.Seat, Card: e.Card, Reserve: reserveCard})
		if e.HandComplete {
			k.announce(Frame{Op: OpHandScanned, Seat: e.Seat, Reserve: reserveShort})
		}
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.ContractSet) error {
		k.announce(contractFrame(e.Trump, e.Tricks, e.Declarer))
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.AwaitingLead) error {
		if !k.relevant(e.Seat) {
			return nil
		}
		k.announce(Frame{Op: OpAwaitLead, Seat: e.Seat, Reserve: reserveShort})
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.DummyScanStarted) error {
		if !k.relevant(e.Seat) {
			return nil
		}
		k.announce(Frame{Op: OpDummyScan, Seat: e.Seat, Reserve: reserveShort})
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.AwaitingPlay) error {
		if !k.relevant(e.Seat) {
			return nil
		}
		k.announce(Frame{Op: OpAwaitPlay, Seat: e.Seat, Reserve: reserveShort})
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.CardPlayed) error {
		k.announce(Frame{Op: OpCardPlayed, Seat: e.Seat, Card: e.Card, Reserve: reserveCard})
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.TrickClosed) error {
		k.announce(Frame{Op: OpTrickClosed, Seat: e.Winner, Reserve: reserveLong})
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.HandClosed) error {
		k.announce(Frame{Op: OpHandClosed, Seat: e.WinningTeam, Reserve: reserveLong})
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.RuleViolation) error {
		// The partner seat matters too: this keyboard may have caused
		// the violation playing the dummy's hand.
		if !k.relevant(e.Seat) {
			return nil
		}
		k.announce(Frame{
			Op: OpViolation, Seat: e.Seat, Card: e.Card,
			Flags: byte(e.Kind) << flagSubShift, HasFlags: true,
			Reserve: reserveCard,
		})
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.UndoAnnounced) error {
		k.announce(undoFrame(false, false, byte(e.Kind)))
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.UndoApplied) error {
		k.announce(undoFrame(true, false, byte(e.Kind)))
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.RedoAnnounced) error {
		k.announce(undoFrame(false, true, byte(e.Kind)))
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.RedoApplied) error {
		k.announce(undoFrame(true, true, byte(e.Kind)))
		return nil
	})
}

// contractFrame packs a complete contract: declarer in the seat
// nibble, trump in the suit bits, bid level in the rank nibble.
func contractFrame(trump bridge.Suit, tricks int, declarer bridge.Direction) Frame {
	return Frame{
		Op:      OpContractSet,
		Seat:    declarer,
		Card:    bridge.Card{Suit: trump, Rank: bridge.Rank(tricks)},
		Reserve: reserveLong,
	}
}

func undoFrame(confirmed, redo bool, sub byte) Frame {
	return Frame{
		Op:       OpUndoRedo,
		Flags:    undoFlags(confirmed, redo, sub),
		HasFlags: true,
		Reserve:  reserveCard,
	}
}

// Resync replays the full hand state to the device with pacing
// disabled, so a rebooted keyboard catches up without minutes of
// queued audio.
func (k *Keyboard) Resync(_ context.Context, snap engine.Snapshot) error {
	k.sender.setPacing(false)
	defer k.sender.setPacing(true)

	k.sender.enqueue(Frame{Op: OpNewHand})
	for seat := bridge.North; seat <= bridge.West; seat++ {
		if !snap.Known[seat] || !k.relevant(seat) {
			continue
		}
		for _, card := range snap.Hands[seat] {
			k.sender.enqueue(Frame{Op: OpCardScanned, Seat: seat, Card: card})
		}
		k.sender.enqueue(Frame{Op: OpHandScanned, Seat: seat})
	}
	c := snap.Contract
	if c.TrumpSet && c.TricksSet && c.DeclarerSet {
		f := contractFrame(c.Trump, c.Tricks, c.Declarer)
		f.Reserve = 0
		k.sender.enqueue(f)
	}
	for _, trick := range snap.CompletedTricks {
		for _, play := range trick.Plays {
			k.sender.enqueue(Frame{Op: OpCardPlayed, Seat: play.Seat, Card: play.Card})
		}
		k.sender.enqueue(Frame{Op: OpTrickClosed, Seat: trick.Winner})
	}
	for _, play := range snap.CurrentTrick {
		k.sender.enqueue(Frame{Op: OpCardPlayed, Seat: play.Seat, Card: play.Card})
	}
	if snap.State == engine.WaitingForFirstPlayer || snap.State == engine.WaitingForNextPlayer {
		k.sender.enqueue(Frame{Op: OpAwaitPlay, Seat: snap.NextPlayer})
	}
	return nil
}
