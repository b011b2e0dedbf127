package device

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bridgetable/internal/bridge"
	"bridgetable/internal/catalog"
	"bridgetable/internal/engine"
	"bridgetable/internal/observability/metrics"
	"bridgetable/internal/serial"
)

// Antenna is the controller for one seat's RFID card reader. The
// firmware prints one tag identifier per line; the controller resolves
// it through the catalog and hands the card to the engine, which
// routes it by its own state: a scan during blind or dummy scanning
// registers the card, a scan during play plays it.
type Antenna struct {
	link
	eng  *engine.Hand
	cat  *catalog.Catalog
	seat bridge.Direction
}

// NewAntenna builds the controller for one seat's antenna.
func NewAntenna(seat bridge.Direction, eng *engine.Hand, cat *catalog.Catalog, pool *serial.Pool, open serial.Opener, logger *log.Logger) (*Antenna, error) {
	if eng == nil || cat == nil || pool == nil || open == nil {
		return nil, errors.New("device: antenna requires engine, catalog, pool and opener")
	}
	if !seat.Valid() {
		return nil, fmt.Errorf("device: invalid antenna seat %d", seat)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Antenna{
		link: link{
			name: "antenna-" + seat.String(),
			pool: pool,
			open: open,
			log:  logger,
			cfg: serial.HandshakeConfig{
				Identity: AntennaIdentity,
				Foreign:  []string{KeyboardIdentity},
			},
		},
		eng:  eng,
		cat:  cat,
		seat: seat,
	}, nil
}

// Seat returns the seat this antenna reads for.
func (a *Antenna) Seat() bridge.Direction {
	return a.seat
}

// Start claims a port, runs the handshake and spins up the reader.
func (a *Antenna) Start(ctx context.Context) error {
	if _, err := a.connect(); err != nil {
		return err
	}
	go a.readLoop(ctx, a.current())
	return nil
}

// Reconnect re-runs the handshake on the claimed port. Antennas carry
// no replayable state, so no resync follows.
func (a *Antenna) Reconnect(ctx context.Context) error {
	if _, err := a.reconnect(); err != nil {
		return err
	}
	go a.readLoop(ctx, a.current())
	return nil
}

func (a *Antenna) readLoop(ctx context.Context, t serial.Transport) {
	for {
		line, err := t.ReadLine(readPoll)
		if errors.Is(err, serial.ErrTimeout) {
			continue
		}
		if errors.Is(err, serial.ErrClosed) {
			return
		}
		if err != nil {
			a.log.Printf("%s: read: %v", a.name, err)
			a.markNotReady()
			return
		}
		if line == "" {
			continue
		}
		metrics.CountDeviceFrame(a.name, metrics.DirInbound)
		a.HandleTag(ctx, line)
	}
}

// HandleTag resolves one tag identifier and feeds the card to the
// engine. The console's simulate-scan command calls it directly.
func (a *Antenna) HandleTag(ctx context.Context, tag string) {
	card, ok := a.cat.Lookup(tag)
	if !ok {
		a.log.Printf("%s: discard unknown tag %q", a.name, tag)
		return
	}
	switch a.eng.State() {
	case engine.ScanningBlindHands, engine.ScanningDummy:
		a.eng.AddScannedCard(ctx, a.seat, card)
	default:
		a.eng.PlayCard(ctx, a.seat, card)
	}
}
