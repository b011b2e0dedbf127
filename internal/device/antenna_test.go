package device

import (
	"context"
	"log"
	"strings"
	"testing"

	"bridgetable/internal/bridge"
	"bridgetable/internal/catalog"
	"bridgetable/internal/engine"
	"bridgetable/internal/eventbus"
	"bridgetable/internal/serial"
)

const testCatalog = `
04A1B2|AS
04C3D4|QH
04E5F6|2C
`

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse(strings.NewReader(testCatalog), log.Default())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func TestAntennaScansDuringBlindScan(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	eng, err := engine.New(bus, log.Default(), engine.WithBlindSeats(bridge.North))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	ctx := context.Background()
	eng.NewHand(ctx)

	ant, err := NewAntenna(bridge.North, eng, newTestCatalog(t), serial.NewPool(nil), noOpen, log.Default())
	if err != nil {
		t.Fatalf("antenna: %v", err)
	}

	var scanned []engine.CardScanned
	eventbus.On(bus, func(_ context.Context, e engine.CardScanned) error {
		scanned = append(scanned, e)
		return nil
	})

	ant.HandleTag(ctx, "04A1B2")
	if len(scanned) != 1 || scanned[0].Seat != bridge.North {
		t.Fatalf("scans: %+v", scanned)
	}
	want := bridge.Card{Rank: bridge.Ace, Suit: bridge.Spades}
	if scanned[0].Card != want {
		t.Fatalf("card: %v", scanned[0].Card)
	}
}

func TestAntennaPlaysDuringTrick(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	eng := newContractedEngine(t, bus)
	ant, err := NewAntenna(bridge.East, eng, newTestCatalog(t), serial.NewPool(nil), noOpen, log.Default())
	if err != nil {
		t.Fatalf("antenna: %v", err)
	}

	var played []engine.CardPlayed
	eventbus.On(bus, func(_ context.Context, e engine.CardPlayed) error {
		played = append(played, e)
		return nil
	})

	ant.HandleTag(context.Background(), "04C3D4")
	if len(played) != 1 || played[0].Seat != bridge.East {
		t.Fatalf("plays: %+v", played)
	}
}

func TestAntennaDiscardsUnknownTag(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	eng := newContractedEngine(t, bus)
	ant, err := NewAntenna(bridge.East, eng, newTestCatalog(t), serial.NewPool(nil), noOpen, log.Default())
	if err != nil {
		t.Fatalf("antenna: %v", err)
	}

	var played int
	eventbus.On(bus, func(_ context.Context, _ engine.CardPlayed) error {
		played++
		return nil
	})

	ant.HandleTag(context.Background(), "FFFFFF")
	if played != 0 {
		t.Fatal("unknown tag must be discarded")
	}
}

func TestAntennaStartClaimsPort(t *testing.T) {
	transport := newFakeTransport()
	transport.lines <- "boot"
	transport.lines <- "BRIDGE-ANT v1.0"
	transport.lines <- "BRIDGE-ANT READY"

	bus := eventbus.NewInMemoryBus()
	eng := newContractedEngine(t, bus)
	pool := serial.NewPool([]string{"/dev/ttyACM0"})
	open := func(string) (serial.Transport, error) { return transport, nil }

	ant, err := NewAntenna(bridge.East, eng, newTestCatalog(t), pool, open, log.Default())
	if err != nil {
		t.Fatalf("antenna: %v", err)
	}
	if err := ant.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer ant.Close()

	if !ant.Ready() || pool.Len() != 0 {
		t.Fatalf("ready=%v pool=%d", ant.Ready(), pool.Len())
	}
}
