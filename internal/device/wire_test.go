package device

import (
	"testing"

	"bridgetable/internal/bridge"
)

func TestFrameRoundTrip(t *testing.T) {
	in := Frame{
		Op:   OpCardPlayed,
		Seat: bridge.East,
		Card: bridge.Card{Rank: bridge.Queen, Suit: bridge.Hearts},
	}
	raw := in.Bytes()
	if len(raw) != 2 || raw[0]&0x80 == 0 {
		t.Fatalf("packed bytes: %x", raw)
	}
	out, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Op != OpCardPlayed || out.Seat != bridge.East || out.Card != in.Card {
		t.Fatalf("round trip: %+v", out)
	}
}

func TestFrameFlagsByte(t *testing.T) {
	in := undoFrame(true, true, 5)
	raw := in.Bytes()
	if len(raw) != 3 {
		t.Fatalf("flags frame length: %d", len(raw))
	}
	out, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.HasFlags || out.Flags&flagConfirmed == 0 || out.Flags&flagRedo == 0 {
		t.Fatalf("flags: %08b", out.Flags)
	}
	if out.Flags>>flagSubShift != 5 {
		t.Fatalf("sub-event bits: %d", out.Flags>>flagSubShift)
	}
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	for _, raw := range [][]byte{nil, {0x81}, {0x01, 0x00}, {0x81, 0x00, 0x00, 0x00}} {
		if _, err := DecodeFrame(raw); err == nil {
			t.Fatalf("decoded %x", raw)
		}
	}
}

func TestInboundPlayRoundTrip(t *testing.T) {
	card := bridge.Card{Rank: bridge.Queen, Suit: bridge.Hearts}
	for _, family := range []InboundFamily{InPlayOwn, InPlayPartner} {
		b := EncodeInbound(Inbound{Family: family, Card: card})
		in, err := DecodeInbound(b)
		if err != nil {
			t.Fatalf("decode 0x%02x: %v", b, err)
		}
		if in.Family != family || in.Card != card {
			t.Fatalf("round trip: %+v", in)
		}
	}
}

func TestInboundSubCommands(t *testing.T) {
	b := EncodeInbound(Inbound{Family: InControl, Sub: SubButton})
	in, err := DecodeInbound(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.Family != InControl || in.Sub != SubButton {
		t.Fatalf("control: %+v", in)
	}

	b = EncodeInbound(Inbound{Family: InUndo, Sub: flagConfirmed | flagRedo})
	in, err = DecodeInbound(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.Sub&flagConfirmed == 0 || in.Sub&flagRedo == 0 {
		t.Fatalf("undo sub: %08b", in.Sub)
	}
}

func TestDecodeInboundRejectsBadCardIndex(t *testing.T) {
	// Play family with index 52.
	if _, err := DecodeInbound(byte(InPlayOwn)<<6 | 52); err == nil {
		t.Fatal("index 52 must not decode")
	}
}

func TestContractFramePacksAllThreeFields(t *testing.T) {
	f := contractFrame(bridge.NoTrump, 3, bridge.South)
	out, err := DecodeFrame(f.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Op != OpContractSet || out.Seat != bridge.South {
		t.Fatalf("contract frame: %+v", out)
	}
	if out.Card.Suit != bridge.NoTrump || int(out.Card.Rank) != 3 {
		t.Fatalf("trump/level: %v %d", out.Card.Suit, out.Card.Rank)
	}
	if f.Reserve != reserveLong {
		t.Fatalf("reserve: %v", f.Reserve)
	}
}
