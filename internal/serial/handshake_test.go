package serial

import (
	"errors"
	"log"
	"testing"
	"time"

	"bridgetable/internal/bridge"
)

// scriptTransport replays a fixed sequence of line reads; the timeout
// marker simulates a silent port.
const timeoutMarker = "\x00timeout"

type scriptTransport struct {
	lines  []string
	writes [][]byte
	closed bool
}

func (s *scriptTransport) ReadLine(_ time.Duration) (string, error) {
	if len(s.lines) == 0 {
		return "", ErrTimeout
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == timeoutMarker {
		return "", ErrTimeout
	}
	return line, nil
}

func (s *scriptTransport) ReadByte(_ time.Duration) (byte, error) {
	return 0, ErrTimeout
}

func (s *scriptTransport) Write(p []byte) error {
	s.writes = append(s.writes, append([]byte(nil), p...))
	return nil
}

func (s *scriptTransport) Close() error {
	s.closed = true
	return nil
}

func cfg() HandshakeConfig {
	return HandshakeConfig{
		Identity:    "BRIDGE-KBD",
		Foreign:     []string{"BRIDGE-ANT"},
		LineTimeout: time.Millisecond,
		Timeout:     250 * time.Millisecond,
	}
}

func TestHandshakeIdentifiesAndWaitsForReady(t *testing.T) {
	transport := &scriptTransport{lines: []string{
		"rn fragme",
		"BRIDGE-KBD v2.1 SEAT=2",
		"init eeprom ok",
		"BRIDGE-KBD READY",
	}}
	result, err := Handshake(transport, cfg(), log.Default())
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if result.ReadyLine != "BRIDGE-KBD READY" {
		t.Fatalf("ready line: %q", result.ReadyLine)
	}
	if !result.SeatKnown || result.Seat != bridge.South {
		t.Fatalf("seat: %v known=%v", result.Seat, result.SeatKnown)
	}
}

func TestHandshakeAbortsOnForeignIdentity(t *testing.T) {
	transport := &scriptTransport{lines: []string{
		"boot",
		"BRIDGE-ANT v1.0",
	}}
	_, err := Handshake(transport, cfg(), log.Default())
	if !errors.Is(err, ErrWrongDevice) {
		t.Fatalf("got %v want ErrWrongDevice", err)
	}
}

func TestHandshakeIdentityBudget(t *testing.T) {
	transport := &scriptTransport{lines: []string{
		"boot",
		"garbage one",
		"garbage two",
		"garbage three",
		"BRIDGE-KBD v2.1",
	}}
	_, err := Handshake(transport, cfg(), log.Default())
	if !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("got %v want ErrNoIdentity", err)
	}
}

func TestHandshakeTimeoutsDoNotCountAgainstBudget(t *testing.T) {
	transport := &scriptTransport{lines: []string{
		"boot",
		timeoutMarker,
		"garbage one",
		timeoutMarker,
		"garbage two",
		timeoutMarker,
		"BRIDGE-KBD v2.1",
		"BRIDGE-KBD READY",
	}}
	result, err := Handshake(transport, cfg(), log.Default())
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if result.SeatKnown {
		t.Fatal("no seat code was sent")
	}
}

func TestHandshakeDiscardsBadSeatCode(t *testing.T) {
	transport := &scriptTransport{lines: []string{
		"boot",
		"BRIDGE-KBD SEAT=9",
		"BRIDGE-KBD READY",
	}}
	result, err := Handshake(transport, cfg(), log.Default())
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if result.SeatKnown {
		t.Fatal("out-of-range seat code must be discarded")
	}
}

func TestHandshakeOverallDeadline(t *testing.T) {
	transport := &scriptTransport{} // silent port, every read times out
	short := cfg()
	short.Timeout = 5 * time.Millisecond
	_, err := Handshake(transport, short, log.Default())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v want ErrTimeout", err)
	}
}

func TestPoolClaims(t *testing.T) {
	pool := NewPool([]string{"/dev/ttyUSB0", "/dev/ttyUSB1"})
	if !pool.Claim("/dev/ttyUSB0") {
		t.Fatal("first claim must win")
	}
	if pool.Claim("/dev/ttyUSB0") {
		t.Fatal("second claim must lose")
	}
	if got := pool.Candidates(); len(got) != 1 || got[0] != "/dev/ttyUSB1" {
		t.Fatalf("candidates: %v", got)
	}
	pool.Release("/dev/ttyUSB0")
	if pool.Len() != 2 {
		t.Fatalf("pool len after release: %d", pool.Len())
	}
}
