// Package device drives the table peripherals: the packed wire codec
// shared by all device types, the audio-paced sender feeding each
// keyboard, and the keyboard and antenna controllers that translate
// between serial bytes and hand-engine calls.
package device

import (
	"errors"
	"fmt"
	"time"

	"bridgetable/internal/bridge"
)

// Opcode identifies an outbound announcement. Opcodes occupy four bits
// in the packed frame header.
type Opcode byte

const (
	OpNewHand Opcode = iota + 1
	OpCardScanned
	OpHandScanned
	OpContractSet
	OpAwaitLead
	OpDummyScan
	OpAwaitPlay
	OpCardPlayed
	OpTrickClosed
	OpHandClosed
	OpViolation
	OpUndoRedo
)

// Single-byte control opcodes. These never have the high bit set, so a
// device can tell them apart from packed frame headers.
const (
	ctlPacingOff byte = 0x01
	ctlPacingOn  byte = 0x02
)

// Undo/redo flag bits in the optional third frame byte. The remaining
// six bits carry the reversed event's kind.
const (
	flagConfirmed byte = 1 << 0
	flagRedo      byte = 1 << 1
	flagSubShift       = 2
)

// Frame is one outbound announcement. Reserve is the expected spoken
// duration; the paced sender waits it out before the next send.
type Frame struct {
	Op       Opcode
	Seat     bridge.Direction
	Card     bridge.Card
	Flags    byte
	HasFlags bool
	Reserve  time.Duration
}

// Bytes packs the frame. Byte zero sets the high bit and carries the
// opcode and suit; byte one carries the seat and rank; the flags byte
// is appended only when present.
func (f Frame) Bytes() []byte {
	b0 := 0x80 | byte(f.Op&0xF)<<3 | byte(f.Card.Suit)&0x7
	b1 := byte(f.Seat&0xF)<<4 | byte(f.Card.Rank)&0xF
	out := []byte{b0, b1}
	if f.HasFlags {
		out = append(out, f.Flags)
	}
	return out
}

// ErrBadFrame reports bytes that do not form a packed frame.
var ErrBadFrame = errors.New("device: malformed frame")

// DecodeFrame unpacks an outbound frame, used by tests and by the
// monitor's wire tap.
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < 2 || len(b) > 3 || b[0]&0x80 == 0 {
		return Frame{}, ErrBadFrame
	}
	f := Frame{
		Op:   Opcode(b[0] >> 3 & 0xF),
		Seat: bridge.Direction(b[1] >> 4 & 0xF),
		Card: bridge.Card{
			Suit: bridge.Suit(b[0] & 0x7),
			Rank: bridge.Rank(b[1] & 0xF),
		},
	}
	if len(b) == 3 {
		f.Flags = b[2]
		f.HasFlags = true
	}
	return f, nil
}

// undoFlags packs the confirmed/redo bits and the reversed kind.
func undoFlags(confirmed, redo bool, sub byte) byte {
	var flags byte
	if confirmed {
		flags |= flagConfirmed
	}
	if redo {
		flags |= flagRedo
	}
	return flags | sub<<flagSubShift
}

// InboundFamily is selected by the top two bits of a received byte.
type InboundFamily byte

const (
	// InPlayOwn plays a card from the device's own hand.
	InPlayOwn InboundFamily = iota
	// InPlayPartner plays a card from the partner's (dummy's) hand.
	InPlayPartner
	// InUndo requests undo or redo; sub-bits carry confirmed/redo.
	InUndo
	// InControl carries device housekeeping: reset announcements and
	// button presses.
	InControl
)

// Control sub-commands.
const (
	SubReset  byte = 0
	SubButton byte = 1
)

// Inbound is one decoded keyboard byte. Card is set for the play
// families, Sub for undo and control.
type Inbound struct {
	Family InboundFamily
	Card   bridge.Card
	Sub    byte
}

// DecodeInbound splits a received byte into its family and payload.
// The six payload bits of a play family are a 0-51 card index.
func DecodeInbound(b byte) (Inbound, error) {
	in := Inbound{Family: InboundFamily(b >> 6)}
	low := b & 0x3F
	switch in.Family {
	case InPlayOwn, InPlayPartner:
		card, err := bridge.CardFromIndex(int(low))
		if err != nil {
			return Inbound{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		in.Card = card
	default:
		in.Sub = low
	}
	return in, nil
}

// EncodeInbound is the inverse of DecodeInbound, used by tests and the
// console's simulated key presses.
func EncodeInbound(in Inbound) byte {
	b := byte(in.Family) << 6
	switch in.Family {
	case InPlayOwn, InPlayPartner:
		return b | byte(in.Card.Index())&0x3F
	default:
		return b | in.Sub&0x3F
	}
}
