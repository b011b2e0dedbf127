package engine

import (
	"context"

	"bridgetable/internal/bridge"
)

// TrickRecord is one completed trick in a snapshot.
type TrickRecord struct {
	Plays  []bridge.Play    `json:"plays"`
	Winner bridge.Direction `json:"winner"`
}

// ContractSnapshot mirrors the three independently-entered fields.
type ContractSnapshot struct {
	Trump       bridge.Suit      `json:"trump"`
	TrumpSet    bool             `json:"trumpSet"`
	Tricks      int              `json:"tricks"`
	TricksSet   bool             `json:"tricksSet"`
	Declarer    bridge.Direction `json:"declarer"`
	DeclarerSet bool             `json:"declarerSet"`
}

// Snapshot is the full replayable hand state, used to bring a freshly
// rebooted device (or a monitor client) back in sync.
type Snapshot struct {
	State           HandState                               `json:"state"`
	Hands           [bridge.NumDirections][]bridge.Card     `json:"hands"`
	Known           [bridge.NumDirections]bool              `json:"known"`
	Contract        ContractSnapshot                        `json:"contract"`
	CompletedTricks []TrickRecord                           `json:"completedTricks"`
	CurrentTrick    []bridge.Play                           `json:"currentTrick"`
	NextPlayer      bridge.Direction                        `json:"nextPlayer"`
}

// Resyncer receives a full state replay. Device controllers implement
// it by re-encoding the snapshot onto the wire with pacing disabled.
type Resyncer interface {
	Resync(ctx context.Context, snap Snapshot) error
}

// Snapshot captures the current hand state.
func (h *Hand) Snapshot() Snapshot {
	snap := Snapshot{
		State:      h.state,
		NextPlayer: h.nextPlayer,
	}
	for seat := bridge.North; seat <= bridge.West; seat++ {
		snap.Hands[seat] = h.hands[seat].Cards()
		snap.Known[seat] = h.known[seat]
	}
	snap.Contract.Trump, snap.Contract.TrumpSet = h.contract.Trump()
	snap.Contract.Tricks, snap.Contract.TricksSet = h.contract.Tricks()
	snap.Contract.Declarer, snap.Contract.DeclarerSet = h.contract.Declarer()
	for _, t := range h.tricks.Tricks() {
		winner, _ := t.Winner()
		snap.CompletedTricks = append(snap.CompletedTricks, TrickRecord{
			Plays:  t.Plays(),
			Winner: winner,
		})
	}
	snap.CurrentTrick = h.trick.Plays()
	return snap
}

// ResyncDevice replays the full current hand state to one controller
// that has just signalled readiness after a reboot. The replay is
// idempotent; repeating it leaves the device in the same state.
func (h *Hand) ResyncDevice(ctx context.Context, target Resyncer) {
	if target == nil {
		return
	}
	if err := target.Resync(ctx, h.Snapshot()); err != nil {
		h.log.Printf("device resync: %v", err)
	}
}
