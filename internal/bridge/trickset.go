package bridge

import "errors"

// TrickSet is the append-only ledger of completed tricks for a hand.
// Tricks are stack-ordered so undo can pop the most recent one and redo
// can push it back.
type TrickSet struct {
	tricks []*Trick
}

// NewTrickSet constructs an empty ledger.
func NewTrickSet() *TrickSet {
	return &TrickSet{}
}

// Push records a completed, scored trick.
func (s *TrickSet) Push(t *Trick) error {
	if t == nil || !t.Complete() {
		return errors.New("bridge: only completed tricks enter the ledger")
	}
	if _, ok := t.Winner(); !ok {
		return errors.New("bridge: trick must be scored before recording")
	}
	if len(s.tricks) >= HandSize {
		return errors.New("bridge: ledger already holds thirteen tricks")
	}
	s.tricks = append(s.tricks, t)
	return nil
}

// Pop removes and returns the most recent trick, for undo.
func (s *TrickSet) Pop() (*Trick, bool) {
	if len(s.tricks) == 0 {
		return nil, false
	}
	last := s.tricks[len(s.tricks)-1]
	s.tricks = s.tricks[:len(s.tricks)-1]
	return last, true
}

// Len returns the number of recorded tricks.
func (s *TrickSet) Len() int {
	return len(s.tricks)
}

// Complete reports whether all thirteen tricks are recorded.
func (s *TrickSet) Complete() bool {
	return len(s.tricks) == HandSize
}

// TeamCount returns the number of tricks won by the given seat's team.
func (s *TrickSet) TeamCount(seat Direction) int {
	count := 0
	for _, t := range s.tricks {
		if winner, ok := t.Winner(); ok && winner.SameTeam(seat) {
			count++
		}
	}
	return count
}

// Tricks returns the recorded tricks in play order.
func (s *TrickSet) Tricks() []*Trick {
	out := make([]*Trick, len(s.tricks))
	copy(out, s.tricks)
	return out
}

// HandWinner derives which team won the hand against the contract: the
// declaring team if it took at least six plus the bid level, otherwise
// the defenders. Only meaningful once all thirteen tricks are recorded
// and the contract is complete.
func (s *TrickSet) HandWinner(contract *Contract) (Direction, bool) {
	if !s.Complete() || contract == nil || !contract.Complete() {
		return 0, false
	}
	declarer, _ := contract.Declarer()
	if s.TeamCount(declarer) >= contract.TricksToWin() {
		return declarer, true
	}
	return declarer.Next(), true
}
