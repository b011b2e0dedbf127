package bridge

import (
	"errors"
	"fmt"
)

// Contract captures the outcome of the auction. The three fields may be
// entered independently, one at a time, and the contract only counts as
// complete once all of them are present.
type Contract struct {
	trump    Suit
	tricks   int
	declarer Direction

	trumpSet    bool
	tricksSet   bool
	declarerSet bool
}

// ErrBadContract is returned for out-of-range contract fields.
var ErrBadContract = errors.New("bridge: invalid contract field")

// SetTrump records the trump designation (a suit or NoTrump).
func (c *Contract) SetTrump(trump Suit) error {
	if !trump.Valid() && trump != NoTrump {
		return ErrBadContract
	}
	c.trump = trump
	c.trumpSet = true
	return nil
}

// SetTricks records the bid level, 1 through 7.
func (c *Contract) SetTricks(tricks int) error {
	if tricks < 1 || tricks > 7 {
		return ErrBadContract
	}
	c.tricks = tricks
	c.tricksSet = true
	return nil
}

// SetDeclarer records the seat that won the auction.
func (c *Contract) SetDeclarer(seat Direction) error {
	if !seat.Valid() {
		return ErrBadContract
	}
	c.declarer = seat
	c.declarerSet = true
	return nil
}

// ClearTrump removes the trump designation.
func (c *Contract) ClearTrump() { c.trumpSet = false }

// ClearTricks removes the bid level.
func (c *Contract) ClearTricks() { c.tricksSet = false }

// ClearDeclarer removes the declarer.
func (c *Contract) ClearDeclarer() { c.declarerSet = false }

// Complete reports whether all three fields have been entered.
func (c *Contract) Complete() bool {
	return c.trumpSet && c.tricksSet && c.declarerSet
}

// Trump returns the trump designation and whether it is set.
func (c *Contract) Trump() (Suit, bool) {
	return c.trump, c.trumpSet
}

// Tricks returns the bid level and whether it is set.
func (c *Contract) Tricks() (int, bool) {
	return c.tricks, c.tricksSet
}

// Declarer returns the declaring seat and whether it is set.
func (c *Contract) Declarer() (Direction, bool) {
	return c.declarer, c.declarerSet
}

// Dummy returns the declarer's partner. Only meaningful once complete.
func (c *Contract) Dummy() Direction {
	return c.declarer.Partner()
}

// TricksToWin returns the trick count the declaring side must take: six
// plus the bid level.
func (c *Contract) TricksToWin() int {
	return 6 + c.tricks
}

func (c *Contract) String() string {
	if !c.Complete() {
		return "(incomplete)"
	}
	return fmt.Sprintf("%d%s by %s", c.tricks, c.trump, c.declarer)
}
