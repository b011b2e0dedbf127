// Package console is the line-oriented operator interface. Each
// command maps one-to-one onto a hand-engine event or a device
// controller call, so everything a peripheral can cause an operator
// can cause by hand.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"bridgetable/internal/bridge"
	"bridgetable/internal/engine"
)

// Keyboard is the slice of the keyboard controller the console drives.
type Keyboard interface {
	Seat() bridge.Direction
	PressButton()
	Reconnect(ctx context.Context) error
	Ready() bool
}

// Antenna is the slice of the antenna controller the console drives.
type Antenna interface {
	Seat() bridge.Direction
	HandleTag(ctx context.Context, tag string)
	Reconnect(ctx context.Context) error
	Ready() bool
}

const usage = `commands:
  new-hand                      start a fresh hand
  set-contract <level> <trump> <declarer>
  set-contract tricks|trump|declarer <value>
  play <seat> <card>            e.g. play E QH
  deal [n]                      canned deal n, random without n
  press-button <seat>           repeat the seat's last announcement
  simulate-scan <seat> <tag>    feed a tag through the seat's antenna
  reset <seat>                  reconnect the seat's devices
  print-hand <seat>
  print-state
  reinit-positions              re-handshake every keyboard
  quit
`

// Console interprets operator commands against the engine and the
// attached device controllers.
type Console struct {
	eng       *engine.Hand
	keyboards map[bridge.Direction]Keyboard
	antennas  map[bridge.Direction]Antenna
	log       *log.Logger
}

// New builds a console over the hand engine. Devices are attached
// separately; every command except the device ones works without any.
func New(eng *engine.Hand, logger *log.Logger) (*Console, error) {
	if eng == nil {
		return nil, errors.New("console: nil engine")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Console{
		eng:       eng,
		keyboards: make(map[bridge.Direction]Keyboard),
		antennas:  make(map[bridge.Direction]Antenna),
		log:       logger,
	}, nil
}

// AttachKeyboard registers a keyboard controller by its seat.
func (c *Console) AttachKeyboard(k Keyboard) {
	c.keyboards[k.Seat()] = k
}

// AttachAntenna registers an antenna controller by its seat.
func (c *Console) AttachAntenna(a Antenna) {
	c.antennas[a.Seat()] = a
}

// Run reads commands until quit or EOF.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if c.Exec(ctx, scanner.Text(), out) {
			return nil
		}
	}
	return scanner.Err()
}

// Exec interprets one command line, reporting whether it was quit.
func (c *Console) Exec(ctx context.Context, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprint(out, usage)
	case "new-hand":
		c.eng.NewHand(ctx)
		fmt.Fprintln(out, "new hand started")
	case "set-contract":
		c.setContract(ctx, args, out)
	case "play":
		c.play(ctx, args, out)
	case "deal":
		c.deal(ctx, args, out)
	case "press-button":
		c.pressButton(args, out)
	case "simulate-scan":
		c.simulateScan(ctx, args, out)
	case "reset":
		c.resetDevices(ctx, args, out)
	case "print-hand":
		c.printHand(args, out)
	case "print-state":
		c.printState(out)
	case "reinit-positions":
		c.reinitPositions(ctx, out)
	default:
		fmt.Fprintf(out, "unknown command %q, try help\n", cmd)
	}
	return false
}

func (c *Console) setContract(ctx context.Context, args []string, out io.Writer) {
	switch len(args) {
	case 3:
		tricks, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(out, "bad level %q\n", args[0])
			return
		}
		trump, err := bridge.ParseSuit(args[1])
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		declarer, err := bridge.ParseDirection(args[2])
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		c.eng.SetContractTricks(ctx, tricks)
		c.eng.SetContractTrump(ctx, trump)
		c.eng.SetContractDeclarer(ctx, declarer)
	case 2:
		// Single-field form, matching the stepwise device UI.
		switch args[0] {
		case "tricks":
			tricks, err := strconv.Atoi(args[1])
			if err != nil {
				fmt.Fprintf(out, "bad level %q\n", args[1])
				return
			}
			c.eng.SetContractTricks(ctx, tricks)
		case "trump":
			trump, err := bridge.ParseSuit(args[1])
			if err != nil {
				fmt.Fprintln(out, err)
				return
			}
			c.eng.SetContractTrump(ctx, trump)
		case "declarer":
			declarer, err := bridge.ParseDirection(args[1])
			if err != nil {
				fmt.Fprintln(out, err)
				return
			}
			c.eng.SetContractDeclarer(ctx, declarer)
		default:
			fmt.Fprintf(out, "unknown contract field %q\n", args[0])
		}
	default:
		fmt.Fprintln(out, "usage: set-contract <level> <trump> <declarer>")
	}
}

func (c *Console) play(ctx context.Context, args []string, out io.Writer) {
	if len(args) != 2 {
		fmt.Fprintln(out, "usage: play <seat> <card>")
		return
	}
	seat, err := bridge.ParseDirection(args[0])
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	card, err := bridge.ParseCard(args[1])
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	c.eng.PlayCard(ctx, seat, card)
}

func (c *Console) deal(ctx context.Context, args []string, out io.Writer) {
	fixed := -1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 || n >= engine.NumCannedDeals {
			fmt.Fprintf(out, "deal index must be 0..%d\n", engine.NumCannedDeals-1)
			return
		}
		fixed = n
	}
	c.eng.DealHands(ctx, fixed)
	fmt.Fprintln(out, "dealt")
}

func (c *Console) pressButton(args []string, out io.Writer) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: press-button <seat>")
		return
	}
	seat, err := bridge.ParseDirection(args[0])
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	k, ok := c.keyboards[seat]
	if !ok {
		fmt.Fprintf(out, "no keyboard at %v\n", seat)
		return
	}
	k.PressButton()
}

func (c *Console) simulateScan(ctx context.Context, args []string, out io.Writer) {
	if len(args) != 2 {
		fmt.Fprintln(out, "usage: simulate-scan <seat> <tag>")
		return
	}
	seat, err := bridge.ParseDirection(args[0])
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	if a, ok := c.antennas[seat]; ok {
		a.HandleTag(ctx, args[1])
		return
	}
	// Headless fallback: treat the tag as a card abbreviation and route
	// it the way the antenna would.
	card, err := bridge.ParseCard(args[1])
	if err != nil {
		fmt.Fprintf(out, "no antenna at %v and %q is not a card\n", seat, args[1])
		return
	}
	switch c.eng.State() {
	case engine.ScanningBlindHands, engine.ScanningDummy:
		c.eng.AddScannedCard(ctx, seat, card)
	default:
		c.eng.PlayCard(ctx, seat, card)
	}
}

func (c *Console) resetDevices(ctx context.Context, args []string, out io.Writer) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: reset <seat>")
		return
	}
	seat, err := bridge.ParseDirection(args[0])
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	if k, ok := c.keyboards[seat]; ok {
		if err := k.Reconnect(ctx); err != nil {
			fmt.Fprintf(out, "keyboard %v: %v\n", seat, err)
		}
	}
	if a, ok := c.antennas[seat]; ok {
		if err := a.Reconnect(ctx); err != nil {
			fmt.Fprintf(out, "antenna %v: %v\n", seat, err)
		}
	}
}

func (c *Console) printHand(args []string, out io.Writer) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: print-hand <seat>")
		return
	}
	seat, err := bridge.ParseDirection(args[0])
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	cards := c.eng.HandOf(seat)
	names := make([]string, len(cards))
	for i, card := range cards {
		names[i] = card.String()
	}
	fmt.Fprintf(out, "%v (%d): %s\n", seat, len(cards), strings.Join(names, " "))
}

func (c *Console) printState(out io.Writer) {
	fmt.Fprintf(out, "state: %v\n", c.eng.State())
	fmt.Fprintf(out, "next player: %v\n", c.eng.NextPlayer())
	fmt.Fprintf(out, "contract: %v\n", c.eng.Contract())
	tricks := c.eng.Tricks()
	fmt.Fprintf(out, "tricks: %d recorded, NS %d, EW %d\n",
		tricks.Len(), tricks.TeamCount(bridge.North), tricks.TeamCount(bridge.East))
	for seat := bridge.North; seat <= bridge.West; seat++ {
		status := "-"
		if k, ok := c.keyboards[seat]; ok {
			if k.Ready() {
				status = "keyboard ready"
			} else {
				status = "keyboard not ready"
			}
		}
		fmt.Fprintf(out, "%v: %s\n", seat, status)
	}
}

// reinitPositions re-runs every keyboard's handshake so seat codes
// remembered by the firmware are read again.
func (c *Console) reinitPositions(ctx context.Context, out io.Writer) {
	for seat, k := range c.keyboards {
		if err := k.Reconnect(ctx); err != nil {
			fmt.Fprintf(out, "keyboard %v: %v\n", seat, err)
		}
	}
	fmt.Fprintln(out, "positions reinitialised")
}
