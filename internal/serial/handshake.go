package serial

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"bridgetable/internal/bridge"
	"bridgetable/internal/observability/metrics"
)

// ReadySuffix ends the line a peripheral prints once its firmware has
// finished booting and it is safe to drive.
const ReadySuffix = "READY"

// identityAttempts is the budget of non-timeout lines inspected while
// waiting for the identity prefix.
const identityAttempts = 3

// ErrWrongDevice reports that the port answered with another
// registered device type's identity.
var ErrWrongDevice = errors.New("serial: different device type on port")

// ErrNoIdentity reports that the device never identified itself.
var ErrNoIdentity = errors.New("serial: no identity line")

// HandshakeConfig describes what a controller expects to find on a
// port.
type HandshakeConfig struct {
	// Identity is this device type's line prefix, e.g. "BRIDGE-KBD".
	Identity string
	// Foreign lists the other registered device type prefixes; seeing
	// one aborts immediately, the port belongs to somebody else.
	Foreign []string
	// LineTimeout bounds one line read. Timeouts do not count against
	// the identity attempt budget.
	LineTimeout time.Duration
	// Timeout bounds the whole handshake.
	Timeout time.Duration
}

func (c HandshakeConfig) withDefaults() HandshakeConfig {
	if c.LineTimeout <= 0 {
		c.LineTimeout = 500 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// HandshakeResult carries what the handshake learned about the device.
type HandshakeResult struct {
	// ReadyLine is the full line that ended with ReadySuffix.
	ReadyLine string
	// Seat is the position code remembered by the firmware, when the
	// identity line carried one.
	Seat      bridge.Direction
	SeatKnown bool
}

// Handshake proves that the transport is the expected peripheral: it
// discards the first line (possibly a torn fragment from a previous
// session), inspects up to three further lines for the identity
// prefix, then waits for the ready line. On any error the caller
// closes the port and tries the next candidate.
func Handshake(t Transport, cfg HandshakeConfig, logger *log.Logger) (HandshakeResult, error) {
	if logger == nil {
		logger = log.Default()
	}
	cfg = cfg.withDefaults()
	start := time.Now()
	result, err := handshake(t, cfg, logger, start)
	if err != nil {
		metrics.ObserveHandshake(metrics.ResultError, time.Since(start))
		return HandshakeResult{}, err
	}
	metrics.ObserveHandshake(metrics.ResultSuccess, time.Since(start))
	return result, nil
}

func handshake(t Transport, cfg HandshakeConfig, logger *log.Logger, start time.Time) (HandshakeResult, error) {
	deadline := start.Add(cfg.Timeout)

	// The first line may be torn mid-character by our own open.
	if _, err := t.ReadLine(cfg.LineTimeout); err != nil && !errors.Is(err, ErrTimeout) {
		return HandshakeResult{}, err
	}

	var result HandshakeResult
	attempts := 0
	for {
		if time.Now().After(deadline) {
			return HandshakeResult{}, ErrTimeout
		}
		line, err := t.ReadLine(cfg.LineTimeout)
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if err != nil {
			return HandshakeResult{}, err
		}
		if strings.HasPrefix(line, cfg.Identity) {
			if seat, ok := parseSeatCode(line, logger); ok {
				result.Seat = seat
				result.SeatKnown = true
			}
			break
		}
		for _, foreign := range cfg.Foreign {
			if foreign != "" && strings.HasPrefix(line, foreign) {
				return HandshakeResult{}, fmt.Errorf("%w: %q", ErrWrongDevice, line)
			}
		}
		attempts++
		if attempts >= identityAttempts {
			return HandshakeResult{}, ErrNoIdentity
		}
	}

	for {
		if time.Now().After(deadline) {
			return HandshakeResult{}, ErrTimeout
		}
		line, err := t.ReadLine(cfg.LineTimeout)
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if err != nil {
			return HandshakeResult{}, err
		}
		if strings.HasSuffix(line, ReadySuffix) {
			result.ReadyLine = line
			return result, nil
		}
	}
}

// parseSeatCode extracts an optional "SEAT=n" token from the identity
// line. Out-of-range codes are logged and discarded.
func parseSeatCode(line string, logger *log.Logger) (bridge.Direction, bool) {
	for _, field := range strings.Fields(line) {
		value, ok := strings.CutPrefix(field, "SEAT=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || !bridge.Direction(n).Valid() {
			logger.Printf("discard seat code %q in identity line", field)
			return 0, false
		}
		return bridge.Direction(n), true
	}
	return 0, false
}
