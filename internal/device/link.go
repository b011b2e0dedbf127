package device

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"bridgetable/internal/observability/metrics"
	"bridgetable/internal/serial"
)

// Device identity prefixes spoken during the text handshake.
const (
	KeyboardIdentity = "BRIDGE-KBD"
	AntennaIdentity  = "BRIDGE-ANT"
)

// ErrNoPort reports that no candidate port carried the wanted device.
var ErrNoPort = errors.New("device: no usable port")

// link is the connection half shared by both controller types: it
// probes the pool for a port that passes the handshake, remembers the
// claimed port name, and re-runs the handshake there on reconnect.
type link struct {
	name string
	pool *serial.Pool
	open serial.Opener
	cfg  serial.HandshakeConfig
	log  *log.Logger

	mu        sync.Mutex
	transport serial.Transport
	port      string
	ready     bool
}

// connect probes every unclaimed candidate port in order; the first
// one that completes the handshake is claimed and kept. Ports that
// fail are closed and released back to the pool.
func (l *link) connect() (serial.HandshakeResult, error) {
	for _, name := range l.pool.Candidates() {
		if !l.pool.Claim(name) {
			continue
		}
		t, err := l.open(name)
		if err != nil {
			l.log.Printf("%s: open %s: %v", l.name, name, err)
			l.pool.Release(name)
			continue
		}
		result, err := serial.Handshake(t, l.cfg, l.log)
		if err != nil {
			l.log.Printf("%s: handshake %s: %v", l.name, name, err)
			t.Close()
			l.pool.Release(name)
			continue
		}
		l.adopt(t, name)
		l.log.Printf("%s: connected on %s (%s)", l.name, name, result.ReadyLine)
		return result, nil
	}
	return serial.HandshakeResult{}, fmt.Errorf("%w for %s", ErrNoPort, l.name)
}

// reconnect re-runs the handshake on the already-claimed port, after a
// manual request or a firmware reset announcement.
func (l *link) reconnect() (serial.HandshakeResult, error) {
	l.mu.Lock()
	name := l.port
	old := l.transport
	l.transport = nil
	l.ready = false
	l.mu.Unlock()
	if name == "" {
		return serial.HandshakeResult{}, fmt.Errorf("%w: %s never connected", ErrNoPort, l.name)
	}
	if old != nil {
		old.Close()
	}
	metrics.CountReconnect(l.name)
	t, err := l.open(name)
	if err != nil {
		return serial.HandshakeResult{}, fmt.Errorf("device: reopen %s: %w", name, err)
	}
	result, err := serial.Handshake(t, l.cfg, l.log)
	if err != nil {
		t.Close()
		return serial.HandshakeResult{}, err
	}
	l.adopt(t, name)
	l.log.Printf("%s: reconnected on %s", l.name, name)
	return result, nil
}

func (l *link) adopt(t serial.Transport, name string) {
	l.mu.Lock()
	l.transport = t
	l.port = name
	l.ready = true
	l.mu.Unlock()
}

// Ready reports whether the device is connected and handshaken.
func (l *link) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready
}

func (l *link) markNotReady() {
	l.mu.Lock()
	l.ready = false
	l.mu.Unlock()
}

func (l *link) current() serial.Transport {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transport
}

// Close tears the device down and returns its port to the pool.
func (l *link) Close() error {
	l.mu.Lock()
	t := l.transport
	name := l.port
	l.transport = nil
	l.port = ""
	l.ready = false
	l.mu.Unlock()
	if name != "" {
		l.pool.Release(name)
	}
	if t != nil {
		return t.Close()
	}
	return nil
}
