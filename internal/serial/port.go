// Package serial owns the physical port plumbing: opening ports at the
// table's fixed rate, line/byte reads with polled deadlines, the shared
// candidate-port pool, and the identify/ready handshake that proves a
// port really is the expected peripheral.
package serial

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	bugst "go.bug.st/serial"
)

// DefaultBaudRate is the rate all table peripherals speak.
const DefaultBaudRate = 9600

// ErrTimeout reports that no complete line or byte arrived in time.
var ErrTimeout = errors.New("serial: read timeout")

// ErrClosed reports use of a closed transport.
var ErrClosed = errors.New("serial: transport closed")

// Transport is one open connection to a peripheral. Reads poll against
// a deadline rather than blocking forever, so handshake timeouts never
// need to interrupt a read. Implementations must make Write and Close
// mutually exclusive.
type Transport interface {
	ReadLine(timeout time.Duration) (string, error)
	ReadByte(timeout time.Duration) (byte, error)
	Write(p []byte) error
	Close() error
}

// Opener opens a named port. Production wiring uses OpenPort; tests
// substitute in-memory fakes.
type Opener func(name string) (Transport, error)

// OpenPort opens a physical serial port at the table rate.
func OpenPort(name string) (Transport, error) {
	port, err := bugst.Open(name, &bugst.Mode{BaudRate: DefaultBaudRate})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", name, err)
	}
	return &linePort{port: port}, nil
}

// ListPorts enumerates the serial ports visible to the OS.
func ListPorts() ([]string, error) {
	return bugst.GetPortsList()
}

// pollInterval bounds how long a single low-level read may block, so
// the deadline is honoured without interrupting reads.
const pollInterval = 100 * time.Millisecond

type linePort struct {
	mu     sync.Mutex
	port   bugst.Port
	buf    []byte
	closed bool
}

func (p *linePort) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		if i := bytes.IndexByte(p.buf, '\n'); i >= 0 {
			line := string(bytes.TrimRight(p.buf[:i], "\r"))
			p.buf = p.buf[i+1:]
			return line, nil
		}
		if err := p.fill(deadline); err != nil {
			return "", err
		}
	}
}

func (p *linePort) ReadByte(timeout time.Duration) (byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		if len(p.buf) > 0 {
			b := p.buf[0]
			p.buf = p.buf[1:]
			return b, nil
		}
		if err := p.fill(deadline); err != nil {
			return 0, err
		}
	}
}

// fill reads at most one chunk from the port, polling so the deadline
// is checked every pollInterval.
func (p *linePort) fill(deadline time.Time) error {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrTimeout
		}
		if remaining > pollInterval {
			remaining = pollInterval
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return ErrClosed
		}
		_ = p.port.SetReadTimeout(remaining)
		tmp := make([]byte, 64)
		n, err := p.port.Read(tmp)
		p.mu.Unlock()

		if err != nil {
			return fmt.Errorf("serial: read: %w", err)
		}
		if n > 0 {
			p.buf = append(p.buf, tmp[:n]...)
			return nil
		}
	}
}

func (p *linePort) Write(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	_, err := p.port.Write(b)
	if err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	return nil
}

func (p *linePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.port.Close()
}
