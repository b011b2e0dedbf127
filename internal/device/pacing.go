package device

import (
	"log"
	"sync"
	"time"

	"bridgetable/internal/observability/metrics"
	"bridgetable/internal/serial"
)

// maxPacingSleep caps the wait honoured for one message's reserve.
const maxPacingSleep = 5 * time.Second

const sendQueueDepth = 64

type queueItem struct {
	frame   Frame
	control byte // non-zero for a single-byte control message
}

// sender owns one keyboard's outbound side. Frames enter a FIFO from
// any goroutine; a dedicated goroutine drains it and, before each
// send, sleeps until the previous message's audio reserve has elapsed
// so announcements never overlap. Pacing control messages travel
// in-band through the same queue, which keeps a resync replay's
// off/replay/on sequence ordered with the frames around it.
type sender struct {
	name  string
	log   *log.Logger
	queue chan queueItem
	done  chan struct{}

	mu        sync.Mutex
	transport serial.Transport
}

func newSender(name string, logger *log.Logger) *sender {
	if logger == nil {
		logger = log.Default()
	}
	return &sender{
		name:  name,
		log:   logger,
		queue: make(chan queueItem, sendQueueDepth),
		done:  make(chan struct{}),
	}
}

// attach points the sender at a freshly handshaken transport. Called
// on connect and on every reconnect.
func (s *sender) attach(t serial.Transport) {
	s.mu.Lock()
	s.transport = t
	s.mu.Unlock()
}

func (s *sender) write(b []byte) error {
	s.mu.Lock()
	t := s.transport
	s.mu.Unlock()
	if t == nil {
		return serial.ErrClosed
	}
	return t.Write(b)
}

// enqueue queues a frame; a full queue drops the frame with a log line
// rather than blocking the caller.
func (s *sender) enqueue(f Frame) {
	select {
	case s.queue <- queueItem{frame: f}:
	default:
		s.log.Printf("%s: send queue full, dropping opcode %d", s.name, f.Op)
	}
}

// setPacing queues an in-band pacing toggle.
func (s *sender) setPacing(on bool) {
	ctl := ctlPacingOff
	if on {
		ctl = ctlPacingOn
	}
	select {
	case s.queue <- queueItem{control: ctl}:
	default:
		s.log.Printf("%s: send queue full, dropping pacing toggle", s.name)
	}
}

func (s *sender) stop() {
	close(s.done)
}

// run drains the queue until stop. reserveUntil is when the previous
// message's audio is expected to finish.
func (s *sender) run() {
	pacing := true
	var reserveUntil time.Time
	for {
		select {
		case <-s.done:
			return
		case item := <-s.queue:
			if item.control != 0 {
				pacing = item.control == ctlPacingOn
				if err := s.write([]byte{item.control}); err != nil {
					s.log.Printf("%s: write control: %v", s.name, err)
				}
				continue
			}
			if pacing {
				if wait := time.Until(reserveUntil); wait > 0 {
					if wait > maxPacingSleep {
						wait = maxPacingSleep
					}
					metrics.ObservePacingWait(wait)
					select {
					case <-s.done:
						return
					case <-time.After(wait):
					}
				}
			}
			if err := s.write(item.frame.Bytes()); err != nil {
				s.log.Printf("%s: write frame: %v", s.name, err)
				continue
			}
			metrics.CountDeviceFrame(s.name, metrics.DirOutbound)
			reserveUntil = time.Now().Add(item.frame.Reserve)
		}
	}
}
