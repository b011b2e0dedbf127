package device

import (
	"log"
	"sync"
	"testing"
	"time"

	"bridgetable/internal/serial"
)

// fakeTransport feeds scripted lines and bytes through channels and
// timestamps every write.
type fakeTransport struct {
	lines chan string
	bytes chan byte
	done  chan struct{}
	once  sync.Once

	mu     sync.Mutex
	writes [][]byte
	stamps []time.Time
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		lines: make(chan string, 16),
		bytes: make(chan byte, 16),
		done:  make(chan struct{}),
	}
}

func (f *fakeTransport) ReadLine(timeout time.Duration) (string, error) {
	select {
	case line := <-f.lines:
		return line, nil
	case <-f.done:
		return "", serial.ErrClosed
	case <-time.After(timeout):
		return "", serial.ErrTimeout
	}
}

func (f *fakeTransport) ReadByte(timeout time.Duration) (byte, error) {
	select {
	case b := <-f.bytes:
		return b, nil
	case <-f.done:
		return 0, serial.ErrClosed
	case <-time.After(timeout):
		return 0, serial.ErrTimeout
	}
}

func (f *fakeTransport) Write(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, append([]byte(nil), p...))
	f.stamps = append(f.stamps, time.Now())
	return nil
}

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

func (f *fakeTransport) waitWrites(t *testing.T, n int) ([][]byte, []time.Time) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		if len(f.writes) >= n {
			writes := append([][]byte(nil), f.writes...)
			stamps := append([]time.Time(nil), f.stamps...)
			f.mu.Unlock()
			return writes, stamps
		}
		f.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d writes", n)
	return nil, nil
}

func TestPacingSpacesConsecutiveSends(t *testing.T) {
	transport := newFakeTransport()
	s := newSender("keyboard-test", log.Default())
	s.attach(transport)
	go s.run()
	defer s.stop()

	reserve := 2000 * time.Millisecond
	s.enqueue(Frame{Op: OpCardPlayed, Reserve: reserve})
	s.enqueue(Frame{Op: OpCardPlayed, Reserve: reserve})

	_, stamps := transport.waitWrites(t, 2)
	if gap := stamps[1].Sub(stamps[0]); gap < 1900*time.Millisecond {
		t.Fatalf("frames %v apart, want at least ~1.9s", gap)
	}
}

func TestPacingDisabledSendsImmediately(t *testing.T) {
	transport := newFakeTransport()
	s := newSender("keyboard-test", log.Default())
	s.attach(transport)
	go s.run()
	defer s.stop()

	s.setPacing(false)
	s.enqueue(Frame{Op: OpCardPlayed, Reserve: 2 * time.Second})
	s.enqueue(Frame{Op: OpCardPlayed, Reserve: 2 * time.Second})
	s.setPacing(true)

	// Control toggle, two frames, control toggle.
	writes, stamps := transport.waitWrites(t, 4)
	if writes[0][0] != ctlPacingOff || writes[3][0] != ctlPacingOn {
		t.Fatalf("toggles not written in order: %x", writes)
	}
	if gap := stamps[2].Sub(stamps[1]); gap > 500*time.Millisecond {
		t.Fatalf("unpaced frames %v apart", gap)
	}
}

func TestPacingSleepIsCapped(t *testing.T) {
	transport := newFakeTransport()
	s := newSender("keyboard-test", log.Default())
	s.attach(transport)
	go s.run()
	defer s.stop()

	s.enqueue(Frame{Op: OpHandClosed, Reserve: time.Minute})
	s.enqueue(Frame{Op: OpNewHand})

	_, stamps := transport.waitWrites(t, 2)
	if gap := stamps[1].Sub(stamps[0]); gap > 6*time.Second {
		t.Fatalf("cap not applied, frames %v apart", gap)
	}
}

func TestSenderDropsWhenQueueFull(t *testing.T) {
	s := newSender("keyboard-test", log.Default())
	// No run goroutine; fill the queue and overflow it.
	for i := 0; i < sendQueueDepth+5; i++ {
		s.enqueue(Frame{Op: OpNewHand})
	}
	if len(s.queue) != sendQueueDepth {
		t.Fatalf("queue depth: %d", len(s.queue))
	}
}
