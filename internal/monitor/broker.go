// Package monitor is the presentation surface: an SSE feed of every
// hand event, a JSON snapshot of the current hand, and the session
// report download. It only observes; nothing here calls back into the
// engine.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"

	"bridgetable/internal/engine"
	"bridgetable/internal/eventbus"
)

// Envelope wraps one event for the stream: the bare type name plus the
// event's own fields.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broker fans hand events out to connected stream clients. Client
// channels are buffered and drop-on-full, so a stalled client never
// blocks the engine goroutine publishing the event.
type Broker struct {
	log *log.Logger

	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewBroker subscribes a broker to every event the engine publishes.
func NewBroker(bus eventbus.Bus, logger *log.Logger) (*Broker, error) {
	if bus == nil {
		return nil, errors.New("monitor: nil bus")
	}
	if logger == nil {
		logger = log.Default()
	}
	b := &Broker{log: logger, clients: make(map[chan []byte]struct{})}

	tap[engine.HandStarted](b, bus)
	tap[engine.BlindScanStarted](b, bus)
	tap[engine.CardScanned](b, bus)
	tap[engine.ContractEntryStarted](b, bus)
	tap[engine.ContractTricksSet](b, bus)
	tap[engine.ContractDeclarerSet](b, bus)
	tap[engine.ContractTrumpSet](b, bus)
	tap[engine.ContractSet](b, bus)
	tap[engine.AwaitingLead](b, bus)
	tap[engine.DummyScanStarted](b, bus)
	tap[engine.AwaitingPlay](b, bus)
	tap[engine.CardPlayed](b, bus)
	tap[engine.TrickClosed](b, bus)
	tap[engine.HandClosed](b, bus)
	tap[engine.RuleViolation](b, bus)
	tap[engine.UndoAnnounced](b, bus)
	tap[engine.UndoApplied](b, bus)
	tap[engine.RedoAnnounced](b, bus)
	tap[engine.RedoApplied](b, bus)

	return b, nil
}

func tap[T any](b *Broker, bus eventbus.Bus) {
	name := eventbus.EventTypeOf[T]()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	eventbus.On(bus, func(_ context.Context, event T) error {
		payload, err := json.Marshal(Envelope{Type: name, Data: event})
		if err != nil {
			b.log.Printf("monitor: marshal %s: %v", name, err)
			return nil
		}
		b.broadcast(payload)
		return nil
	})
}

// Subscribe registers a new client channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a client channel. The channel is never closed:
// broadcast runs on the engine's goroutine, and a send racing a close
// would panic there. An unsubscribed channel simply stops receiving
// and is collected once the stream handler returns.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if ch == nil {
		return
	}
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
}

// broadcast sends under the mutex. Every client channel is buffered
// and drop-on-full, so the sends never block.
func (b *Broker) broadcast(payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}
