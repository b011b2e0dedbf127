// Package history keeps the session's record of played hands: a bus
// subscriber assembles one HandRecord per hand as events arrive, an
// optional repository persists completed hands, and the session log
// renders to XLSX or PDF for the club's paperwork.
package history

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"bridgetable/internal/bridge"
	"bridgetable/internal/engine"
	"bridgetable/internal/eventbus"
)

// TrickLine is one completed trick in a record.
type TrickLine struct {
	Number int
	Plays  []bridge.Play
	Winner bridge.Direction
}

// HandRecord is the durable summary of one hand.
type HandRecord struct {
	StartedAt  time.Time
	FinishedAt time.Time

	ContractKnown bool
	Trump         bridge.Suit
	Level         int
	Declarer      bridge.Direction

	Tricks      []TrickLine
	NorthSouth  int
	EastWest    int
	WinningTeam bridge.Direction
}

// HandRepository persists completed hands. The postgres implementation
// is optional at runtime; a nil repository keeps records in memory
// only.
type HandRepository interface {
	SaveHand(ctx context.Context, rec HandRecord) error
}

// Recorder assembles hand records from bus events. It only listens; it
// never calls back into the engine.
type Recorder struct {
	log  *log.Logger
	repo HandRepository
	now  func() time.Time

	mu      sync.Mutex
	current HandRecord
	session []HandRecord
}

// NewRecorder subscribes a recorder to the bus. repo may be nil.
func NewRecorder(bus eventbus.Bus, repo HandRepository, logger *log.Logger) (*Recorder, error) {
	if bus == nil {
		return nil, errors.New("history: nil bus")
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &Recorder{log: logger, repo: repo, now: time.Now}
	r.subscribe(bus)
	return r, nil
}

func (r *Recorder) subscribe(bus eventbus.Bus) {
	eventbus.On(bus, func(_ context.Context, _ engine.HandStarted) error {
		r.mu.Lock()
		r.current = HandRecord{StartedAt: r.now()}
		r.mu.Unlock()
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.ContractSet) error {
		r.mu.Lock()
		r.current.ContractKnown = true
		r.current.Trump = e.Trump
		r.current.Level = e.Tricks
		r.current.Declarer = e.Declarer
		r.mu.Unlock()
		return nil
	})
	eventbus.On(bus, func(_ context.Context, e engine.TrickClosed) error {
		r.mu.Lock()
		// An undone and replayed trick arrives with the same number;
		// truncating first keeps the ledger consistent either way.
		if e.TrickNumber >= 1 && e.TrickNumber <= len(r.current.Tricks)+1 {
			r.current.Tricks = r.current.Tricks[:e.TrickNumber-1]
		}
		r.current.Tricks = append(r.current.Tricks, TrickLine{
			Number: e.TrickNumber,
			Plays:  e.Plays,
			Winner: e.Winner,
		})
		r.current.NorthSouth = e.NorthSouth
		r.current.EastWest = e.EastWest
		r.mu.Unlock()
		return nil
	})
	eventbus.On(bus, func(ctx context.Context, e engine.HandClosed) error {
		r.mu.Lock()
		r.current.FinishedAt = r.now()
		r.current.WinningTeam = e.WinningTeam
		r.current.NorthSouth = e.NorthSouth
		r.current.EastWest = e.EastWest
		rec := r.current
		r.session = append(r.session, rec)
		r.mu.Unlock()

		if r.repo != nil {
			if err := r.repo.SaveHand(ctx, rec); err != nil {
				r.log.Printf("history: save hand: %v", err)
			}
		}
		return nil
	})
}

// Session returns a copy of the completed hands recorded so far.
func (r *Recorder) Session() []HandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]HandRecord, len(r.session))
	copy(out, r.session)
	return out
}
