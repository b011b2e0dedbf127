package eventbus

import (
	"context"
	"testing"
)

type pingEvent struct{ N int }

type otherEvent struct{}

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	bus := NewInMemoryBus()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		On(bus, func(_ context.Context, _ pingEvent) error {
			order = append(order, i)
			return nil
		})
	}
	if err := bus.Publish(context.Background(), pingEvent{N: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("delivery order: got %v", order)
	}
}

func TestSubscribersOnlySeeTheirType(t *testing.T) {
	bus := NewInMemoryBus()
	pings, others := 0, 0
	On(bus, func(_ context.Context, _ pingEvent) error { pings++; return nil })
	On(bus, func(_ context.Context, _ otherEvent) error { others++; return nil })

	if err := bus.Publish(context.Background(), pingEvent{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if pings != 1 || others != 0 {
		t.Fatalf("delivery: pings=%d others=%d", pings, others)
	}
}

func TestReentrantPublish(t *testing.T) {
	bus := NewInMemoryBus()
	seen := 0
	On(bus, func(ctx context.Context, e pingEvent) error {
		if e.N == 0 {
			return bus.Publish(ctx, pingEvent{N: 1})
		}
		seen++
		return nil
	})
	if err := bus.Publish(context.Background(), pingEvent{N: 0}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if seen != 1 {
		t.Fatalf("re-entrant publish: seen=%d", seen)
	}
}

func TestPublishNil(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); err != ErrNilEvent {
		t.Fatalf("got %v want ErrNilEvent", err)
	}
}
