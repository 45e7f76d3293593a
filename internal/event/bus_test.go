package event

import (
	"testing"
)

func TestBusSubscribePublish(t *testing.T) {
	t.Run("delivers to matching subscribers", func(t *testing.T) {
		bus := NewBus()
		var got []string

		bus.Subscribe(TypeStage1Started, func(e Event) {
			got = append(got, e.EventType())
		})
		bus.Publish(NewStage1StartedEvent([]string{"m1"}))
		bus.Publish(NewStage2StartedEvent())

		if len(got) != 1 || got[0] != TypeStage1Started {
			t.Fatalf("expected one stage1_start delivery, got %v", got)
		}
	})

	t.Run("wildcard sees everything after specific handlers", func(t *testing.T) {
		bus := NewBus()
		var order []string

		bus.Subscribe(TypeCompleted, func(Event) { order = append(order, "specific") })
		bus.SubscribeAll(func(Event) { order = append(order, "wildcard") })
		bus.Publish(NewCompletedEvent())

		if len(order) != 2 || order[0] != "specific" || order[1] != "wildcard" {
			t.Fatalf("unexpected dispatch order: %v", order)
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := NewBus()
		calls := 0

		id := bus.SubscribeAll(func(Event) { calls++ })
		bus.Publish(NewCompletedEvent())
		if !bus.Unsubscribe(id) {
			t.Fatal("expected Unsubscribe to find the subscription")
		}
		bus.Publish(NewCompletedEvent())

		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})

	t.Run("panicking handler does not block others", func(t *testing.T) {
		bus := NewBus()
		delivered := false

		bus.SubscribeAll(func(Event) { panic("boom") })
		bus.SubscribeAll(func(Event) { delivered = true })
		bus.Publish(NewCompletedEvent())

		if !delivered {
			t.Fatal("second handler should still run after a panic")
		}
	})
}

func TestBusEmitImplementsSink(t *testing.T) {
	bus := NewBus()
	var sink Sink = bus

	count := 0
	bus.SubscribeAll(func(Event) { count++ })
	sink.Emit(NewCompletedEvent())

	if count != 1 {
		t.Fatalf("expected Emit to publish, got %d deliveries", count)
	}
}
