package simulation

import (
	"errors"
	"sort"
	"testing"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
)

func messageWorld(t *testing.T) *World {
	t.Helper()
	cfg := testConfig()
	cfg.MaxMessagesPerStep = 2
	w := mustWorld(t, cfg)
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(w.Spawn("close", geometry.Vector3D{X: 10, Y: 10, Z: 10}, geometry.Vector3D{}))
	must(w.Spawn("mid", geometry.Vector3D{X: 40, Y: 10, Z: 10}, geometry.Vector3D{}))
	must(w.Spawn("distant", geometry.Vector3D{X: 500, Y: 500, Z: 500}, geometry.Vector3D{}))
	return w
}

func TestBus_RangeGatedDelivery(t *testing.T) {
	w := messageWorld(t)

	var delivered []string
	w.Bus().Subscribe("alarm", func(agentID string, msg Message) error {
		delivered = append(delivered, agentID)
		return nil
	})

	w.Bus().Broadcast(Message{
		Type:   "alarm",
		Origin: geometry.Vector3D{X: 10, Y: 10, Z: 10},
		Range:  50,
	})
	if err := w.Step(1); err != nil {
		t.Fatal(err)
	}

	sort.Strings(delivered)
	want := []string{"close", "mid"}
	if len(delivered) != 2 || delivered[0] != want[0] || delivered[1] != want[1] {
		t.Errorf("delivered to %v; want %v", delivered, want)
	}
}

func TestBus_PerStepCapKeepsExcessQueued(t *testing.T) {
	w := messageWorld(t) // cap is 2 per step

	count := 0
	w.Bus().Subscribe("ping", func(string, Message) error {
		count++
		return nil
	})

	// 5 broadcasts, each reaching only the "close" agent.
	for i := 0; i < 5; i++ {
		w.Bus().Broadcast(Message{Type: "ping", Origin: geometry.Vector3D{X: 10, Y: 10, Z: 10}, Range: 1})
	}

	if err := w.Step(1); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("deliveries after step 1 = %d; want 2 (cap)", count)
	}
	if w.Bus().Pending() != 3 {
		t.Errorf("pending after step 1 = %d; want 3 (not dropped)", w.Bus().Pending())
	}

	if err := w.Step(1); err != nil {
		t.Fatal(err)
	}
	if err := w.Step(1); err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Errorf("total deliveries = %d; want all 5 eventually", count)
	}
	if w.Bus().Pending() != 0 {
		t.Errorf("pending after drain = %d; want 0", w.Bus().Pending())
	}
}

func TestBus_ExpiredMessagesAreDiscarded(t *testing.T) {
	w := messageWorld(t)

	count := 0
	w.Bus().Subscribe("stale", func(string, Message) error {
		count++
		return nil
	})

	// Advance sim time past the expiry before the broadcast is processed.
	if err := w.Step(1); err != nil {
		t.Fatal(err)
	}
	if err := w.Step(1); err != nil {
		t.Fatal(err)
	}
	w.Bus().Broadcast(Message{
		Type:      "stale",
		Origin:    geometry.Vector3D{X: 10, Y: 10, Z: 10},
		Range:     100,
		ExpiresAt: 1, // expired at sim time 2
	})
	if err := w.Step(1); err != nil {
		t.Fatal(err)
	}

	if count != 0 {
		t.Errorf("expired message delivered %d times; want 0", count)
	}
	if w.Bus().Pending() != 0 {
		t.Errorf("expired message still pending; want discarded")
	}
}

func TestBus_HandlerFailureIsolation(t *testing.T) {
	w := messageWorld(t)

	var order []string
	w.Bus().Subscribe("mixed", func(string, Message) error {
		order = append(order, "first")
		return errors.New("boom")
	})
	w.Bus().Subscribe("mixed", func(string, Message) error {
		order = append(order, "second")
		panic("much worse")
	})
	w.Bus().Subscribe("mixed", func(string, Message) error {
		order = append(order, "third")
		return nil
	})

	w.Bus().Broadcast(Message{Type: "mixed", Origin: geometry.Vector3D{X: 10, Y: 10, Z: 10}, Range: 1})
	if err := w.Step(1); err != nil {
		t.Fatalf("Step error = %v; handler failures must not stall the step", err)
	}

	// One failing and one panicking handler must not block the third.
	if len(order) != 3 || order[2] != "third" {
		t.Errorf("handler invocations = %v; want all three in subscription order", order)
	}
}

func TestBus_NoHandlersIsHarmless(t *testing.T) {
	w := messageWorld(t)
	w.Bus().Broadcast(Message{Type: "nobody-listens", Origin: geometry.Vector3D{}, Range: 1000})
	if err := w.Step(1); err != nil {
		t.Fatalf("Step error = %v", err)
	}
	if w.Bus().Pending() != 0 {
		t.Errorf("unhandled message pending = %d; want processed and gone", w.Bus().Pending())
	}
}
