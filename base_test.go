package cosmo

import "testing"

type counterEvent struct{ delta int }

func TestBaseRaiseAndFlush(t *testing.T) {
	var total int
	var b Base[counterEvent, Int64Version]
	b.Init("Counter:1", func(e counterEvent) { total += e.delta })

	if got := b.StreamID(); got != "Counter:1" {
		t.Fatalf("StreamID() = %q, want %q", got, "Counter:1")
	}

	b.Raise(counterEvent{delta: 1})
	b.Raise(counterEvent{delta: 2})

	if total != 3 {
		t.Fatalf("applier side effect total = %d, want 3", total)
	}
	if v := b.Version(); v != 2 {
		t.Fatalf("Version() = %v, want 2", v)
	}

	events, guard := b.Flush()
	if len(events) != 2 || events[0].delta != 1 || events[1].delta != 2 {
		t.Fatalf("Flush() events = %+v, want [{1} {2}]", events)
	}
	if want := Exact[Int64Version](1); guard != want {
		t.Fatalf("Flush() guard = %+v, want %+v", guard, want)
	}

	// A second Flush with nothing pending returns no events and asserts
	// Exact(3): the version after the 2 that Raise already advanced to.
	events, guard = b.Flush()
	if len(events) != 0 {
		t.Fatalf("second Flush() events = %+v, want none", events)
	}
	if want := Exact[Int64Version](3); guard != want {
		t.Fatalf("second Flush() guard = %+v, want %+v", guard, want)
	}
}

func TestBaseApplyDoesNotEnqueue(t *testing.T) {
	var applied []counterEvent
	var b Base[counterEvent, Uint32Version]
	b.SetApplier(func(e counterEvent) { applied = append(applied, e) })
	b.SetStreamID("Counter:2")

	b.Apply(counterEvent{delta: 5})
	b.Apply(counterEvent{delta: 7})

	if len(applied) != 2 {
		t.Fatalf("applier called %d times, want 2", len(applied))
	}
	events, _ := b.Flush()
	if len(events) != 0 {
		t.Fatalf("Apply must not enqueue; Flush() returned %+v", events)
	}
	if v := b.Version(); v != 2 {
		t.Fatalf("Version() = %v, want 2", v)
	}
}

func TestBaseSetVersion(t *testing.T) {
	var b Base[counterEvent, Int64Version]
	b.SetVersion(10)
	b.Raise(counterEvent{delta: 1})

	_, guard := b.Flush()
	if want := Exact[Int64Version](11); guard != want {
		t.Fatalf("Flush() guard after SetVersion = %+v, want %+v", guard, want)
	}
}
