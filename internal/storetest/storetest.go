// Package storetest is a compliance suite run against every EventStore
// backend: every operation must behave identically regardless of
// which one is under test. It is parameterized by version type so
// both Uint32Version and Int64Version backends can be exercised.
package storetest

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	cosmo "github.com/halldorsson/cosmostore"
)

// TestEvent is a small tagged-union payload: exactly one field is set
// per event. It avoids coupling the suite to any domain's event types
// while still exercising a realistic heterogeneous-event payload.
type TestEvent struct {
	Opened *Opened
	Added  *Added
}

type Opened struct{ ID string }
type Added struct{ N int }

// TestMeta is a minimal Meta payload.
type TestMeta struct {
	Note string
}

// Factory returns the EventStore one subtest runs against. Subtests use
// distinct stream ids, so a factory may hand every subtest a store over
// the same backing storage, as long as those stream ids are unused when
// the suite starts.
type Factory[V cosmo.Version] func(t *testing.T) cosmo.EventStore[TestEvent, TestMeta, V]

func opened(id string) cosmo.EventWrite[TestEvent, TestMeta] {
	return cosmo.EventWrite[TestEvent, TestMeta]{
		ID:   uuid.New(),
		Name: "Opened",
		Data: TestEvent{Opened: &Opened{ID: id}},
	}
}

func added(n int) cosmo.EventWrite[TestEvent, TestMeta] {
	return cosmo.EventWrite[TestEvent, TestMeta]{
		ID:   uuid.New(),
		Name: "Added",
		Data: TestEvent{Added: &Added{N: n}},
	}
}

// Run executes the full compliance suite against newStore. Each
// top-level subtest runs in parallel and uses its own stream ids, so
// the store under test must be safe for concurrent callers.
func Run[V cosmo.Version](t *testing.T, newStore Factory[V]) {
	t.Run("first append assigns version 1", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)

		reads, err := s.AppendEvents(ctx, "TestStream_X", cosmo.Any[V](), []cosmo.EventWrite[TestEvent, TestMeta]{opened("1")})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if len(reads) != 1 || reads[0].Version != 1 {
			t.Fatalf("expected single event at version 1, got %+v", reads)
		}

		stream, err := s.GetStream(ctx, "TestStream_X")
		if err != nil {
			t.Fatalf("get stream failed: %v", err)
		}
		if stream.LastVersion != 1 {
			t.Fatalf("expected last_version 1, got %v", stream.LastVersion)
		}
	})

	t.Run("hundred events in one append", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		streamID := "Stream:Hundred"

		writes := make([]cosmo.EventWrite[TestEvent, TestMeta], 100)
		for i := range writes {
			writes[i] = added(i)
		}

		reads, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), writes)
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if len(reads) != 100 {
			t.Fatalf("expected 100 reads, got %d", len(reads))
		}
		for i, r := range reads {
			if int64(r.Version) != int64(i)+1 {
				t.Fatalf("event %d has version %v, want %d", i, r.Version, i+1)
			}
		}

		stream, err := s.GetStream(ctx, streamID)
		if err != nil {
			t.Fatalf("get stream failed: %v", err)
		}
		if int64(stream.LastVersion) != 100 {
			t.Fatalf("expected last_version 100, got %v", stream.LastVersion)
		}
	})

	t.Run("single event read by version", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		streamID := "Stream:SingleRead"

		writes := make([]cosmo.EventWrite[TestEvent, TestMeta], 10)
		for i := range writes {
			writes[i] = opened(streamID)
			writes[i].Name = "Created"
		}
		if _, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), writes); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		ev, err := s.GetEvent(ctx, streamID, V(3))
		if err != nil {
			t.Fatalf("get event failed: %v", err)
		}
		if ev.Version != 3 {
			t.Fatalf("expected version 3, got %v", ev.Version)
		}
	})

	t.Run("range reads", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		streamID := "Stream:Range"

		writes := make([]cosmo.EventWrite[TestEvent, TestMeta], 10)
		for i := range writes {
			writes[i] = added(i + 1)
		}
		if _, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), writes); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		from6, err := s.GetEvents(ctx, streamID, cosmo.FromVersion[V](6))
		if err != nil {
			t.Fatalf("get events (from) failed: %v", err)
		}
		if len(from6) != 5 {
			t.Fatalf("FromVersion(6): expected 5 events, got %d", len(from6))
		}

		to5, err := s.GetEvents(ctx, streamID, cosmo.ToVersion[V](5))
		if err != nil {
			t.Fatalf("get events (to) failed: %v", err)
		}
		if len(to5) != 5 {
			t.Fatalf("ToVersion(5): expected 5 events, got %d", len(to5))
		}

		between, err := s.GetEvents(ctx, streamID, cosmo.VersionRange[V](5, 7))
		if err != nil {
			t.Fatalf("get events (range) failed: %v", err)
		}
		if len(between) != 3 {
			t.Fatalf("VersionRange(5,7): expected 3 events, got %d", len(between))
		}

		empty, err := s.GetEvents(ctx, streamID, cosmo.VersionRange[V](7, 5))
		if err != nil {
			t.Fatalf("get events (empty range) failed: %v", err)
		}
		if len(empty) != 0 {
			t.Fatalf("VersionRange(7,5): expected empty result, got %d", len(empty))
		}

		all, err := s.GetEvents(ctx, streamID, cosmo.AllEvents[V]())
		if err != nil {
			t.Fatalf("get events (all) failed: %v", err)
		}
		if len(all) != 10 {
			t.Fatalf("AllEvents: expected 10 events, got %d", len(all))
		}
		for i := 1; i < len(all); i++ {
			if !(all[i-1].Version < all[i].Version) {
				t.Fatalf("AllEvents not strictly increasing at index %d", i)
			}
		}
	})

	t.Run("version conflict on Exact guard", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		streamID := "Stream:Conflict"

		if _, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), []cosmo.EventWrite[TestEvent, TestMeta]{opened("x")}); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		_, err := s.AppendEvent(ctx, streamID, cosmo.Exact[V](1), added(1))
		if !errors.Is(err, cosmo.ErrVersionMismatch) {
			t.Fatalf("expected ErrVersionMismatch, got %v", err)
		}
	})

	t.Run("NoStream conflict", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		streamID := "Stream:NoStreamConflict"

		if _, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), []cosmo.EventWrite[TestEvent, TestMeta]{opened("x")}); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		_, err := s.AppendEvent(ctx, streamID, cosmo.NoStream[V](), added(1))
		if !errors.Is(err, cosmo.ErrStreamExists) {
			t.Fatalf("expected ErrStreamExists, got %v", err)
		}
	})

	t.Run("correlation id query across streams", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)

		corrID := uuid.New()
		streams := []string{"CORR_1", "CORR_2", "CORR_3"}
		for _, streamID := range streams {
			writes := make([]cosmo.EventWrite[TestEvent, TestMeta], 10)
			for i := range writes {
				w := added(i)
				w.CorrelationID = uuid.NullUUID{UUID: corrID, Valid: true}
				writes[i] = w
			}
			if _, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), writes); err != nil {
				t.Fatalf("append to %s failed: %v", streamID, err)
			}
		}

		found, err := s.GetEventsByCorrelationID(ctx, corrID)
		if err != nil {
			t.Fatalf("get by correlation id failed: %v", err)
		}
		if len(found) != 30 {
			t.Fatalf("expected 30 events, got %d", len(found))
		}

		seen := map[string]bool{}
		for _, e := range found {
			seen[e.StreamID] = true
		}
		for _, streamID := range streams {
			if !seen[streamID] {
				t.Fatalf("expected stream %s among correlation results", streamID)
			}
		}
	})

	t.Run("causation id query", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		streamID := "Stream:Causation"

		causeID := uuid.New()
		w := opened("caused")
		w.CausationID = uuid.NullUUID{UUID: causeID, Valid: true}
		if _, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), []cosmo.EventWrite[TestEvent, TestMeta]{w}); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		found, err := s.GetEventsByCausationID(ctx, causeID)
		if err != nil {
			t.Fatalf("get by causation id failed: %v", err)
		}
		if len(found) != 1 {
			t.Fatalf("expected 1 event, got %d", len(found))
		}
	})

	t.Run("no-op append leaves stream unchanged", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		streamID := "Stream:NoOp"

		if _, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), []cosmo.EventWrite[TestEvent, TestMeta]{opened("1")}); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		before, err := s.GetStream(ctx, streamID)
		if err != nil {
			t.Fatalf("get stream failed: %v", err)
		}

		reads, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), nil)
		if err != nil {
			t.Fatalf("no-op append failed: %v", err)
		}
		if len(reads) != 0 {
			t.Fatalf("expected no reads from a no-op append, got %d", len(reads))
		}

		after, err := s.GetStream(ctx, streamID)
		if err != nil {
			t.Fatalf("get stream failed: %v", err)
		}
		if before != after {
			t.Fatalf("no-op append changed stream metadata: before=%+v after=%+v", before, after)
		}
	})

	t.Run("stream not found", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)

		_, err := s.GetStream(ctx, "Stream:DoesNotExist")
		if !errors.Is(err, cosmo.ErrStreamNotFound) {
			t.Fatalf("expected ErrStreamNotFound, got %v", err)
		}
	})

	t.Run("event not found", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		streamID := "Stream:EventGap"

		if _, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), []cosmo.EventWrite[TestEvent, TestMeta]{opened("1")}); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		_, err := s.GetEvent(ctx, streamID, V(5))
		if !errors.Is(err, cosmo.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("stream filter", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)

		for _, id := range []string{"Filter:Alpha", "Filter:Beta", "Other:Gamma"} {
			if _, err := s.AppendEvents(ctx, id, cosmo.Any[V](), []cosmo.EventWrite[TestEvent, TestMeta]{opened(id)}); err != nil {
				t.Fatalf("append to %s failed: %v", id, err)
			}
		}

		matches, err := s.GetStreams(ctx, cosmo.StartsWith("Filter:"))
		if err != nil {
			t.Fatalf("get streams failed: %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("expected 2 streams starting with Filter:, got %d", len(matches))
		}
	})

	t.Run("thousand events via ten batches", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()
		s := newStore(t)
		streamID := "Stream:Thousand"

		for batch := 0; batch < 10; batch++ {
			writes := make([]cosmo.EventWrite[TestEvent, TestMeta], 100)
			for i := range writes {
				writes[i] = added(batch*100 + i)
			}
			if _, err := s.AppendEvents(ctx, streamID, cosmo.Any[V](), writes); err != nil {
				t.Fatalf("batch %d append failed: %v", batch, err)
			}
		}

		stream, err := s.GetStream(ctx, streamID)
		if err != nil {
			t.Fatalf("get stream failed: %v", err)
		}
		if int64(stream.LastVersion) != 1000 {
			t.Fatalf("expected last_version 1000, got %v", stream.LastVersion)
		}

		all, err := s.GetEvents(ctx, streamID, cosmo.AllEvents[V]())
		if err != nil {
			t.Fatalf("get events failed: %v", err)
		}
		if len(all) != 1000 {
			t.Fatalf("expected 1000 events, got %d", len(all))
		}
	})
}
