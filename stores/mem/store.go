// Package mem provides an in-memory EventStore and CommandStore.
// Both are concurrency-safe and suitable for tests, prototypes, and
// local runs; state lives only in the process and is lost on restart.
package mem

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	cosmo "github.com/halldorsson/cosmostore"
)

// EventStore holds streams and events in two maps, guarded by a
// single mutex for the duration of each append so concurrent writers
// to different streams still serialize safely.
type EventStore[P any, M any, V cosmo.Version] struct {
	mu      sync.Mutex
	streams map[string]cosmo.EventStream[V]
	events  map[string][]cosmo.EventRead[P, M, V]
}

// New creates an empty in-memory EventStore.
func New[P any, M any, V cosmo.Version]() *EventStore[P, M, V] {
	return &EventStore[P, M, V]{
		streams: make(map[string]cosmo.EventStream[V]),
		events:  make(map[string][]cosmo.EventRead[P, M, V]),
	}
}

// AppendEvents implements cosmo.EventStore.
func (s *EventStore[P, M, V]) AppendEvents(
	_ context.Context,
	streamID string,
	guard cosmo.ExpectedVersion[V],
	events []cosmo.EventWrite[P, M],
) ([]cosmo.EventRead[P, M, V], error) {
	if len(events) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *cosmo.EventStream[V]
	if rec, ok := s.streams[streamID]; ok {
		existing = &rec
	}

	plan, err := cosmo.PlanAppend(streamID, existing, guard, events, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.streams[streamID] = plan.Stream
	s.events[streamID] = append(s.events[streamID], plan.Reads...)
	return plan.Reads, nil
}

// AppendEvent implements cosmo.EventStore.
func (s *EventStore[P, M, V]) AppendEvent(
	ctx context.Context,
	streamID string,
	guard cosmo.ExpectedVersion[V],
	event cosmo.EventWrite[P, M],
) (cosmo.EventRead[P, M, V], error) {
	reads, err := s.AppendEvents(ctx, streamID, guard, []cosmo.EventWrite[P, M]{event})
	if err != nil {
		return cosmo.EventRead[P, M, V]{}, err
	}
	return reads[0], nil
}

// GetEvent implements cosmo.EventStore.
func (s *EventStore[P, M, V]) GetEvent(
	_ context.Context,
	streamID string,
	version V,
) (cosmo.EventRead[P, M, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events[streamID] {
		if e.Version == version {
			return e, nil
		}
	}
	return cosmo.EventRead[P, M, V]{}, &cosmo.EventNotFoundError[V]{StreamID: streamID, Version: version}
}

// GetEvents implements cosmo.EventStore. Events are stored append-only
// in version order, so a single filtering pass keeps the result
// sorted ascending without an explicit sort.
func (s *EventStore[P, M, V]) GetEvents(
	_ context.Context,
	streamID string,
	r cosmo.EventsReadRange[V],
) ([]cosmo.EventRead[P, M, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.events[streamID]
	out := make([]cosmo.EventRead[P, M, V], 0, len(all))
	for _, e := range all {
		if r.Contains(e.Version) {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetEventsByCorrelationID implements cosmo.EventStore.
func (s *EventStore[P, M, V]) GetEventsByCorrelationID(
	_ context.Context,
	id uuid.UUID,
) ([]cosmo.EventRead[P, M, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []cosmo.EventRead[P, M, V]
	for _, seq := range s.events {
		for _, e := range seq {
			if e.CorrelationID.Valid && e.CorrelationID.UUID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// GetEventsByCausationID implements cosmo.EventStore.
func (s *EventStore[P, M, V]) GetEventsByCausationID(
	_ context.Context,
	id uuid.UUID,
) ([]cosmo.EventRead[P, M, V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []cosmo.EventRead[P, M, V]
	for _, seq := range s.events {
		for _, e := range seq {
			if e.CausationID.Valid && e.CausationID.UUID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// GetStreams implements cosmo.EventStore.
func (s *EventStore[P, M, V]) GetStreams(
	_ context.Context,
	filter cosmo.StreamsReadFilter,
) ([]cosmo.EventStream[V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []cosmo.EventStream[V]
	for id, rec := range s.streams {
		if filter.Match(id) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// GetStream implements cosmo.EventStore.
func (s *EventStore[P, M, V]) GetStream(
	_ context.Context,
	streamID string,
) (cosmo.EventStream[V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.streams[streamID]
	if !ok {
		return cosmo.EventStream[V]{}, &cosmo.StreamNotFoundError{StreamID: streamID}
	}
	return rec, nil
}

var (
	_ cosmo.EventStore[any, any, cosmo.Int64Version]  = (*EventStore[any, any, cosmo.Int64Version])(nil)
	_ cosmo.EventStore[any, any, cosmo.Uint32Version] = (*EventStore[any, any, cosmo.Uint32Version])(nil)
)

// CommandStore is an in-memory, append-only command log.
type CommandStore[P any] struct {
	mu       sync.Mutex
	commands []cosmo.CommandRead[P]
}

// NewCommandStore creates an empty in-memory CommandStore.
func NewCommandStore[P any]() *CommandStore[P] {
	return &CommandStore[P]{}
}

// AppendCommand implements cosmo.CommandStore.
func (s *CommandStore[P]) AppendCommand(_ context.Context, cmd cosmo.CommandWrite[P]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, cosmo.CommandRead[P]{
		CommandWrite: cmd,
		CreatedUTC:   time.Now().UTC(),
	})
	return nil
}

var _ cosmo.CommandStore[any] = (*CommandStore[any])(nil)
