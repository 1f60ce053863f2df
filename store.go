package cosmo

import (
	"context"

	"github.com/google/uuid"
)

// EventStore is the uniform contract every backend (in-memory, SQL)
// implements identically. All operations must be safe for concurrent
// callers; appends to the same stream serialize, appends to different
// streams commute.
type EventStore[P any, M any, V Version] interface {
	// AppendEvents commits N events to streamID under an optimistic
	// concurrency guard, in one atomic transaction. An empty events
	// slice is a no-op: it returns (nil, nil) without touching the
	// registry or the event log.
	//
	// On a guard violation it returns a *StreamExistsError[V] or
	// *VersionMismatchError[V]; test with errors.Is(err,
	// ErrStreamExists) / errors.Is(err, ErrVersionMismatch).
	AppendEvents(ctx context.Context, streamID string, guard ExpectedVersion[V], events []EventWrite[P, M]) ([]EventRead[P, M, V], error)

	// AppendEvent is AppendEvents with a single event, returning its
	// one resulting EventRead.
	AppendEvent(ctx context.Context, streamID string, guard ExpectedVersion[V], event EventWrite[P, M]) (EventRead[P, M, V], error)

	// GetEvent returns the unique event at streamID/version, or a
	// *EventNotFoundError[V] if absent.
	GetEvent(ctx context.Context, streamID string, version V) (EventRead[P, M, V], error)

	// GetEvents returns the events in streamID matching r, sorted
	// ascending by version.
	GetEvents(ctx context.Context, streamID string, r EventsReadRange[V]) ([]EventRead[P, M, V], error)

	// GetEventsByCorrelationID returns every event across every
	// stream sharing the given correlation id. Order is unspecified
	// but stable within one call.
	GetEventsByCorrelationID(ctx context.Context, id uuid.UUID) ([]EventRead[P, M, V], error)

	// GetEventsByCausationID returns every event across every stream
	// caused by the given id. Order is unspecified but stable within
	// one call.
	GetEventsByCausationID(ctx context.Context, id uuid.UUID) ([]EventRead[P, M, V], error)

	// GetStreams lists stream metadata matching filter.
	GetStreams(ctx context.Context, filter StreamsReadFilter) ([]EventStream[V], error)

	// GetStream returns metadata for streamID, or a
	// *StreamNotFoundError if it has never been appended to.
	GetStream(ctx context.Context, streamID string) (EventStream[V], error)
}
