package cosmo

import (
	"errors"
	"time"
)

// AppendPlan is the pure, backend-agnostic result of planning an
// append: the persisted form of the events to write, and the stream
// record they advance it to. Producing it touches no storage; a
// backend is responsible only for committing it atomically.
type AppendPlan[P any, M any, V Version] struct {
	Reads  []EventRead[P, M, V]
	Stream EventStream[V]
}

// PlanAppend derives the stream's current version from existing (nil
// if the stream has never been appended to), runs the version
// algebra, assigns consecutive versions to events in input order, and
// computes the updated stream record. Callers must have already
// rejected the empty-events case themselves: a no-op append must not
// even reach the registry.
//
// now is supplied by the caller rather than taken internally so every
// event in one append — and the stream's LastUpdatedUTC — share a
// single commit timestamp.
func PlanAppend[P any, M any, V Version](
	streamID string,
	existing *EventStream[V],
	guard ExpectedVersion[V],
	events []EventWrite[P, M],
	now time.Time,
) (AppendPlan[P, M, V], error) {
	var current V
	if existing != nil {
		current = existing.LastVersion
	}

	next, err := NextVersion(current, guard)
	if err != nil {
		fillStreamID(err, streamID)
		return AppendPlan[P, M, V]{}, err
	}

	reads := make([]EventRead[P, M, V], len(events))
	for i, w := range events {
		reads[i] = EventRead[P, M, V]{
			EventWrite: w,
			StreamID:   streamID,
			Version:    next + V(i),
			CreatedUTC: now,
		}
	}

	stream := EventStream[V]{ID: streamID, LastUpdatedUTC: now}
	if existing != nil {
		stream.LastVersion = current + V(len(events))
	} else {
		stream.LastVersion = V(len(events))
	}

	return AppendPlan[P, M, V]{Reads: reads, Stream: stream}, nil
}

// fillStreamID patches the StreamID field of the version-algebra
// errors NextVersion produces; NextVersion itself has no notion of a
// stream id, taking only the current version and the guard.
func fillStreamID(err error, streamID string) {
	var existsErr interface{ setStreamID(string) }
	if errors.As(err, &existsErr) {
		existsErr.setStreamID(streamID)
	}
}
