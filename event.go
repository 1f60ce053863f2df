package cosmo

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventWrite is a client-supplied event, not yet persisted.
type EventWrite[P any, M any] struct {
	ID            uuid.UUID
	CorrelationID uuid.NullUUID
	CausationID   uuid.NullUUID
	Name          string
	Data          P
	Metadata      *M
}

// EventRead is the persisted form of an event: everything in
// EventWrite, plus the stream it belongs to, the version it was
// assigned, and when it was committed.
type EventRead[P any, M any, V Version] struct {
	EventWrite[P, M]
	StreamID   string
	Version    V
	CreatedUTC time.Time
}

type rangeKind int

const (
	rangeAll rangeKind = iota
	rangeFrom
	rangeTo
	rangeBetween
)

// EventsReadRange selects a slice of a stream's events by version.
// Bounds are inclusive. Construct one with AllEvents, FromVersion,
// ToVersion, or VersionRange.
type EventsReadRange[V Version] struct {
	kind rangeKind
	from V
	to   V
}

// AllEvents selects every event in the stream.
func AllEvents[V Version]() EventsReadRange[V] {
	return EventsReadRange[V]{kind: rangeAll}
}

// FromVersion selects events with version >= v.
func FromVersion[V Version](v V) EventsReadRange[V] {
	return EventsReadRange[V]{kind: rangeFrom, from: v}
}

// ToVersion selects events with 0 < version <= v.
func ToVersion[V Version](v V) EventsReadRange[V] {
	return EventsReadRange[V]{kind: rangeTo, to: v}
}

// VersionRange selects events with from <= version <= to. A range
// where from > to matches nothing; it is not an error.
func VersionRange[V Version](from, to V) EventsReadRange[V] {
	return EventsReadRange[V]{kind: rangeBetween, from: from, to: to}
}

// Contains reports whether version v falls within the range. Backends
// that filter in-process (the in-memory store) use this directly; SQL
// backends translate the same cases into a WHERE clause so the two
// stay provably in sync: get_events(R) must equal
// filter(get_events(AllEvents), R) on every backend.
func (r EventsReadRange[V]) Contains(v V) bool {
	switch r.kind {
	case rangeAll:
		return true
	case rangeFrom:
		return v >= r.from
	case rangeTo:
		return v > 0 && v <= r.to
	case rangeBetween:
		return v >= r.from && v <= r.to
	default:
		return false
	}
}

// Bounds reports the range's lower and upper version bounds, for
// backends that push the predicate into a query rather than filtering
// in-process. hasFrom/hasTo indicate whether that bound applies; when
// both are false the range is AllEvents.
func (r EventsReadRange[V]) Bounds() (from V, hasFrom bool, to V, hasTo bool) {
	switch r.kind {
	case rangeFrom:
		return r.from, true, zero[V](), false
	case rangeTo:
		return zero[V](), false, r.to, true
	case rangeBetween:
		return r.from, true, r.to, true
	default:
		return zero[V](), false, zero[V](), false
	}
}

type filterKind int

const (
	filterAll filterKind = iota
	filterStartsWith
	filterEndsWith
	filterContains
)

// StreamsReadFilter selects streams by a substring match on their id.
// Construct one with AllStreams, StartsWith, EndsWith, or Contains.
type StreamsReadFilter struct {
	kind  filterKind
	value string
}

// AllStreams matches every stream.
func AllStreams() StreamsReadFilter {
	return StreamsReadFilter{kind: filterAll}
}

// StartsWith matches stream ids with the given prefix.
func StartsWith(prefix string) StreamsReadFilter {
	return StreamsReadFilter{kind: filterStartsWith, value: prefix}
}

// EndsWith matches stream ids with the given suffix.
func EndsWith(suffix string) StreamsReadFilter {
	return StreamsReadFilter{kind: filterEndsWith, value: suffix}
}

// Contains matches stream ids containing the given substring.
func Contains(substr string) StreamsReadFilter {
	return StreamsReadFilter{kind: filterContains, value: substr}
}

// LikePattern translates the filter into a SQL LIKE pattern using `%`
// as wildcard, running substr through escape first so the match stays
// literal. ok is false for AllStreams, meaning no predicate is needed
// at all.
func (f StreamsReadFilter) LikePattern(escape func(string) string) (pattern string, ok bool) {
	switch f.kind {
	case filterAll:
		return "", false
	case filterStartsWith:
		return escape(f.value) + "%", true
	case filterEndsWith:
		return "%" + escape(f.value), true
	case filterContains:
		return "%" + escape(f.value) + "%", true
	default:
		return "", false
	}
}

// Match reports whether streamID satisfies the filter. The in-memory
// backend uses this directly to scan its map; the SQL backend instead
// pushes an equivalent, parameterized LIKE predicate into the query
// (see stores/sql) but must agree with Match on every input.
func (f StreamsReadFilter) Match(streamID string) bool {
	switch f.kind {
	case filterAll:
		return true
	case filterStartsWith:
		return strings.HasPrefix(streamID, f.value)
	case filterEndsWith:
		return strings.HasSuffix(streamID, f.value)
	case filterContains:
		return strings.Contains(streamID, f.value)
	default:
		return false
	}
}
