// Package sql provides a PostgreSQL-backed EventStore and CommandStore
// built on pgx and squirrel. Each logical store owns two tables named
// cs_streams_<name> and cs_events_<name>; its observable behavior must
// match the in-memory backend exactly, and is exercised by the shared
// compliance suite in internal/storetest.
package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cosmo "github.com/halldorsson/cosmostore"
)

var statementBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var eventColumns = []string{
	"id", "correlation_id", "causation_id", "stream_id", "version", "name", "data", "metadata", "created_utc",
}

// EventStore is a concrete cosmo.EventStore backed by PostgreSQL.
type EventStore[P any, M any, V cosmo.Version] struct {
	pool         *pgxpool.Pool
	streamsTable string
	eventsTable  string
	codec        cosmo.PayloadCodec[P, M]
}

// NewEventStore creates (if necessary) the backing tables for a
// logical store named `name` and returns an EventStore over them. If
// codec is nil, JSONCodec[P, M] is used.
func NewEventStore[P any, M any, V cosmo.Version](
	ctx context.Context,
	pool *pgxpool.Pool,
	name string,
	codec cosmo.PayloadCodec[P, M],
) (*EventStore[P, M, V], error) {
	streamsTable, eventsTable, _, err := tableNames(name)
	if err != nil {
		return nil, err
	}

	if err := createStreamsTable(ctx, pool, streamsTable); err != nil {
		return nil, fmt.Errorf("cosmo-sql: create streams table: %w", err)
	}
	if err := createEventsTable(ctx, pool, eventsTable, streamsTable); err != nil {
		return nil, fmt.Errorf("cosmo-sql: create events table: %w", err)
	}

	if codec == nil {
		codec = cosmo.JSONCodec[P, M]{}
	}

	return &EventStore[P, M, V]{
		pool:         pool,
		streamsTable: streamsTable,
		eventsTable:  eventsTable,
		codec:        codec,
	}, nil
}

// AppendEvents implements cosmo.EventStore.
func (s *EventStore[P, M, V]) AppendEvents(
	ctx context.Context,
	streamID string,
	guard cosmo.ExpectedVersion[V],
	events []cosmo.EventWrite[P, M],
) ([]cosmo.EventRead[P, M, V], error) {
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cosmo-sql: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := s.lockStream(ctx, tx, streamID)
	if err != nil {
		return nil, fmt.Errorf("cosmo-sql: lock stream: %w", err)
	}

	plan, err := cosmo.PlanAppend(streamID, existing, guard, events, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.upsertStream(ctx, tx, plan.Stream); err != nil {
		return nil, fmt.Errorf("cosmo-sql: upsert stream: %w", err)
	}

	if err := s.insertEvents(ctx, tx, plan.Reads); err != nil {
		if isUniqueViolation(err) {
			// A concurrent writer committed between our FOR UPDATE read
			// and this insert; the unique (stream_id, version) index
			// caught what the row lock didn't. The winner's actual
			// version isn't known without a re-read, so Expected is
			// reported as the version we tried to claim.
			return nil, &cosmo.VersionMismatchError[V]{StreamID: streamID, Expected: plan.Reads[0].Version}
		}
		return nil, fmt.Errorf("cosmo-sql: insert events: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("cosmo-sql: commit transaction: %w", err)
	}
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

// lockStream reads the stream's current row under FOR UPDATE, serializing
// concurrent appends to the same stream within the transaction on a
// backend that cannot otherwise guarantee multi-row atomicity across
// writers.
func (s *EventStore[P, M, V]) lockStream(ctx context.Context, tx pgx.Tx, streamID string) (*cosmo.EventStream[V], error) {
	query, args, err := statementBuilder.
		Select("last_version", "last_updated_utc").
		From(s.streamsTable).
		Where(squirrel.Eq{"id": streamID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, err
	}

	var lastVersion int64
	var lastUpdated time.Time
	if err := tx.QueryRow(ctx, query, args...).Scan(&lastVersion, &lastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cosmo.EventStream[V]{ID: streamID, LastVersion: V(lastVersion), LastUpdatedUTC: lastUpdated}, nil
}

func (s *EventStore[P, M, V]) upsertStream(ctx context.Context, tx pgx.Tx, stream cosmo.EventStream[V]) error {
	query, args, err := statementBuilder.
		Insert(s.streamsTable).
		Columns("id", "last_version", "last_updated_utc").
		Values(stream.ID, int64(stream.LastVersion), stream.LastUpdatedUTC).
		Suffix("ON CONFLICT (id) DO UPDATE SET last_version = EXCLUDED.last_version, last_updated_utc = EXCLUDED.last_updated_utc").
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}

func (s *EventStore[P, M, V]) insertEvents(ctx context.Context, tx pgx.Tx, reads []cosmo.EventRead[P, M, V]) error {
	b := statementBuilder.Insert(s.eventsTable).Columns(eventColumns...)

	for _, r := range reads {
		data, err := s.codec.EncodeData(r.Data)
		if err != nil {
			return fmt.Errorf("encode event data: %w", err)
		}
		meta, err := s.codec.EncodeMetadata(r.Metadata)
		if err != nil {
			return fmt.Errorf("encode event metadata: %w", err)
		}
		b = b.Values(
			r.ID,
			nullUUIDArg(r.CorrelationID),
			nullUUIDArg(r.CausationID),
			r.StreamID,
			int64(r.Version),
			r.Name,
			data,
			nullBytesArg(meta),
			r.CreatedUTC,
		)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}

func nullUUIDArg(id uuid.NullUUID) any {
	if !id.Valid {
		return nil
	}
	return id.UUID
}

func nullBytesArg(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *EventStore[P, M, V]) scanEvent(row rowScanner) (cosmo.EventRead[P, M, V], error) {
	var (
		id            uuid.UUID
		correlationID uuid.NullUUID
		causationID   uuid.NullUUID
		streamID      string
		version       int64
		name          string
		data          []byte
		metadata      []byte
		createdUTC    time.Time
	)
	if err := row.Scan(&id, &correlationID, &causationID, &streamID, &version, &name, &data, &metadata, &createdUTC); err != nil {
		return cosmo.EventRead[P, M, V]{}, err
	}

	decodedData, err := s.codec.DecodeData(data)
	if err != nil {
		return cosmo.EventRead[P, M, V]{}, err
	}
	decodedMeta, err := s.codec.DecodeMetadata(metadata)
	if err != nil {
		return cosmo.EventRead[P, M, V]{}, err
	}

	return cosmo.EventRead[P, M, V]{
		EventWrite: cosmo.EventWrite[P, M]{
			ID:            id,
			CorrelationID: correlationID,
			CausationID:   causationID,
			Name:          name,
			Data:          decodedData,
			Metadata:      decodedMeta,
		},
		StreamID:   streamID,
		Version:    V(version),
		CreatedUTC: createdUTC,
	}, nil
}

// GetEvent implements cosmo.EventStore.
func (s *EventStore[P, M, V]) GetEvent(ctx context.Context, streamID string, version V) (cosmo.EventRead[P, M, V], error) {
	query, args, err := statementBuilder.
		Select(eventColumns...).
		From(s.eventsTable).
		Where(squirrel.Eq{"stream_id": streamID, "version": int64(version)}).
		ToSql()
	if err != nil {
		return cosmo.EventRead[P, M, V]{}, err
	}

	read, err := s.scanEvent(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cosmo.EventRead[P, M, V]{}, &cosmo.EventNotFoundError[V]{StreamID: streamID, Version: version}
		}
		return cosmo.EventRead[P, M, V]{}, fmt.Errorf("cosmo-sql: get event: %w", err)
	}
	return read, nil
}

// GetEvents implements cosmo.EventStore, pushing the range's bounds
// into the WHERE clause rather than filtering in-process.
func (s *EventStore[P, M, V]) GetEvents(ctx context.Context, streamID string, r cosmo.EventsReadRange[V]) ([]cosmo.EventRead[P, M, V], error) {
	qb := statementBuilder.
		Select(eventColumns...).
		From(s.eventsTable).
		Where(squirrel.Eq{"stream_id": streamID}).
		OrderBy("version asc")

	if from, hasFrom, to, hasTo := r.Bounds(); hasFrom || hasTo {
		if hasFrom {
			qb = qb.Where(squirrel.GtOrEq{"version": int64(from)})
		}
		if hasTo {
			qb = qb.Where(squirrel.LtOrEq{"version": int64(to)})
		}
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cosmo-sql: get events: %w", err)
	}
	defer rows.Close()

	var out []cosmo.EventRead[P, M, V]
	for rows.Next() {
		ev, err := s.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *EventStore[P, M, V]) queryByID(ctx context.Context, column string, id uuid.UUID) ([]cosmo.EventRead[P, M, V], error) {
	query, args, err := statementBuilder.
		Select(eventColumns...).
		From(s.eventsTable).
		Where(squirrel.Eq{column: id}).
		OrderBy("stream_id", "version").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cosmo-sql: query by %s: %w", column, err)
	}
	defer rows.Close()

	var out []cosmo.EventRead[P, M, V]
	for rows.Next() {
		ev, err := s.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// GetEventsByCorrelationID implements cosmo.EventStore.
func (s *EventStore[P, M, V]) GetEventsByCorrelationID(ctx context.Context, id uuid.UUID) ([]cosmo.EventRead[P, M, V], error) {
	return s.queryByID(ctx, "correlation_id", id)
}

// GetEventsByCausationID implements cosmo.EventStore.
func (s *EventStore[P, M, V]) GetEventsByCausationID(ctx context.Context, id uuid.UUID) ([]cosmo.EventRead[P, M, V], error) {
	return s.queryByID(ctx, "causation_id", id)
}

// escapeLike escapes the characters LIKE treats specially so a
// substring filter matches literally instead of as a pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// GetStreams implements cosmo.EventStore.
func (s *EventStore[P, M, V]) GetStreams(ctx context.Context, filter cosmo.StreamsReadFilter) ([]cosmo.EventStream[V], error) {
	qb := statementBuilder.
		Select("id", "last_version", "last_updated_utc").
		From(s.streamsTable)

	if pattern, ok := filter.LikePattern(escapeLike); ok {
		qb = qb.Where("id LIKE ? ESCAPE '\\'", pattern)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cosmo-sql: get streams: %w", err)
	}
	defer rows.Close()

	var out []cosmo.EventStream[V]
	for rows.Next() {
		var id string
		var lastVersion int64
		var lastUpdated time.Time
		if err := rows.Scan(&id, &lastVersion, &lastUpdated); err != nil {
			return nil, err
		}
		out = append(out, cosmo.EventStream[V]{ID: id, LastVersion: V(lastVersion), LastUpdatedUTC: lastUpdated})
	}
	return out, rows.Err()
}

// GetStream implements cosmo.EventStore.
func (s *EventStore[P, M, V]) GetStream(ctx context.Context, streamID string) (cosmo.EventStream[V], error) {
	query, args, err := statementBuilder.
		Select("id", "last_version", "last_updated_utc").
		From(s.streamsTable).
		Where(squirrel.Eq{"id": streamID}).
		ToSql()
	if err != nil {
		return cosmo.EventStream[V]{}, err
	}

	var id string
	var lastVersion int64
	var lastUpdated time.Time
	err = s.pool.QueryRow(ctx, query, args...).Scan(&id, &lastVersion, &lastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cosmo.EventStream[V]{}, &cosmo.StreamNotFoundError{StreamID: streamID}
		}
		return cosmo.EventStream[V]{}, fmt.Errorf("cosmo-sql: get stream: %w", err)
	}
	return cosmo.EventStream[V]{ID: id, LastVersion: V(lastVersion), LastUpdatedUTC: lastUpdated}, nil
}

var _ cosmo.EventStore[any, any, cosmo.Int64Version] = (*EventStore[any, any, cosmo.Int64Version])(nil)
