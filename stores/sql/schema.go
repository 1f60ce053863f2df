package sql

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

var validSuffix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// tableNames returns the three table names for a logical store suffix:
// cs_streams_<name>, cs_events_<name>, cs_commands_<name>.
// Table identifiers cannot be bound as query parameters, so this is
// the one place a caller-supplied string is interpolated into SQL
// rather than passed as an argument; it is restricted to
// alphanumeric-and-underscore DDL-time use only, never a WHERE
// predicate.
func tableNames(suffix string) (streams, events, commands string, err error) {
	if !validSuffix.MatchString(suffix) {
		return "", "", "", fmt.Errorf("cosmo-sql: invalid store name %q: must match %s", suffix, validSuffix.String())
	}
	return "cs_streams_" + suffix, "cs_events_" + suffix, "cs_commands_" + suffix, nil
}

// createStreamsTable creates the streams table if it doesn't exist.
// last_updated_utc is set application-side at commit time rather than
// by a database trigger, so the schema stays portable across Postgres
// versions and hosting setups.
func createStreamsTable(ctx context.Context, pool *pgxpool.Pool, name string) error {
	ddl := fmt.Sprintf(`
		create table if not exists %s (
			id text primary key,
			last_version bigint not null,
			last_updated_utc timestamptz not null default current_timestamp
		)`, name)
	_, err := pool.Exec(ctx, ddl)
	return err
}

// createEventsTable creates the events table if it doesn't exist, with
// a foreign key to the streams table and a unique index enforcing that
// (stream_id, version) is unique across all persisted events.
func createEventsTable(ctx context.Context, pool *pgxpool.Pool, name, streamsName string) error {
	ddl := fmt.Sprintf(`
		create table if not exists %[1]s (
			id uuid primary key,
			correlation_id uuid,
			causation_id uuid,
			stream_id text not null references %[2]s(id) on delete cascade,
			version bigint not null,
			name varchar(255) not null,
			data jsonb not null,
			metadata jsonb,
			created_utc timestamptz not null default current_timestamp
		)`, name, streamsName)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return err
	}

	idx := fmt.Sprintf(`create unique index if not exists %s_stream_version_idx on %[1]s (stream_id, version)`, name)
	_, err := pool.Exec(ctx, idx)
	return err
}

// createCommandsTable creates the append-only command log table.
func createCommandsTable(ctx context.Context, pool *pgxpool.Pool, name string) error {
	ddl := fmt.Sprintf(`
		create table if not exists %s (
			id uuid primary key,
			correlation_id uuid not null,
			causation_id uuid not null,
			data jsonb not null,
			name varchar(255) not null,
			created_utc timestamptz not null default current_timestamp
		)`, name)
	_, err := pool.Exec(ctx, ddl)
	return err
}
