package sql_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	cosmo "github.com/halldorsson/cosmostore"
	"github.com/halldorsson/cosmostore/internal/storetest"
	cosmosql "github.com/halldorsson/cosmostore/stores/sql"
)

// requirePool skips the test when DATABASE_URL is unset; when it is set,
// a failed connect or ping fails the test. These tests exercise real SQL
// and are not run as part of a plain `go test` with no database configured.
func requirePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping SQL store tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping database: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestEventStoreCompliance(t *testing.T) {
	pool := requirePool(t)

	storetest.Run(t, func(t *testing.T) cosmo.EventStore[storetest.TestEvent, storetest.TestMeta, cosmo.Int64Version] {
		store, err := cosmosql.NewEventStore[storetest.TestEvent, storetest.TestMeta, cosmo.Int64Version](
			t.Context(), pool, "compliance", nil,
		)
		if err != nil {
			t.Fatalf("new event store: %v", err)
		}
		return store
	})
}

func TestCommandStoreAppend(t *testing.T) {
	pool := requirePool(t)
	ctx := t.Context()

	store, err := cosmosql.NewCommandStore[storetest.TestEvent](ctx, pool, "compliance_commands")
	if err != nil {
		t.Fatalf("new command store: %v", err)
	}

	cmd := cosmo.CommandWrite[storetest.TestEvent]{
		Name: "Add",
		Data: storetest.TestEvent{Added: &storetest.Added{N: 1}},
	}
	if err := store.AppendCommand(ctx, cmd); err != nil {
		t.Fatalf("append command failed: %v", err)
	}
}
