package sql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	cosmo "github.com/halldorsson/cosmostore"
)

// CommandStore is a PostgreSQL-backed, append-only command log: table
// cs_commands_<name>, no version guard, never read back.
type CommandStore[P any] struct {
	pool  *pgxpool.Pool
	table string
	codec cosmo.PayloadCodec[P, struct{}]
}

// NewCommandStore creates (if necessary) the backing table for a
// logical command log named `name`.
func NewCommandStore[P any](ctx context.Context, pool *pgxpool.Pool, name string) (*CommandStore[P], error) {
	_, _, table, err := tableNames(name)
	if err != nil {
		return nil, err
	}
	if err := createCommandsTable(ctx, pool, table); err != nil {
		return nil, fmt.Errorf("cosmo-sql: create commands table: %w", err)
	}
	return &CommandStore[P]{pool: pool, table: table, codec: cosmo.JSONCodec[P, struct{}]{}}, nil
}

// AppendCommand implements cosmo.CommandStore.
func (s *CommandStore[P]) AppendCommand(ctx context.Context, cmd cosmo.CommandWrite[P]) error {
	data, err := s.codec.EncodeData(cmd.Data)
	if err != nil {
		return fmt.Errorf("cosmo-sql: encode command data: %w", err)
	}

	query, args, err := statementBuilder.
		Insert(s.table).
		Columns("id", "correlation_id", "causation_id", "data", "name").
		Values(cmd.ID, cmd.CorrelationID, cmd.CausationID, data, cmd.Name).
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("cosmo-sql: insert command: %w", err)
	}
	return nil
}

var _ cosmo.CommandStore[any] = (*CommandStore[any])(nil)
