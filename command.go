package cosmo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CommandWrite is a client-supplied command, not yet persisted. Unlike
// events, all three identifiers are required — commands always
// originate a causation chain.
type CommandWrite[P any] struct {
	ID            uuid.UUID
	CorrelationID uuid.UUID
	CausationID   uuid.UUID
	Name          string
	Data          P
}

// CommandRead is the persisted form of a command.
type CommandRead[P any] struct {
	CommandWrite[P]
	CreatedUTC time.Time
}

// CommandStore is an append-only audit log of commands, separate from
// the event log. There is no version guard: commands are never read
// back by this component, only appended.
type CommandStore[P any] interface {
	AppendCommand(ctx context.Context, command CommandWrite[P]) error
}
