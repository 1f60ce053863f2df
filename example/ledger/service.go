package main

import (
	"context"

	"github.com/google/uuid"

	cosmo "github.com/halldorsson/cosmostore"
)

// AccountService orchestrates command handling against the ledger's
// event store: load history, run domain logic, append the result.
type AccountService struct {
	store cosmo.EventStore[AccountEvent, cosmo.Metadata, cosmo.Int64Version]
	base  cosmo.Metadata
}

// NewAccountService wires a service to its backing store. base is
// merged into every event's metadata ahead of whatever the caller
// supplies to Handle, so service-wide fields (e.g. which service
// wrote the event) don't need to be repeated at every call site.
func NewAccountService(store cosmo.EventStore[AccountEvent, cosmo.Metadata, cosmo.Int64Version], base cosmo.Metadata) *AccountService {
	return &AccountService{store: store, base: base}
}

// Handle executes a command end-to-end through cosmo.Handle: read the
// stream, fold it into state, run domain logic, append what it
// produces.
func (s *AccountService) Handle(ctx context.Context, cmd any, md cosmo.Metadata) error {
	id := extractAccountID(cmd)
	streamID := "Account:" + id
	merged := s.base.Merge(md)

	toWrite := func(e AccountEvent) cosmo.EventWrite[AccountEvent, cosmo.Metadata] {
		return cosmo.EventWrite[AccountEvent, cosmo.Metadata]{
			ID:       uuid.New(),
			Name:     eventName(e),
			Data:     e,
			Metadata: &merged,
		}
	}

	_, err := cosmo.Handle[AccountEvent, cosmo.Metadata, cosmo.Int64Version](
		ctx,
		accountAggregate{},
		s.store,
		cmd,
		streamID,
		cosmo.AllEvents[cosmo.Int64Version](),
		cosmo.Any[cosmo.Int64Version](),
		toWrite,
	)
	return err
}

// extractAccountID is a tiny helper for this sample.
// In a real app, consider a command interface exposing AggregateID().
func extractAccountID(cmd any) string {
	switch c := cmd.(type) {
	case OpenAccountCommand:
		return c.AccountID
	case DepositCommand:
		return c.AccountID
	default:
		return ""
	}
}
