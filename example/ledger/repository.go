package main

import (
	"context"

	cosmo "github.com/halldorsson/cosmostore"
)

// AccountRepository loads and folds Account aggregates from an
// EventStore, for callers that just want the current state (e.g. to
// print a balance) rather than to execute a command against it.
type AccountRepository struct {
	store cosmo.EventStore[AccountEvent, cosmo.Metadata, cosmo.Int64Version]
}

// NewAccountRepository creates a repository backed by the given store.
func NewAccountRepository(store cosmo.EventStore[AccountEvent, cosmo.Metadata, cosmo.Int64Version]) *AccountRepository {
	return &AccountRepository{store: store}
}

// Load fetches and folds every event on an Account's stream into its
// current state.
func (r *AccountRepository) Load(ctx context.Context, id string) (AccountState, int64, error) {
	streamID := "Account:" + id

	events, err := r.store.GetEvents(ctx, streamID, cosmo.AllEvents[cosmo.Int64Version]())
	if err != nil {
		return AccountState{}, 0, err
	}

	agg := accountAggregate{}
	state := agg.Init()
	var version cosmo.Int64Version
	for _, e := range events {
		state = agg.Apply(state, e.Data)
		version = e.Version
	}
	return state, int64(version), nil
}
