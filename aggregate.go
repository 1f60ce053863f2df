package cosmo

import "context"

// Aggregate is a pure triple (init, apply, execute) defining state
// evolution and command handling for one kind of stream. Event is the
// same type as the store's Payload — an aggregate's domain events ARE
// the payloads persisted by the Event Store.
type Aggregate[State any, Command any, Event any] interface {
	// Init returns the zero state an aggregate starts from before any
	// history has been folded into it.
	Init() State

	// Apply evolves state by a single historical or newly raised event.
	Apply(state State, event Event) State

	// Execute interprets a command against the current state and
	// returns the events it produces, or an error if the command is
	// invalid given that state.
	Execute(state State, command Command) ([]Event, error)
}

// Handle is a persistent command handler: it reads the stream's
// history, folds it into state, executes the command against that
// state, and appends whatever events it produces.
//
// toWrite converts a domain event into the EventWrite the store expects;
// supplying it here (rather than requiring Event to implement an
// interface) keeps Aggregate implementations free of storage concerns.
func Handle[P any, M any, V Version, State any, Command any](
	ctx context.Context,
	aggregate Aggregate[State, Command, P],
	store EventStore[P, M, V],
	command Command,
	streamID string,
	r EventsReadRange[V],
	guard ExpectedVersion[V],
	toWrite func(P) EventWrite[P, M],
) ([]EventRead[P, M, V], error) {
	history, err := store.GetEvents(ctx, streamID, r)
	if err != nil {
		return nil, err
	}

	state := aggregate.Init()
	for _, e := range history {
		state = aggregate.Apply(state, e.Data)
	}

	newEvents, err := aggregate.Execute(state, command)
	if err != nil {
		return nil, err
	}
	if len(newEvents) == 0 {
		return nil, nil
	}

	writes := make([]EventWrite[P, M], len(newEvents))
	for i, e := range newEvents {
		writes[i] = toWrite(e)
	}

	return store.AppendEvents(ctx, streamID, guard, writes)
}
