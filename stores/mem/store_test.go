package mem_test

import (
	"testing"

	cosmo "github.com/halldorsson/cosmostore"
	"github.com/halldorsson/cosmostore/internal/storetest"
	"github.com/halldorsson/cosmostore/stores/mem"
)

func TestEventStoreInt64Version(t *testing.T) {
	storetest.Run(t, func(t *testing.T) cosmo.EventStore[storetest.TestEvent, storetest.TestMeta, cosmo.Int64Version] {
		return mem.New[storetest.TestEvent, storetest.TestMeta, cosmo.Int64Version]()
	})
}

func TestEventStoreUint32Version(t *testing.T) {
	storetest.Run(t, func(t *testing.T) cosmo.EventStore[storetest.TestEvent, storetest.TestMeta, cosmo.Uint32Version] {
		return mem.New[storetest.TestEvent, storetest.TestMeta, cosmo.Uint32Version]()
	})
}

func TestCommandStoreAppend(t *testing.T) {
	ctx := t.Context()
	store := mem.NewCommandStore[storetest.TestEvent]()

	cmds := []cosmo.CommandWrite[storetest.TestEvent]{
		{Name: "Open", Data: storetest.TestEvent{Opened: &storetest.Opened{ID: "a"}}},
		{Name: "Add", Data: storetest.TestEvent{Added: &storetest.Added{N: 1}}},
	}
	for _, c := range cmds {
		if err := store.AppendCommand(ctx, c); err != nil {
			t.Fatalf("append command failed: %v", err)
		}
	}
}
