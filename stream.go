package cosmo

import "time"

// EventStream is the per-stream metadata the registry (C3) maintains:
// LastVersion equals the highest version among the stream's events
// (0 iff no events exist yet), and LastUpdatedUTC reflects the commit
// time of the most recent append. A stream record is created by the
// first successful append to its id and mutated by every non-empty
// append thereafter; the core never deletes one.
type EventStream[V Version] struct {
	ID             string
	LastVersion    V
	LastUpdatedUTC time.Time
}
