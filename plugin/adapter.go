package plugin

/*

	The Adapter sits aside /ostinato/
	Contains core interfaces for Plugin

*/

import (
	"time"

	Ot "github.com/maroda/ostinato/types"
)

// ValueTransformer derives an alternative per-event color value
// from the event itself, for recoloring recurring events without
// changing the geometry. Implementations are pure: same event in,
// same value out.
type ValueTransformer interface {
	Transform(ev Ot.Event, period Ot.TimePeriod) (float64, error)
	Type() string // Unique ID for the transformer
}

// SnapshotAdapter can be used to define a place for recompute
// results to go, one-by-one or in batches if supported by the
// output type.
type SnapshotAdapter interface {
	WriteSnapshot(s *Ot.RenderSnapshot) error                       // Write singleton snapshot data
	WriteBatch(s []*Ot.RenderSnapshot) error                        // Write batches of snapshots
	QueryRange(start, end time.Time) ([]*Ot.RenderSnapshot, error)  // Time range query tool
	Flush() error                                                   // Flush any buffered data
	Close() error                                                   // Close the adapter and release resources
	Type() string                                                   // ID for output
}

// StateStore persists and restores the manual-mode view state a
// chart owner wants to survive restarts
type StateStore interface {
	SaveViewState(st *Ot.ViewState) error
	LoadViewState(chartID string) (*Ot.ViewState, error)
}
