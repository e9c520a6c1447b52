// Package testutil adds test lifecycle helpers on top of component.Component.
//
// Components that implement TestComponent (such as the in-memory object
// store) can be started, reset and snapshotted from tests:
//
//	h := testutil.T(t)
//	h.Setup(store)
//	snap := h.Snapshot(store)
//	// mutate
//	h.Restore(store, snap)
package testutil
