package testutil

import (
	"context"

	"github.com/kbukum/s3fm/component"
)

// TestComponent is a component.Component whose state tests can reset,
// capture and roll back between cases.
type TestComponent interface {
	component.Component

	// Reset restores the component to its initial state.
	Reset(ctx context.Context) error

	// Snapshot captures the current state. The result is opaque and only
	// meaningful to Restore on the same component.
	Snapshot(ctx context.Context) (interface{}, error)

	// Restore rolls the component back to a snapshot.
	Restore(ctx context.Context, snapshot interface{}) error
}
