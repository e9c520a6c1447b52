package testutil

import (
	"context"
	"testing"
)

// Helper drives TestComponent lifecycles from a test, failing it on any
// lifecycle error.
type Helper struct {
	tb  testing.TB
	ctx context.Context
}

// T returns a Helper bound to tb and the test's context.
//
//	store := memory.New("media")
//	testutil.T(t).Setup(store)
func T(tb testing.TB) *Helper {
	return &Helper{tb: tb, ctx: tb.Context()}
}

func (h *Helper) must(op string, c TestComponent, err error) {
	h.tb.Helper()
	if err != nil {
		h.tb.Fatalf("%s %s: %v", op, c.Name(), err)
	}
}

// Setup starts c and registers its Stop as test cleanup. Cleanup runs after
// the test context is cancelled, so Stop gets a fresh one.
func (h *Helper) Setup(c TestComponent) {
	h.tb.Helper()
	h.must("start", c, c.Start(h.ctx))
	h.tb.Cleanup(func() {
		if err := c.Stop(context.Background()); err != nil {
			h.tb.Errorf("stop %s: %v", c.Name(), err)
		}
	})
}

func (h *Helper) Reset(c TestComponent) {
	h.tb.Helper()
	h.must("reset", c, c.Reset(h.ctx))
}

func (h *Helper) Snapshot(c TestComponent) any {
	h.tb.Helper()
	snap, err := c.Snapshot(h.ctx)
	h.must("snapshot", c, err)
	return snap
}

func (h *Helper) Restore(c TestComponent, snap any) {
	h.tb.Helper()
	h.must("restore", c, c.Restore(h.ctx, snap))
}
