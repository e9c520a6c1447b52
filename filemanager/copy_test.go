package filemanager

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"testing"
	"time"

	apperrors "github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/storage"
	"github.com/kbukum/s3fm/storage/memory"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestCopy_Folder(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, Config{})
	seed(store, "src/", "src/a.txt", "src/deep/b.txt", "srcx/other.txt")

	if err := m.Copy(ctx, CopyOptions{FromPath: "src/", ToPath: "dst"}, testUser); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	want := []string{"dst/", "dst/a.txt", "dst/deep/b.txt", "src/", "src/a.txt", "src/deep/b.txt", "srcx/other.txt"}
	if got := store.Keys(); !slices.Equal(got, want) {
		t.Fatalf("keys = %v", got)
	}

	// A second copy converges on the same tree.
	if err := m.Copy(ctx, CopyOptions{FromPath: "src/", ToPath: "dst/"}, testUser); err != nil {
		t.Fatalf("second Copy: %v", err)
	}
	if got := store.Keys(); !slices.Equal(got, want) {
		t.Errorf("keys after second copy = %v", got)
	}
}

func TestCopy_File(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, Config{RootPrefix: "r"})
	seed(store, "r/a.txt")

	if err := m.Copy(ctx, CopyOptions{FromPath: "a.txt", ToPath: "/docs/b.txt"}, testUser); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if !slices.Equal(store.Keys(), []string{"r/a.txt", "r/docs/b.txt"}) {
		t.Errorf("keys = %v", store.Keys())
	}

	err := m.Copy(ctx, CopyOptions{FromPath: "missing.txt", ToPath: "x.txt"}, testUser)
	wantCode(t, err, apperrors.ErrCodeNotFound)
}

func TestCopy_SamePathIsNoop(t *testing.T) {
	m, store := newManager(t, Config{})
	seed(store, "a/x")
	if err := m.Copy(context.Background(), CopyOptions{FromPath: "a/", ToPath: "/a"}, testUser); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if err := m.Move(context.Background(), MoveOptions{FromPath: "a/x", ToPath: "a//x"}, testUser); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if n := store.Calls(memory.OpCopy) + store.Calls(memory.OpDelete); n != 0 {
		t.Errorf("expected no copies or deletes, got %d", n)
	}
}

func TestCopy_Rejections(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, Config{})
	seed(store, "a/x")

	wantCode(t, m.Copy(ctx, CopyOptions{FromPath: "a/", ToPath: "a/b"}, testUser), apperrors.ErrCodeInvalidBody)
	wantCode(t, m.Move(ctx, MoveOptions{FromPath: "a/", ToPath: "a/b/"}, testUser), apperrors.ErrCodeInvalidBody)
	wantCode(t, m.Copy(ctx, CopyOptions{FromPath: "", ToPath: "b"}, testUser), apperrors.ErrCodeInvalidBody)
	wantCode(t, m.Copy(ctx, CopyOptions{FromPath: "a/x", ToPath: ""}, testUser), apperrors.ErrCodeInvalidBody)
	if store.Calls(memory.OpCopy) != 0 {
		t.Error("rejected copy reached the store")
	}
}

func TestCopy_SkipsVanishedChildren(t *testing.T) {
	m, store := newManager(t, Config{})
	seed(store, "src/a", "src/b", "src/c")
	store.InjectError(memory.OpCopy, "src/b", fmt.Errorf("gone: %w", storage.ErrNotFound))

	if err := m.Copy(context.Background(), CopyOptions{FromPath: "src/", ToPath: "dst/"}, testUser); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	keys := store.Keys()
	if !slices.Contains(keys, "dst/a") || !slices.Contains(keys, "dst/c") || slices.Contains(keys, "dst/b") {
		t.Errorf("keys = %v", keys)
	}
}

func TestMove_FailureKeepsSource(t *testing.T) {
	m, store := newManager(t, Config{LockFolderMoves: true})
	seed(store, "src/a", "src/b", "src/c")
	store.InjectError(memory.OpCopy, "src/b", errBoom)

	err := m.Move(context.Background(), MoveOptions{FromPath: "src/", ToPath: "dst/"}, testUser)
	wantCode(t, err, apperrors.ErrCodeInternal)

	keys := store.Keys()
	for _, k := range []string{"src/a", "src/b", "src/c"} {
		if !slices.Contains(keys, k) {
			t.Errorf("source %s lost after failed move", k)
		}
	}
	for _, k := range keys {
		if m.isLockKey(k) {
			t.Errorf("lock %s not released", k)
		}
	}
}

func TestMove_File(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, Config{})
	seed(store, "a.txt")

	err := m.Move(ctx, MoveOptions{FromPath: "a.txt", ToPath: "b.txt", IfMatch: `"stale"`}, testUser)
	wantCode(t, err, apperrors.ErrCodeConflict)
	if !slices.Equal(store.Keys(), []string{"a.txt"}) {
		t.Fatalf("keys after refused move = %v", store.Keys())
	}

	info, err := store.Head(ctx, "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Move(ctx, MoveOptions{FromPath: "a.txt", ToPath: "b.txt", IfMatch: info.ETag}, testUser); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !slices.Equal(store.Keys(), []string{"b.txt"}) {
		t.Errorf("keys = %v", store.Keys())
	}
}

func TestMove_FolderWithRootPrefix(t *testing.T) {
	m, store := newManager(t, Config{RootPrefix: "tenant"})
	seed(store, "tenant/old/", "tenant/old/a", "tenant/old/sub/b", "tenant/oldish")

	if err := m.Move(context.Background(), MoveOptions{FromPath: "old/", ToPath: "new"}, testUser); err != nil {
		t.Fatalf("Move: %v", err)
	}
	want := []string{"tenant/new/", "tenant/new/a", "tenant/new/sub/b", "tenant/oldish"}
	if got := store.Keys(); !slices.Equal(got, want) {
		t.Errorf("keys = %v", got)
	}
}

func seedLock(t *testing.T, store *memory.Store, key string, expires time.Time) {
	t.Helper()
	body, err := json.Marshal(FolderLock{
		Path:      "src/",
		Operation: lockOperationMove,
		FromPath:  "src/",
		ToPath:    "elsewhere/",
		StartedAt: formatTime(expires.Add(-time.Minute)),
		ExpiresAt: formatTime(expires),
		Owner:     "someone-else",
	})
	if err != nil {
		t.Fatal(err)
	}
	store.Seed(key, body)
}

func TestMove_Locks(t *testing.T) {
	ctx := context.Background()
	cfg := Config{LockFolderMoves: true, LockTTLSeconds: 60}
	srcLock := DefaultLockPrefix + "src/.lock"
	dstLock := DefaultLockPrefix + "dst/.lock"

	t.Run("held lock refuses", func(t *testing.T) {
		m, store := newManager(t, cfg, WithClock(fixedClock))
		seed(store, "src/a")
		seedLock(t, store, srcLock, fixedNow.Add(time.Minute))

		err := m.Move(ctx, MoveOptions{FromPath: "src/", ToPath: "dst/"}, testUser)
		wantCode(t, err, apperrors.ErrCodeConflict)
		app, _ := apperrors.AsAppError(err)
		if app.Details["path"] != "src/" || app.Details["expiresAt"] == nil {
			t.Errorf("details = %v", app.Details)
		}
		if store.Calls(memory.OpCopy) != 0 {
			t.Error("locked move copied data")
		}
	})

	t.Run("locked destination releases source", func(t *testing.T) {
		m, store := newManager(t, cfg, WithClock(fixedClock))
		seed(store, "src/a")
		seedLock(t, store, dstLock, fixedNow.Add(time.Minute))

		wantCode(t, m.Move(ctx, MoveOptions{FromPath: "src/", ToPath: "dst/"}, testUser), apperrors.ErrCodeConflict)
		if slices.Contains(store.Keys(), srcLock) {
			t.Error("source lock left behind")
		}
	})

	t.Run("expired lock replaced", func(t *testing.T) {
		m, store := newManager(t, cfg, WithClock(fixedClock))
		seed(store, "src/a")
		seedLock(t, store, srcLock, fixedNow.Add(-time.Second))

		if err := m.Move(ctx, MoveOptions{FromPath: "src/", ToPath: "dst/"}, testUser); err != nil {
			t.Fatalf("Move: %v", err)
		}
		if got := store.Keys(); !slices.Equal(got, []string{"dst/a"}) {
			t.Errorf("keys = %v", got)
		}
	})

	t.Run("unreadable lock replaced", func(t *testing.T) {
		m, store := newManager(t, cfg, WithClock(fixedClock))
		seed(store, "src/a")
		store.Seed(srcLock, []byte("{not json"))

		if err := m.Move(ctx, MoveOptions{FromPath: "src/", ToPath: "dst/"}, testUser); err != nil {
			t.Fatalf("Move: %v", err)
		}
	})

	t.Run("nested locks", func(t *testing.T) {
		tests := []struct {
			name     string
			lock     string
			expires  time.Duration
			from, to string
			refused  bool
		}{
			{"live lock below source", "a/b/", time.Minute, "a/", "z/", true},
			{"live lock above source", "a/", time.Minute, "a/b/", "z/", true},
			{"live lock below destination", "z/y/", time.Minute, "a/", "z/", true},
			{"expired lock below source", "a/b/", -time.Second, "a/", "z/", false},
			{"unrelated sibling", "ab/", time.Minute, "a/", "z/", false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				m, store := newManager(t, cfg, WithClock(fixedClock))
				seed(store, "a/b/x", "a/y")
				seedLock(t, store, DefaultLockPrefix+tt.lock+".lock", fixedNow.Add(tt.expires))
				before := store.Keys()

				err := m.Move(ctx, MoveOptions{FromPath: tt.from, ToPath: tt.to}, testUser)
				if !tt.refused {
					if err != nil {
						t.Fatalf("Move: %v", err)
					}
					return
				}
				wantCode(t, err, apperrors.ErrCodeConflict)
				if got := store.Keys(); !slices.Equal(got, before) {
					t.Errorf("keys = %v, want %v", got, before)
				}
				if store.Calls(memory.OpCopy) != 0 {
					t.Error("locked move copied data")
				}
			})
		}
	})

	t.Run("own source lock under destination", func(t *testing.T) {
		m, store := newManager(t, cfg, WithClock(fixedClock))
		seed(store, "a/b/x")

		if err := m.Move(ctx, MoveOptions{FromPath: "a/b/", ToPath: "a/"}, testUser); err != nil {
			t.Fatalf("Move: %v", err)
		}
		if got := store.Keys(); !slices.Equal(got, []string{"a/x"}) {
			t.Errorf("keys = %v", got)
		}
	})

	t.Run("held during copy and released after", func(t *testing.T) {
		store := &recordingStore{Store: memory.New("media")}
		seed(store.Store, "src/a")
		m, err := New[any, any](store, Config{LockFolderMoves: true, AuthorizationMode: "allow-by-default"}, Hooks[any, any]{},
			WithClock(fixedClock), WithOwnerIDs(func() string { return "owner-1" }))
		if err != nil {
			t.Fatal(err)
		}
		if err := m.Move(ctx, MoveOptions{FromPath: "src/", ToPath: "dst/"}, testUser); err != nil {
			t.Fatalf("Move: %v", err)
		}
		if !slices.Contains(store.keysAtCopy, srcLock) || !slices.Contains(store.keysAtCopy, dstLock) {
			t.Errorf("locks not held during copy: %v", store.keysAtCopy)
		}
		if got := store.Keys(); !slices.Equal(got, []string{"dst/a"}) {
			t.Errorf("keys after move = %v", got)
		}
	})
}

// recordingStore snapshots the key set at the last Copy call.
type recordingStore struct {
	*memory.Store
	keysAtCopy []string
	batches    []int
}

func (s *recordingStore) Copy(ctx context.Context, in storage.CopyInput) error {
	s.keysAtCopy = s.Keys()
	return s.Store.Copy(ctx, in)
}

func (s *recordingStore) DeleteBatch(ctx context.Context, keys []string) error {
	s.batches = append(s.batches, len(keys))
	return s.Store.DeleteBatch(ctx, keys)
}

func TestGetFolderLock(t *testing.T) {
	ctx := context.Background()
	key := DefaultLockPrefix + "src/.lock"

	m, store := newManager(t, Config{LockFolderMoves: true}, WithClock(fixedClock))
	lock, err := m.GetFolderLock(ctx, FolderLockOptions{Path: "src"}, testUser)
	if err != nil || lock != nil {
		t.Fatalf("unlocked folder: lock=%v err=%v", lock, err)
	}

	seedLock(t, store, key, fixedNow.Add(time.Minute))
	lock, err = m.GetFolderLock(ctx, FolderLockOptions{Path: "/src/"}, testUser)
	if err != nil {
		t.Fatalf("GetFolderLock: %v", err)
	}
	if lock == nil || lock.Owner != "someone-else" || lock.Operation != "folder.move" {
		t.Errorf("lock = %+v", lock)
	}

	seedLock(t, store, key, fixedNow.Add(-time.Minute))
	if lock, _ = m.GetFolderLock(ctx, FolderLockOptions{Path: "src"}, testUser); lock != nil {
		t.Errorf("expired lock reported: %+v", lock)
	}

	disabled, store2 := newManager(t, Config{}, WithClock(fixedClock))
	seedLock(t, store2, key, fixedNow.Add(time.Minute))
	if lock, _ = disabled.GetFolderLock(ctx, FolderLockOptions{Path: "src"}, testUser); lock != nil {
		t.Errorf("locking disabled but got %+v", lock)
	}
}
