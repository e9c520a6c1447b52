package filemanager

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/kbukum/s3fm/authz"
	apperrors "github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/storage/memory"
)

func TestDeleteFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("non-recursive empty", func(t *testing.T) {
		m, store := newManager(t, Config{})
		seed(store, "a/", "ab.txt")
		if err := m.DeleteFolder(ctx, DeleteFolderOptions{Path: "a"}, testUser); err != nil {
			t.Fatalf("DeleteFolder: %v", err)
		}
		if !slices.Equal(store.Keys(), []string{"ab.txt"}) {
			t.Errorf("keys = %v", store.Keys())
		}
	})

	t.Run("non-recursive not empty", func(t *testing.T) {
		m, store := newManager(t, Config{})
		seed(store, "a/", "a/x")
		err := m.DeleteFolder(ctx, DeleteFolderOptions{Path: "a/"}, testUser)
		wantCode(t, err, apperrors.ErrCodeFolderNotEmpty)
		if len(store.Keys()) != 2 {
			t.Errorf("keys = %v", store.Keys())
		}
	})

	t.Run("root refused", func(t *testing.T) {
		m, store := newManager(t, Config{})
		seed(store, "a")
		wantCode(t, m.DeleteFolder(ctx, DeleteFolderOptions{Path: "/", Recursive: true}, testUser), apperrors.ErrCodeInvalidBody)
		if len(store.Keys()) != 1 {
			t.Error("root delete removed data")
		}
	})

	t.Run("recursive in batches", func(t *testing.T) {
		store := &recordingStore{Store: memory.New("media")}
		for i := range 2500 {
			store.Seed(fmt.Sprintf("big/%05d", i), nil)
		}
		store.Seed("big/", nil)
		store.Seed("bigger/keep", nil)
		m, err := New[any, any](store, Config{AuthorizationMode: "allow-by-default"}, Hooks[any, any]{})
		if err != nil {
			t.Fatal(err)
		}
		if err := m.DeleteFolder(ctx, DeleteFolderOptions{Path: "big", Recursive: true}, testUser); err != nil {
			t.Fatalf("DeleteFolder: %v", err)
		}
		if !slices.Equal(store.batches, []int{1000, 1000, 501}) {
			t.Errorf("batches = %v", store.batches)
		}
		if !slices.Equal(store.Keys(), []string{"bigger/keep"}) {
			t.Errorf("keys = %v", store.Keys())
		}
	})
}

func TestDeleteFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("plain paths", func(t *testing.T) {
		m, store := newManager(t, Config{RootPrefix: "r"})
		seed(store, "r/a", "r/b/c", "r/keep")
		err := m.DeleteFiles(ctx, DeleteFilesOptions{Paths: []string{"a", "/b/c", "missing"}}, testUser)
		if err != nil {
			t.Fatalf("DeleteFiles: %v", err)
		}
		if !slices.Equal(store.Keys(), []string{"r/keep"}) {
			t.Errorf("keys = %v", store.Keys())
		}
	})

	t.Run("authorization before any delete", func(t *testing.T) {
		authorizer := authz.AuthorizerFunc(func(_ context.Context, r authz.Request) (bool, error) {
			return r.Path != "secret", nil
		})
		m, store := newManager(t, Config{}, WithAuthorizer(authorizer))
		seed(store, "a", "secret")
		err := m.DeleteFiles(ctx, DeleteFilesOptions{Paths: []string{"a", "secret"}}, testUser)
		wantCode(t, err, apperrors.ErrCodeUnauthorized)
		if len(store.Keys()) != 2 || store.Calls(memory.OpDeleteBatch)+store.Calls(memory.OpDelete) != 0 {
			t.Errorf("delete happened before refusal: %v", store.Keys())
		}
	})

	t.Run("empty path", func(t *testing.T) {
		m, _ := newManager(t, Config{})
		wantCode(t, m.DeleteFiles(ctx, DeleteFilesOptions{Paths: []string{"/"}}, testUser), apperrors.ErrCodeInvalidBody)
	})

	t.Run("conditional items", func(t *testing.T) {
		m, store := newManager(t, Config{})
		seed(store, "a", "b", "c")
		etagA := etagOf(t, store, "a")
		etagB := etagOf(t, store, "b")

		err := m.DeleteFiles(ctx, DeleteFilesOptions{Items: []DeleteItem{{Path: "a", IfMatch: `"nope"`}}}, testUser)
		wantCode(t, err, apperrors.ErrCodeConflict)

		err = m.DeleteFiles(ctx, DeleteFilesOptions{Items: []DeleteItem{{Path: "b", IfNoneMatch: etagB}}}, testUser)
		wantCode(t, err, apperrors.ErrCodeConflict)

		err = m.DeleteFiles(ctx, DeleteFilesOptions{Items: []DeleteItem{{Path: "gone", IfMatch: etagA}}}, testUser)
		wantCode(t, err, apperrors.ErrCodeConflict)

		err = m.DeleteFiles(ctx, DeleteFilesOptions{Items: []DeleteItem{
			{Path: "a", IfMatch: etagA},
			{Path: "b", IfNoneMatch: `"other"`},
			{Path: "gone", IfNoneMatch: "*"},
		}, Paths: []string{"c"}}, testUser)
		if err != nil {
			t.Fatalf("DeleteFiles: %v", err)
		}
		if len(store.Keys()) != 0 {
			t.Errorf("keys = %v", store.Keys())
		}
	})
}

func etagOf(t *testing.T, store *memory.Store, key string) string {
	t.Helper()
	info, err := store.Head(context.Background(), key)
	if err != nil {
		t.Fatalf("head %s: %v", key, err)
	}
	return info.ETag
}

func TestEtagMatches(t *testing.T) {
	tests := []struct {
		cond, etag string
		want       bool
	}{
		{"*", `"abc"`, true},
		{`"abc"`, `"abc"`, true},
		{"abc", `"abc"`, true},
		{`"abc"`, "abd", false},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.cond, tt.etag); got != tt.want {
			t.Errorf("etagMatches(%q, %q) = %v, want %v", tt.cond, tt.etag, got, tt.want)
		}
	}
}
