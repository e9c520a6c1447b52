package filemanager

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/kbukum/s3fm/authz"
	apperrors "github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/storage/memory"
)

var allOps = []memory.Op{
	memory.OpList, memory.OpHead, memory.OpGet, memory.OpPut,
	memory.OpCopy, memory.OpDelete, memory.OpDeleteBatch, memory.OpPresign,
}

var (
	testUser = &authz.Context{UserID: "u1"}
	errBoom  = errors.New("boom")
)

type testManager = Manager[any, any]

func newManager(t *testing.T, cfg Config, opts ...Option) (*testManager, *memory.Store) {
	t.Helper()
	store := memory.New("media")
	if cfg.AuthorizationMode == "" {
		cfg.AuthorizationMode = string(authz.ModeAllowByDefault)
	}
	m, err := New[any, any](store, cfg, Hooks[any, any]{}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, store
}

func seed(store *memory.Store, keys ...string) {
	for _, k := range keys {
		store.Seed(k, []byte("data:"+k))
	}
}

func totalCalls(store *memory.Store) int {
	n := 0
	for _, op := range allOps {
		n += store.Calls(op)
	}
	return n
}

func entryPaths[F, D any](entries []Entry[F, D]) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path()
	}
	return out
}

func wantCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New[any, any](nil, Config{}, Hooks[any, any]{}); err == nil {
		t.Error("expected nil store to fail")
	}
	if _, err := New[any, any](memory.New("b"), Config{AuthorizationMode: "sometimes"}, Hooks[any, any]{}); err == nil {
		t.Error("expected bad mode to fail")
	}
	m, _ := newManager(t, Config{RootPrefix: "/tenants/acme"})
	if m.RootPrefix() != "tenants/acme/" || m.Delimiter() != "/" {
		t.Errorf("root=%q delim=%q", m.RootPrefix(), m.Delimiter())
	}
}

// Root holds a.txt and folder b/ with b/c.txt.
func TestScenario_ListSearchMove(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, Config{})
	seed(store, "a.txt", "b/", "b/c.txt")

	list, err := m.List(ctx, ListOptions{Path: ""}, testUser)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := entryPaths(list.Entries); !slices.Equal(got, []string{"b/", "a.txt"}) {
		t.Fatalf("list = %v", got)
	}
	if !list.Entries[0].IsFolder() || list.Entries[1].IsFolder() {
		t.Error("expected folder then file")
	}

	found, err := m.Search(ctx, SearchOptions{Query: "c"}, testUser)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := entryPaths(found.Entries); !slices.Equal(got, []string{"b/c.txt"}) {
		t.Fatalf("search = %v", got)
	}

	if err := m.Move(ctx, MoveOptions{FromPath: "b/", ToPath: "z/"}, testUser); err != nil {
		t.Fatalf("Move: %v", err)
	}
	list, err = m.List(ctx, ListOptions{}, testUser)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := entryPaths(list.Entries); !slices.Equal(got, []string{"z/", "a.txt"}) {
		t.Fatalf("list after move = %v", got)
	}
	if !slices.Contains(store.Keys(), "z/c.txt") {
		t.Errorf("expected z/c.txt, keys %v", store.Keys())
	}
}

func TestList_SortAndMarker(t *testing.T) {
	m, store := newManager(t, Config{RootPrefix: "root"})
	seed(store, "root/docs/", "root/docs/zeta.txt", "root/docs/Alpha.txt", "root/docs/beta/", "root/docs/beta/x", "root/docs/aaa/x", "other/skip")

	res, err := m.List(context.Background(), ListOptions{Path: "/docs/"}, testUser)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"docs/aaa/", "docs/beta/", "docs/Alpha.txt", "docs/zeta.txt"}
	if got := entryPaths(res.Entries); !slices.Equal(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
	if res.Path != "docs" {
		t.Errorf("path = %q", res.Path)
	}
	if res.Entries[0].Name() != "aaa" || res.Entries[2].Name() != "Alpha.txt" {
		t.Errorf("unexpected names %q %q", res.Entries[0].Name(), res.Entries[2].Name())
	}
	f := res.Entries[2].File
	if f.Size == nil || *f.Size != int64(len("data:root/docs/Alpha.txt")) || f.ETag == "" || f.LastModified == "" {
		t.Errorf("file metadata missing: %+v", f)
	}
}

func TestList_Pagination(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, Config{})
	seed(store, "a.txt", "b/x", "c.txt", "d/y", "e.txt")

	var all []string
	cursor := ""
	pages := 0
	for {
		res, err := m.List(ctx, ListOptions{Cursor: cursor, Limit: 2}, testUser)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		pages++
		all = append(all, entryPaths(res.Entries)...)
		if res.NextCursor == "" {
			break
		}
		cursor = res.NextCursor
	}
	if pages != 3 {
		t.Errorf("expected 3 pages, got %d", pages)
	}
	slices.Sort(all)
	if !slices.Equal(all, []string{"a.txt", "b/", "c.txt", "d/", "e.txt"}) {
		t.Errorf("collected %v", all)
	}
}

func TestList_HidesLocks(t *testing.T) {
	m, store := newManager(t, Config{LockFolderMoves: true})
	seed(store, "a.txt", DefaultLockPrefix+"b/.lock", DefaultLockPrefix+"x")

	res, err := m.List(context.Background(), ListOptions{}, testUser)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := entryPaths(res.Entries); !slices.Equal(got, []string{"a.txt"}) {
		t.Errorf("lock namespace leaked: %v", got)
	}
	found, err := m.Search(context.Background(), SearchOptions{Query: "lock"}, testUser)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found.Entries) != 0 {
		t.Errorf("lock objects found by search: %v", entryPaths(found.Entries))
	}
}

func TestList_Decoration(t *testing.T) {
	store := memory.New("media")
	seed(store, "r/a.txt", "r/b/x")
	type fileExtra struct{ Key string }
	hooks := Hooks[fileExtra, string]{
		DecorateFile: func(_ context.Context, f *FileEntry[fileExtra], args FileDecoration) error {
			f.Extra = fileExtra{Key: args.Key}
			return nil
		},
		DecorateFolder: func(_ context.Context, d *FolderEntry[string], args FolderDecoration) error {
			d.Extra = args.Prefix
			return nil
		},
	}
	m, err := New(store, Config{RootPrefix: "r", AuthorizationMode: "allow-by-default"}, hooks)
	if err != nil {
		t.Fatal(err)
	}
	res, err := m.List(context.Background(), ListOptions{}, testUser)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Entries[0].Folder.Extra != "r/b/" {
		t.Errorf("folder extra = %q", res.Entries[0].Folder.Extra)
	}
	if res.Entries[1].File.Extra.Key != "r/a.txt" {
		t.Errorf("file extra = %+v", res.Entries[1].File.Extra)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, Config{})
	seed(store, "docs/", "docs/Report-2024.pdf", "docs/notes.txt", "docs/old/report-2019.pdf", "other/report.txt")

	no := false
	res, err := m.Search(ctx, SearchOptions{Query: " REPORT ", Path: "/docs", Recursive: &no}, testUser)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := entryPaths(res.Entries); !slices.Equal(got, []string{"docs/Report-2024.pdf"}) {
		t.Errorf("non-recursive = %v", got)
	}
	if res.Query != " REPORT " {
		t.Errorf("query should be echoed verbatim, got %q", res.Query)
	}

	res, err = m.Search(ctx, SearchOptions{Query: "report", Path: "docs"}, testUser)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := entryPaths(res.Entries); !slices.Equal(got, []string{"docs/Report-2024.pdf", "docs/old/report-2019.pdf"}) {
		t.Errorf("recursive = %v", got)
	}
}

func TestSearch_BlankQuerySkipsEverything(t *testing.T) {
	m, store := newManager(t, Config{AuthorizationMode: string(authz.ModeDenyByDefault)})
	res, err := m.Search(context.Background(), SearchOptions{Query: "   "}, nil)
	if err != nil {
		t.Fatalf("blank query should not be authorized, got %v", err)
	}
	if res.Entries == nil || len(res.Entries) != 0 {
		t.Errorf("expected empty entries, got %v", res.Entries)
	}
	if totalCalls(store) != 0 {
		t.Error("blank query must not touch the store")
	}
}

func TestSearch_LimitAndCursor(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, Config{})
	for i := range 2500 {
		store.Seed(fmt.Sprintf("file-%04d.bin", i), nil)
	}

	res, err := m.Search(ctx, SearchOptions{Query: "f", Limit: 10}, testUser)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Entries) != 10 || res.NextCursor == "" {
		t.Fatalf("expected 10 entries and a cursor, got %d %q", len(res.Entries), res.NextCursor)
	}
	if store.Calls(memory.OpList) != 1 {
		t.Errorf("expected one page fetched, got %d", store.Calls(memory.OpList))
	}

	// The cursor resumes after the whole first page, past the unreturned matches.
	next, err := m.Search(ctx, SearchOptions{Query: "f", Limit: 10, Cursor: res.NextCursor}, testUser)
	if err != nil {
		t.Fatalf("Search with cursor: %v", err)
	}
	if got := entryPaths(next.Entries); len(got) != 10 || got[0] != "file-1000.bin" {
		t.Errorf("second call entries = %v", got)
	}

	res, err = m.Search(ctx, SearchOptions{Query: "f", Limit: 5000}, testUser)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Entries) != 2500 || res.NextCursor != "" {
		t.Errorf("expected full scan, got %d entries cursor %q", len(res.Entries), res.NextCursor)
	}
}

func TestInvalidPathNeverReachesStore(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t, Config{})
	bad := "a/../../etc"

	calls := map[string]func() error{
		"list":   func() error { _, err := m.List(ctx, ListOptions{Path: bad}, testUser); return err },
		"search": func() error { _, err := m.Search(ctx, SearchOptions{Query: "x", Path: bad}, testUser); return err },
		"create": func() error { return m.CreateFolder(ctx, CreateFolderOptions{Path: bad}, testUser) },
		"delete folder": func() error {
			return m.DeleteFolder(ctx, DeleteFolderOptions{Path: bad, Recursive: true}, testUser)
		},
		"delete files": func() error {
			return m.DeleteFiles(ctx, DeleteFilesOptions{Paths: []string{"ok.txt", bad}}, testUser)
		},
		"copy from": func() error { return m.Copy(ctx, CopyOptions{FromPath: bad, ToPath: "x"}, testUser) },
		"copy to":   func() error { return m.Copy(ctx, CopyOptions{FromPath: "x", ToPath: bad}, testUser) },
		"move":      func() error { return m.Move(ctx, MoveOptions{FromPath: "a/", ToPath: bad}, testUser) },
		"upload": func() error {
			_, err := m.PrepareUploads(ctx, PrepareUploadsOptions{Items: []UploadItem{{Path: bad}}}, testUser)
			return err
		},
		"preview": func() error { _, err := m.GetPreviewURL(ctx, PreviewOptions{Path: bad}, testUser); return err },
		"lock":    func() error { _, err := m.GetFolderLock(ctx, FolderLockOptions{Path: bad}, testUser); return err },
		"attrs get": func() error {
			_, err := m.GetFileAttributes(ctx, FileAttributesOptions{Path: bad}, testUser)
			return err
		},
		"attrs set": func() error {
			_, err := m.SetFileAttributes(ctx, SetFileAttributesOptions{Path: bad}, testUser)
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			wantCode(t, call(), apperrors.ErrCodeInvalidPath)
		})
	}
	if n := totalCalls(store); n != 0 {
		t.Errorf("expected no store calls, got %d", n)
	}
}

func TestAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("deny by default", func(t *testing.T) {
		m, store := newManager(t, Config{AuthorizationMode: string(authz.ModeDenyByDefault)})
		_, err := m.List(ctx, ListOptions{}, testUser)
		wantCode(t, err, apperrors.ErrCodeUnauthorized)
		if totalCalls(store) != 0 {
			t.Error("denied call reached the store")
		}
	})

	t.Run("role policy", func(t *testing.T) {
		allower := authz.NewRoleAllower(authz.NewMapChecker(map[string][]string{"viewer": {"list", "search"}}))
		m, store := newManager(t, Config{AuthorizationMode: string(authz.ModeDenyByDefault)}, WithActionAllower(allower))
		seed(store, "a.txt")
		viewer := &authz.Context{UserID: "v", Roles: []string{"viewer"}}
		if _, err := m.List(ctx, ListOptions{}, viewer); err != nil {
			t.Fatalf("viewer list: %v", err)
		}
		wantCode(t, m.DeleteFiles(ctx, DeleteFilesOptions{Paths: []string{"a.txt"}}, viewer), apperrors.ErrCodeForbidden)
		if !slices.Contains(store.Keys(), "a.txt") {
			t.Error("forbidden delete removed the file")
		}
	})

	t.Run("move needs copy and delete", func(t *testing.T) {
		tests := []struct {
			name    string
			granted []string
			from    string
			to      string
			wantErr bool
		}{
			{"move only", []string{"folder.move", "file.move"}, "src/", "dst/", true},
			{"folder without delete", []string{"folder.move", "folder.copy"}, "src/", "dst/", true},
			{"file without copy", []string{"file.move", "file.delete"}, "f.txt", "g.txt", true},
			{"folder granted", []string{"folder.move", "folder.copy", "folder.delete"}, "src/", "dst/", false},
			{"file granted", []string{"file.*"}, "f.txt", "g.txt", false},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				allower := authz.NewRoleAllower(authz.NewMapChecker(map[string][]string{"mover": tc.granted}))
				m, store := newManager(t, Config{AuthorizationMode: string(authz.ModeDenyByDefault)}, WithActionAllower(allower))
				seed(store, "src/", "src/a.txt", "f.txt")
				mover := &authz.Context{UserID: "m", Roles: []string{"mover"}}

				err := m.Move(ctx, MoveOptions{FromPath: tc.from, ToPath: tc.to}, mover)
				if !tc.wantErr {
					if err != nil {
						t.Fatalf("Move: %v", err)
					}
					return
				}
				wantCode(t, err, apperrors.ErrCodeForbidden)
				if got := store.Keys(); !slices.Equal(got, []string{"f.txt", "src/", "src/a.txt"}) {
					t.Errorf("refused move changed the bucket: %v", got)
				}
			})
		}
	})

	t.Run("hook sees request", func(t *testing.T) {
		var seen []authz.Request
		authorizer := authz.AuthorizerFunc(func(_ context.Context, r authz.Request) (bool, error) {
			seen = append(seen, r)
			return true, nil
		})
		m, store := newManager(t, Config{}, WithAuthorizer(authorizer))
		seed(store, "src/a")
		if err := m.Copy(ctx, CopyOptions{FromPath: "src/", ToPath: "dst"}, testUser); err != nil {
			t.Fatalf("Copy: %v", err)
		}
		if len(seen) != 1 {
			t.Fatalf("expected one gate check, got %d", len(seen))
		}
		r := seen[0]
		if r.Action != authz.ActionFolderCopy || r.FromPath != "src/" || r.ToPath != "dst/" || r.Context != testUser {
			t.Errorf("unexpected request %+v", r)
		}
	})
}

func TestCreateFolder(t *testing.T) {
	m, store := newManager(t, Config{RootPrefix: "r/"})
	if err := m.CreateFolder(context.Background(), CreateFolderOptions{Path: "new/sub"}, testUser); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if !slices.Equal(store.Keys(), []string{"r/new/sub/"}) {
		t.Errorf("keys = %v", store.Keys())
	}
	wantCode(t, m.CreateFolder(context.Background(), CreateFolderOptions{Path: "/"}, testUser), apperrors.ErrCodeInvalidBody)
}

func TestStoreFailureIsInternal(t *testing.T) {
	m, store := newManager(t, Config{})
	store.InjectError(memory.OpList, "", errBoom)
	_, err := m.List(context.Background(), ListOptions{}, testUser)
	wantCode(t, err, apperrors.ErrCodeInternal)
	if app, _ := apperrors.AsAppError(err); app.Message != errBoom.Error() {
		t.Errorf("message should carry the cause text, got %q", app.Message)
	}
}
