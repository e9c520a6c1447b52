package filemanager

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/kbukum/s3fm/authz"
	"github.com/kbukum/s3fm/storage"
)

// List returns one page of the direct children of opts.Path. Folders come
// from the store's common prefixes; the folder's own marker and anything in
// the lock namespace are left out.
func (m *Manager[F, D]) List(ctx context.Context, opts ListOptions, authCtx *authz.Context) (*ListResult[F, D], error) {
	var result *ListResult[F, D]
	err := m.run(ctx, "list", authCtx, func(ctx context.Context) error {
		p, err := normalizePath(opts.Path)
		if err != nil {
			return err
		}
		if err := m.authorize(ctx, authz.Request{Action: authz.ActionList, Path: p, Context: authCtx}); err != nil {
			return err
		}

		prefix := m.rootPrefix
		if p != "" {
			prefix = ensureTrailing(m.rootPrefix+p, m.delimiter)
		}
		page, err := m.store.ListPage(ctx, storage.ListInput{
			Prefix:    prefix,
			Delimiter: m.delimiter,
			Cursor:    opts.Cursor,
			MaxKeys:   opts.Limit,
		})
		if err != nil {
			return err
		}

		entries := make([]Entry[F, D], 0, len(page.CommonPrefixes)+len(page.Objects))
		for _, cp := range page.CommonPrefixes {
			if m.isLockKey(cp) {
				continue
			}
			folder, err := m.folderEntry(ctx, cp)
			if err != nil {
				return err
			}
			entries = append(entries, FolderOf[F](folder))
		}
		for _, obj := range page.Objects {
			if obj.Key == prefix || m.isLockKey(obj.Key) {
				continue
			}
			file, err := m.fileEntry(ctx, obj)
			if err != nil {
				return err
			}
			entries = append(entries, FileOf[F, D](file))
		}
		sortEntries(entries)

		result = &ListResult[F, D]{Path: p, Entries: entries}
		if page.Truncated {
			result.NextCursor = page.NextCursor
		}
		return nil
	}, pathAttr(opts.Path))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// sortEntries orders folders before files, then by name.
func sortEntries[F, D any](entries []Entry[F, D]) {
	slices.SortStableFunc(entries, func(a, b Entry[F, D]) int {
		if a.IsFolder() != b.IsFolder() {
			if a.IsFolder() {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Name(), b.Name())
	})
}

// folderEntry builds and decorates the entry for a common prefix.
func (m *Manager[F, D]) folderEntry(ctx context.Context, prefix string) (*FolderEntry[D], error) {
	rel, err := m.keyToPath(prefix)
	if err != nil {
		return nil, err
	}
	p := ensureTrailing(strings.Trim(rel, "/"), m.delimiter)
	folder := &FolderEntry[D]{Path: p, Name: baseName(p, m.delimiter)}
	if m.hooks.DecorateFolder != nil {
		if err := m.hooks.DecorateFolder(ctx, folder, FolderDecoration{Path: p, Prefix: m.rootPrefix + p}); err != nil {
			return nil, err
		}
	}
	return folder, nil
}

// fileEntry builds and decorates the entry for a listed object.
func (m *Manager[F, D]) fileEntry(ctx context.Context, obj storage.Object) (*FileEntry[F], error) {
	p, err := m.keyToPath(obj.Key)
	if err != nil {
		return nil, err
	}
	size := obj.Size
	file := &FileEntry[F]{Path: p, Name: baseName(p, m.delimiter), Size: &size, ETag: obj.ETag}
	if !obj.LastModified.IsZero() {
		file.LastModified = formatTime(obj.LastModified)
	}
	if m.hooks.DecorateFile != nil {
		if err := m.hooks.DecorateFile(ctx, file, FileDecoration{Path: p, Key: obj.Key}); err != nil {
			return nil, err
		}
	}
	return file, nil
}
