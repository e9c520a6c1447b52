package filemanager

import (
	"context"
	"strings"

	"github.com/kbukum/s3fm/authz"
	"github.com/kbukum/s3fm/storage"
)

// Search scans the scope prefix page by page and keeps objects whose name
// contains the query, case-insensitively. It is a linear scan: cost grows
// with the objects scanned, not the matches found. Results stay in key
// order and NextCursor resumes after the last fetched page. When the limit is
// reached partway through a page, the rest of that page is not returned by
// this call or by the next one.
func (m *Manager[F, D]) Search(ctx context.Context, opts SearchOptions, authCtx *authz.Context) (*SearchResult[F, D], error) {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	if query == "" {
		return &SearchResult[F, D]{Query: opts.Query, Entries: []Entry[F, D]{}}, nil
	}

	var result *SearchResult[F, D]
	err := m.run(ctx, "search", authCtx, func(ctx context.Context) error {
		scope, err := m.folderPath(opts.Path)
		if err != nil {
			return err
		}
		if err := m.authorize(ctx, authz.Request{Action: authz.ActionSearch, Context: authCtx}); err != nil {
			return err
		}

		prefix := m.rootPrefix + scope
		recursive := opts.Recursive == nil || *opts.Recursive
		limit := opts.Limit
		if limit <= 0 {
			limit = DefaultSearchLimit
		}

		result = &SearchResult[F, D]{Query: opts.Query, Entries: []Entry[F, D]{}}
		cursor := opts.Cursor
		for len(result.Entries) < limit {
			page, err := m.store.ListPage(ctx, storage.ListInput{Prefix: prefix, Cursor: cursor, MaxKeys: storage.MaxListKeys})
			if err != nil {
				return err
			}
			result.NextCursor = ""
			if page.Truncated {
				result.NextCursor = page.NextCursor
			}

			for _, obj := range page.Objects {
				// Folder markers have no name to match.
				if strings.HasSuffix(obj.Key, m.delimiter) || m.isLockKey(obj.Key) {
					continue
				}
				rel := obj.Key[len(prefix):]
				if !recursive && strings.Contains(rel, m.delimiter) {
					continue
				}
				if !strings.Contains(strings.ToLower(baseName(rel, m.delimiter)), query) {
					continue
				}
				file, err := m.fileEntry(ctx, obj)
				if err != nil {
					return err
				}
				result.Entries = append(result.Entries, FileOf[F, D](file))
				if len(result.Entries) >= limit {
					break
				}
			}

			if result.NextCursor == "" {
				break
			}
			cursor = result.NextCursor
		}
		return nil
	}, pathAttr(opts.Path))
	if err != nil {
		return nil, err
	}
	return result, nil
}
