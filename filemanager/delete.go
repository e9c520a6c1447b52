package filemanager

import (
	"context"
	"errors"

	"github.com/kbukum/s3fm/authz"
	apperrors "github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/storage"
)

// DeleteFolder removes a folder. Without Recursive it only removes the
// marker and fails with FolderNotEmpty when anything else lives under it.
func (m *Manager[F, D]) DeleteFolder(ctx context.Context, opts DeleteFolderOptions, authCtx *authz.Context) error {
	return m.run(ctx, "folder.delete", authCtx, func(ctx context.Context) error {
		p, err := m.folderPath(opts.Path)
		if err != nil {
			return err
		}
		if p == "" {
			return apperrors.InvalidBody("Cannot delete the root folder")
		}
		if err := m.authorize(ctx, authz.Request{Action: authz.ActionFolderDelete, Path: p, Context: authCtx}); err != nil {
			return err
		}
		prefix := m.rootPrefix + p
		if opts.Recursive {
			return m.deleteTree(ctx, prefix)
		}

		page, err := m.store.ListPage(ctx, storage.ListInput{Prefix: prefix, MaxKeys: 2})
		if err != nil {
			return err
		}
		for _, obj := range page.Objects {
			if obj.Key != prefix {
				return apperrors.FolderNotEmpty(p)
			}
		}
		return m.store.Delete(ctx, storage.DeleteInput{Key: prefix})
	}, pathAttr(opts.Path))
}

// deleteTree removes every key under prefix, buffering at most one batch.
func (m *Manager[F, D]) deleteTree(ctx context.Context, prefix string) error {
	batch := make([]string, 0, storage.MaxDeleteBatch)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := m.store.DeleteBatch(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for obj, err := range storage.Walk(ctx, m.store, prefix) {
		if err != nil {
			return err
		}
		batch = append(batch, obj.Key)
		if len(batch) == storage.MaxDeleteBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	m.log.WithContext(ctx).Debug("deleted tree", logger.Fields(logger.FieldPrefix, prefix, logger.FieldCount, total))
	return nil
}

// DeleteFiles removes files. Every path is authorized before anything is
// deleted. Plain paths go out in batches; items with a precondition are
// deleted one at a time and a failed precondition is a Conflict.
func (m *Manager[F, D]) DeleteFiles(ctx context.Context, opts DeleteFilesOptions, authCtx *authz.Context) error {
	return m.run(ctx, "file.delete", authCtx, func(ctx context.Context) error {
		items := make([]DeleteItem, 0, len(opts.Paths)+len(opts.Items))
		for _, p := range opts.Paths {
			items = append(items, DeleteItem{Path: p})
		}
		items = append(items, opts.Items...)
		return m.deleteFiles(ctx, items, authCtx, true)
	})
}

func (m *Manager[F, D]) deleteFiles(ctx context.Context, items []DeleteItem, authCtx *authz.Context, gate bool) error {
	for i := range items {
		p, err := normalizePath(items[i].Path)
		if err != nil {
			return err
		}
		if p == "" {
			return apperrors.InvalidBody("File path is required")
		}
		items[i].Path = p
	}
	if gate {
		for _, item := range items {
			if err := m.authorize(ctx, authz.Request{Action: authz.ActionFileDelete, Path: item.Path, Context: authCtx}); err != nil {
				return err
			}
		}
	}

	var plain []string
	var conditional []DeleteItem
	for _, item := range items {
		if item.conditional() {
			conditional = append(conditional, item)
			continue
		}
		plain = append(plain, m.rootPrefix+item.Path)
	}
	if err := storage.DeleteKeys(ctx, m.store, plain); err != nil {
		return err
	}
	for _, item := range conditional {
		if err := m.deleteConditional(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// deleteConditional honours If-Match directly on the store. If-None-Match is
// checked against a head request and the delete is then pinned to the
// observed ETag, so a concurrent overwrite still fails the call.
func (m *Manager[F, D]) deleteConditional(ctx context.Context, item DeleteItem) error {
	key := m.rootPrefix + item.Path
	ifMatch := item.IfMatch
	if item.IfNoneMatch != "" {
		info, err := m.store.Head(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if etagMatches(item.IfNoneMatch, info.ETag) {
			return apperrors.Conflict("Precondition failed").WithDetail("path", item.Path)
		}
		if ifMatch == "" {
			ifMatch = info.ETag
		}
	}

	err := m.store.Delete(ctx, storage.DeleteInput{Key: key, IfMatch: ifMatch})
	if errors.Is(err, storage.ErrPreconditionFailed) || errors.Is(err, storage.ErrNotFound) {
		return apperrors.Conflict("Precondition failed").WithDetail("path", item.Path).WithCause(err)
	}
	return err
}

// etagMatches compares an HTTP entity-tag condition with an object ETag,
// ignoring quotes. "*" matches any existing object.
func etagMatches(cond, etag string) bool {
	if cond == "*" {
		return true
	}
	return unquote(cond) == unquote(etag)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
