package filemanager

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/kbukum/s3fm/authz"
	apperrors "github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/storage"
)

const lockOperationMove = "folder.move"

// heldLock is a lock this process wrote, pinned to its ETag.
type heldLock struct {
	key  string
	etag string
}

func (m *Manager[F, D]) lockKey(folder string) string {
	return m.lockPrefix + m.rootPrefix + folder + ".lock"
}

// lockMove locks the source and destination folders. The returned func
// releases both and never fails.
func (m *Manager[F, D]) lockMove(ctx context.Context, t transfer) (func(), error) {
	owner := m.newOwner()
	src, err := m.acquireLock(ctx, t.from, t, owner)
	if err != nil {
		return nil, err
	}
	dst, err := m.acquireLock(ctx, t.to, t, owner)
	if err != nil {
		m.releaseLock(ctx, src)
		return nil, err
	}
	return func() {
		m.releaseLock(ctx, dst)
		m.releaseLock(ctx, src)
	}, nil
}

// acquireLock creates the lock object with If-None-Match. An expired lock is
// removed, pinned to its ETag, and creation is retried once. A live lock held
// by another owner on an ancestor folder or anywhere under folder also
// refuses the lock.
func (m *Manager[F, D]) acquireLock(ctx context.Context, folder string, t transfer, owner string) (*heldLock, error) {
	if err := m.checkNestedLocks(ctx, folder, owner); err != nil {
		return nil, err
	}
	now := m.now()
	body, err := json.Marshal(FolderLock{
		Path:      folder,
		Operation: lockOperationMove,
		FromPath:  t.from,
		ToPath:    t.to,
		StartedAt: formatTime(now),
		ExpiresAt: formatTime(now.Add(m.lockTTL)),
		Owner:     owner,
	})
	if err != nil {
		return nil, err
	}
	key := m.lockKey(folder)

	for attempt := 0; attempt < 2; attempt++ {
		etag, err := m.store.Put(ctx, storage.PutInput{
			Key:         key,
			Body:        body,
			Attributes:  storage.Attributes{ContentType: "application/json"},
			IfNoneMatch: "*",
		})
		if err == nil {
			return &heldLock{key: key, etag: etag}, nil
		}
		if !errors.Is(err, storage.ErrPreconditionFailed) {
			return nil, err
		}

		existing, existingETag, err := m.readLock(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if existing != nil && m.lockActive(existing) {
			return nil, lockedError(existing)
		}

		err = m.store.Delete(ctx, storage.DeleteInput{Key: key, IfMatch: existingETag})
		if err != nil && !errors.Is(err, storage.ErrPreconditionFailed) && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		m.log.WithContext(ctx).Warn("replacing expired folder lock", logger.Fields(logger.FieldPath, folder))
	}
	return nil, apperrors.Conflict("Folder is locked").WithDetail("path", folder)
}

// checkNestedLocks looks for live locks of other owners on the ancestors of
// folder and on its descendants. The check and the create are not atomic.
func (m *Manager[F, D]) checkNestedLocks(ctx context.Context, folder, owner string) error {
	for _, ancestor := range m.ancestors(folder) {
		if err := m.checkLock(ctx, m.lockKey(ancestor), owner); err != nil {
			return err
		}
	}

	own := m.lockKey(folder)
	for obj, err := range storage.Walk(ctx, m.store, m.lockPrefix+m.rootPrefix+folder) {
		if err != nil {
			return err
		}
		if obj.Key == own || !strings.HasSuffix(obj.Key, ".lock") {
			continue
		}
		if err := m.checkLock(ctx, obj.Key, owner); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager[F, D]) checkLock(ctx context.Context, key, owner string) error {
	l, _, err := m.readLock(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if l != nil && l.Owner != owner && m.lockActive(l) {
		return lockedError(l)
	}
	return nil
}

// ancestors lists the proper ancestor folders of folder, outermost first.
// "a/b/c/" yields "a/" and "a/b/"; the root is never locked.
func (m *Manager[F, D]) ancestors(folder string) []string {
	var out []string
	trimmed := strings.TrimSuffix(folder, m.delimiter)
	for i := 0; i < len(trimmed); i++ {
		if strings.HasPrefix(trimmed[i:], m.delimiter) {
			out = append(out, trimmed[:i+len(m.delimiter)])
		}
	}
	return out
}

func lockedError(l *FolderLock) *apperrors.AppError {
	return apperrors.Conflict("Folder is locked").
		WithDetail("path", l.Path).
		WithDetail("expiresAt", l.ExpiresAt)
}

// releaseLock deletes a held lock if it is still ours. Failures are logged.
func (m *Manager[F, D]) releaseLock(ctx context.Context, l *heldLock) {
	ctx = context.WithoutCancel(ctx)
	if err := m.store.Delete(ctx, storage.DeleteInput{Key: l.key, IfMatch: l.etag}); err != nil {
		m.log.WithContext(ctx).WithError(err).Warn("folder lock not released", logger.Fields(logger.FieldKey, l.key))
	}
}

// readLock loads a lock document. An unreadable document is returned as nil
// with its ETag so it can be replaced like an expired lock.
func (m *Manager[F, D]) readLock(ctx context.Context, key string) (*FolderLock, string, error) {
	data, info, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}
	var l FolderLock
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, info.ETag, nil
	}
	return &l, info.ETag, nil
}

func (m *Manager[F, D]) lockActive(l *FolderLock) bool {
	expires, err := time.Parse(time.RFC3339Nano, l.ExpiresAt)
	if err != nil {
		return false
	}
	return m.now().Before(expires)
}

// GetFolderLock returns the active move lock on a folder, or nil when the
// folder is not locked, the lock expired, or locking is disabled.
func (m *Manager[F, D]) GetFolderLock(ctx context.Context, opts FolderLockOptions, authCtx *authz.Context) (*FolderLock, error) {
	var lock *FolderLock
	err := m.run(ctx, "folder.lock.get", authCtx, func(ctx context.Context) error {
		p, err := m.folderPath(opts.Path)
		if err != nil {
			return err
		}
		if err := m.authorize(ctx, authz.Request{Action: authz.ActionFolderLockGet, Path: p, Context: authCtx}); err != nil {
			return err
		}
		if !m.lockFolderMoves {
			return nil
		}
		l, _, err := m.readLock(ctx, m.lockKey(p))
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if l != nil && m.lockActive(l) {
			lock = l
		}
		return nil
	}, pathAttr(opts.Path))
	if err != nil {
		return nil, err
	}
	return lock, nil
}
