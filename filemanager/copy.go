package filemanager

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/s3fm/authz"
	apperrors "github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/storage"
)

// transfer is a normalized copy or move request.
type transfer struct {
	folder  bool
	from    string
	to      string
	ifMatch string
}

// resolveTransfer normalizes both paths. A source ending with the delimiter
// designates a folder, in which case both paths are in folder form.
func (m *Manager[F, D]) resolveTransfer(opts CopyOptions) (transfer, error) {
	from, err := normalizePath(opts.FromPath)
	if err != nil {
		return transfer{}, err
	}
	to, err := normalizePath(opts.ToPath)
	if err != nil {
		return transfer{}, err
	}
	t := transfer{
		folder:  strings.HasSuffix(strings.ReplaceAll(opts.FromPath, `\`, "/"), m.delimiter),
		from:    from,
		to:      to,
		ifMatch: opts.IfMatch,
	}
	if t.folder {
		t.from = ensureTrailing(from, m.delimiter)
		t.to = ensureTrailing(to, m.delimiter)
	}
	return t, nil
}

// noop reports whether source and destination are the same path.
func (t transfer) noop() bool { return t.from == t.to }

func (t transfer) validate() error {
	if t.from == "" {
		return apperrors.InvalidBody("fromPath is required")
	}
	if !t.folder && t.to == "" {
		return apperrors.InvalidBody("toPath is required")
	}
	if t.folder && strings.HasPrefix(t.to, t.from) {
		return apperrors.InvalidBody("Cannot copy a folder into itself")
	}
	return nil
}

func transferAttrs(opts CopyOptions) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("s3fm.from_path", opts.FromPath),
		attribute.String("s3fm.to_path", opts.ToPath),
	}
}

// Copy copies a file, or a folder and everything under it. Copying a path
// onto itself is a no-op. A folder copy is not atomic: children that vanish
// mid-enumeration are skipped, any other failure stops the copy and leaves
// what was already copied.
func (m *Manager[F, D]) Copy(ctx context.Context, opts CopyOptions, authCtx *authz.Context) error {
	return m.run(ctx, "copy", authCtx, func(ctx context.Context) error {
		t, err := m.resolveTransfer(opts)
		if err != nil || t.noop() {
			return err
		}
		if err := t.validate(); err != nil {
			return err
		}
		action := authz.ActionFileCopy
		if t.folder {
			action = authz.ActionFolderCopy
		}
		if err := m.authorize(ctx, authz.Request{Action: action, FromPath: t.from, ToPath: t.to, Context: authCtx}); err != nil {
			return err
		}
		return m.copy(ctx, t)
	}, transferAttrs(opts)...)
}

// Move copies and then deletes the source. The caller needs the move action
// as well as the copy and delete actions on the same paths; all three are
// checked before anything is written. The source is only deleted after the
// copy completed, so a failed move never loses data; an interrupted one can
// leave both copies. Folder moves take folder locks when enabled.
func (m *Manager[F, D]) Move(ctx context.Context, opts MoveOptions, authCtx *authz.Context) error {
	return m.run(ctx, "move", authCtx, func(ctx context.Context) error {
		t, err := m.resolveTransfer(opts)
		if err != nil || t.noop() {
			return err
		}
		if err := t.validate(); err != nil {
			return err
		}
		if err := m.authorizeMove(ctx, t, authCtx); err != nil {
			return err
		}

		if !t.folder {
			if err := m.copy(ctx, t); err != nil {
				return err
			}
			return m.deleteFiles(ctx, []DeleteItem{{Path: t.from, IfMatch: t.ifMatch}}, authCtx, false)
		}

		if m.lockFolderMoves {
			release, err := m.lockMove(ctx, t)
			if err != nil {
				return err
			}
			defer release()
		}
		if err := m.copy(ctx, t); err != nil {
			return err
		}
		return m.deleteTree(ctx, m.rootPrefix+t.from)
	}, transferAttrs(opts)...)
}

// authorizeMove checks folder.move, folder.copy and folder.delete (or their
// file counterparts) in that order.
func (m *Manager[F, D]) authorizeMove(ctx context.Context, t transfer, authCtx *authz.Context) error {
	move, cp, del := authz.ActionFileMove, authz.ActionFileCopy, authz.ActionFileDelete
	if t.folder {
		move, cp, del = authz.ActionFolderMove, authz.ActionFolderCopy, authz.ActionFolderDelete
	}
	for _, req := range []authz.Request{
		{Action: move, FromPath: t.from, ToPath: t.to},
		{Action: cp, FromPath: t.from, ToPath: t.to},
		{Action: del, Path: t.from},
	} {
		req.Context = authCtx
		if err := m.authorize(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager[F, D]) copy(ctx context.Context, t transfer) error {
	if !t.folder {
		return m.store.Copy(ctx, storage.CopyInput{
			SourceKey: m.rootPrefix + t.from,
			DestKey:   m.rootPrefix + t.to,
			IfMatch:   t.ifMatch,
		})
	}

	fromPrefix := m.rootPrefix + t.from
	toPrefix := m.rootPrefix + t.to
	log := m.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldFromPath, t.from, logger.FieldToPath, t.to))

	// The marker may legitimately be missing.
	if toPrefix != "" {
		if err := m.store.Copy(ctx, storage.CopyInput{SourceKey: fromPrefix, DestKey: toPrefix}); err != nil {
			log.Warn("folder marker not copied", logger.Fields(logger.FieldError, err.Error()))
		}
	}

	copied := 0
	for obj, err := range storage.Walk(ctx, m.store, fromPrefix) {
		if err != nil {
			return err
		}
		if obj.Key == fromPrefix {
			continue
		}
		dest := toPrefix + obj.Key[len(fromPrefix):]
		err := m.store.Copy(ctx, storage.CopyInput{SourceKey: obj.Key, DestKey: dest})
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("source vanished during copy", logger.Fields(logger.FieldKey, obj.Key))
			continue
		}
		if err != nil {
			log.WithError(err).Error("folder copy aborted", logger.Fields(logger.FieldKey, obj.Key, logger.FieldCount, copied))
			return err
		}
		copied++
	}
	log.Debug("folder copied", logger.Fields(logger.FieldCount, copied))
	return nil
}
