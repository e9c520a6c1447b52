package filemanager

import (
	"context"

	"github.com/kbukum/s3fm/authz"
	apperrors "github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/storage"
)

// CreateFolder writes the zero-byte marker for opts.Path. Creating an
// existing folder rewrites its marker.
func (m *Manager[F, D]) CreateFolder(ctx context.Context, opts CreateFolderOptions, authCtx *authz.Context) error {
	return m.run(ctx, "folder.create", authCtx, func(ctx context.Context) error {
		p, err := m.folderPath(opts.Path)
		if err != nil {
			return err
		}
		if p == "" {
			return apperrors.InvalidBody("Folder path is required")
		}
		if err := m.authorize(ctx, authz.Request{Action: authz.ActionFolderCreate, Path: p, Context: authCtx}); err != nil {
			return err
		}
		_, err = m.store.Put(ctx, storage.PutInput{Key: m.rootPrefix + p, Body: []byte{}})
		return err
	}, pathAttr(opts.Path))
}
