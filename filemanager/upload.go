package filemanager

import (
	"context"
	"net/http"
	"time"

	"github.com/kbukum/s3fm/authz"
	apperrors "github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/storage"
)

// PrepareUploads presigns one PUT per item. Each item is authorized and
// signed in turn; a failure stops the loop and URLs already issued simply
// expire.
func (m *Manager[F, D]) PrepareUploads(ctx context.Context, opts PrepareUploadsOptions, authCtx *authz.Context) ([]PreparedUpload, error) {
	var uploads []PreparedUpload
	err := m.run(ctx, "upload.prepare", authCtx, func(ctx context.Context) error {
		ttl := ttlSeconds(opts.ExpiresInSeconds)
		uploads = make([]PreparedUpload, 0, len(opts.Items))
		for _, item := range opts.Items {
			p, err := normalizePath(item.Path)
			if err != nil {
				return err
			}
			if p == "" {
				return apperrors.InvalidBody("Upload path is required")
			}
			if err := m.authorize(ctx, authz.Request{Action: authz.ActionUploadPrepare, Path: p, Context: authCtx}); err != nil {
				return err
			}

			attrs := storage.Attributes{
				ContentType:        item.ContentType,
				CacheControl:       item.CacheControl,
				ContentDisposition: item.ContentDisposition,
				Metadata:           item.Metadata,
				Expires:            item.ExpiresAt,
			}
			url, err := m.store.PresignPut(ctx, storage.PresignPutInput{
				Key:         m.rootPrefix + p,
				Attributes:  attrs,
				IfNoneMatch: item.IfNoneMatch,
				TTL:         ttl,
			})
			if err != nil {
				return err
			}
			uploads = append(uploads, PreparedUpload{
				Path:    p,
				URL:     url,
				Method:  http.MethodPut,
				Headers: uploadHeaders(item),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

// uploadHeaders lists the headers the client must send with the signed PUT.
func uploadHeaders(item UploadItem) map[string]string {
	h := map[string]string{}
	if item.ContentType != "" {
		h["Content-Type"] = item.ContentType
	}
	if item.CacheControl != "" {
		h["Cache-Control"] = item.CacheControl
	}
	if item.ContentDisposition != "" {
		h["Content-Disposition"] = item.ContentDisposition
	}
	for k, v := range item.Metadata {
		h["x-amz-meta-"+k] = v
	}
	if item.ExpiresAt != nil {
		h["Expires"] = item.ExpiresAt.UTC().Format(http.TimeFormat)
	}
	if item.IfNoneMatch != "" {
		h["If-None-Match"] = item.IfNoneMatch
	}
	return h
}

func ttlSeconds(s int) time.Duration {
	if s <= 0 {
		s = DefaultPresignSeconds
	}
	return time.Duration(s) * time.Second
}
