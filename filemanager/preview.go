package filemanager

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/s3fm/authz"
	apperrors "github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/storage"
)

// PreviewCache stores issued preview URLs. Get returns (nil, nil) on a miss.
// Entries must not outlive the ttl given to Put.
type PreviewCache interface {
	Get(ctx context.Context, key string) (*PreviewURL, error)
	Put(ctx context.Context, key string, url *PreviewURL, ttl time.Duration) error
}

// GetPreviewURL presigns a GET for a file, served inline or as an
// attachment. With a PreviewCache, authorization still runs on every call;
// only the signing is skipped on a hit. Cache failures fall back to signing.
func (m *Manager[F, D]) GetPreviewURL(ctx context.Context, opts PreviewOptions, authCtx *authz.Context) (*PreviewURL, error) {
	var result *PreviewURL
	err := m.run(ctx, "preview.get", authCtx, func(ctx context.Context) error {
		p, err := normalizePath(opts.Path)
		if err != nil {
			return err
		}
		if p == "" {
			return apperrors.InvalidBody("Preview path is required")
		}
		if err := m.authorize(ctx, authz.Request{Action: authz.ActionPreviewGet, Path: p, Context: authCtx}); err != nil {
			return err
		}

		ttl := ttlSeconds(opts.ExpiresInSeconds)
		disposition := "attachment"
		if opts.Inline {
			disposition = "inline"
		}
		key := m.rootPrefix + p
		cacheKey := fmt.Sprintf("%s/%s|%s|%d", m.store.Bucket(), key, disposition, int(ttl.Seconds()))
		log := m.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldKey, key))

		if m.cache != nil {
			cached, err := m.cache.Get(ctx, cacheKey)
			if err != nil {
				log.WithError(err).Warn("preview cache read failed")
			}
			if cached != nil {
				result = cached
				return nil
			}
		}

		url, err := m.store.PresignGet(ctx, storage.PresignGetInput{Key: key, ResponseContentDisposition: disposition, TTL: ttl})
		if err != nil {
			return err
		}
		result = &PreviewURL{Path: p, URL: url, ExpiresAt: formatTime(m.now().Add(ttl))}

		if m.cache != nil && ttl > m.previewMargin {
			if err := m.cache.Put(ctx, cacheKey, result, ttl-m.previewMargin); err != nil {
				log.WithError(err).Warn("preview cache write failed")
			}
		}
		return nil
	}, pathAttr(opts.Path))
	if err != nil {
		return nil, err
	}
	return result, nil
}
