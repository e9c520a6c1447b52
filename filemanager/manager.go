// Package filemanager emulates a hierarchical file system on a flat object
// store. Paths map to keys under a root prefix, folders are zero-byte marker
// objects, and every operation passes the authz.Gate before touching the
// store.
//
// Multi-object operations (recursive copy, move, recursive delete) are not
// atomic. A failure aborts the remaining steps and leaves whatever was
// already written in place.
package filemanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/s3fm/authz"
	apperrors "github.com/kbukum/s3fm/errors"
	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/observability"
	"github.com/kbukum/s3fm/storage"
)

const componentName = "filemanager"

// Manager is safe for concurrent use; it holds only immutable configuration.
// F and D are the decoration payload types of file and folder entries.
type Manager[F, D any] struct {
	store      storage.ObjectStore
	gate       *authz.Gate
	hooks      Hooks[F, D]
	rootPrefix string
	delimiter  string

	lockFolderMoves bool
	lockPrefix      string
	lockTTL         time.Duration

	previewMargin time.Duration
	settings
}

// New builds a manager over store. cfg is defaulted and validated.
func New[F, D any](store storage.ObjectStore, cfg Config, hooks Hooks[F, D], opts ...Option) (*Manager[F, D], error) {
	if store == nil {
		return nil, errors.New("filemanager: store is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("filemanager: %w", err)
	}
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	m := &Manager[F, D]{
		store:           store,
		gate:            authz.NewGate(s.authorizer, s.allower, cfg.Mode()),
		hooks:           hooks,
		rootPrefix:      canonicalRoot(cfg.RootPrefix, cfg.Delimiter),
		delimiter:       cfg.Delimiter,
		lockFolderMoves: cfg.LockFolderMoves,
		lockTTL:         cfg.LockTTL(),
		previewMargin:   cfg.PreviewCacheMargin,
		settings:        s,
	}
	if cfg.LockFolderMoves {
		m.lockPrefix = cfg.LockPrefix
	}
	m.log = s.log.WithComponent(componentName).WithFields(logger.Fields(logger.FieldBucket, store.Bucket()))
	return m, nil
}

// RootPrefix returns the canonical root prefix.
func (m *Manager[F, D]) RootPrefix() string { return m.rootPrefix }

// Delimiter returns the folder separator.
func (m *Manager[F, D]) Delimiter() string { return m.delimiter }

// run wraps one public operation in a span and metrics and converts the
// result to an *AppError.
func (m *Manager[F, D]) run(ctx context.Context, op string, authCtx *authz.Context, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	userID := ""
	if authCtx != nil {
		userID = authCtx.UserID
	}
	oc := observability.NewOperationContext(componentName, op, logger.RequestIDFromContext(ctx), userID, m.metrics)
	ctx, span := oc.Start(ctx, observability.SpanFileManagerPrefix+op,
		append(attrs, attribute.String(observability.AttrBucket, m.store.Bucket()))...)

	err := fn(ctx)
	var appErr *apperrors.AppError
	errType := ""
	if err != nil {
		appErr = translate(err)
		errType = string(appErr.Code)
		log := m.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldOperation, op, "code", errType))
		if appErr.HTTPStatus >= 500 {
			log.WithError(err).Error("operation failed")
		} else {
			log.Debug("operation refused", logger.Fields("message", appErr.Message))
		}
	} else {
		m.log.WithContext(ctx).Debug("operation completed", logger.DurationFields(op, oc.Duration()))
	}
	oc.End(ctx, span, err, errType)
	if appErr != nil {
		return appErr
	}
	return nil
}

// translate maps store sentinels onto the error taxonomy. Everything
// unrecognized becomes an internal error carrying the cause's text.
func translate(err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, storage.ErrPreconditionFailed):
		return apperrors.Conflict("Precondition failed").WithCause(err)
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NotFound("Object not found").WithCause(err)
	default:
		return apperrors.Internal(err)
	}
}

func (m *Manager[F, D]) authorize(ctx context.Context, req authz.Request) error {
	return m.gate.Check(ctx, req)
}

func pathAttr(p string) attribute.KeyValue {
	return attribute.String(observability.AttrPath, p)
}
