package filemanager

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/s3fm/authz"
	"github.com/kbukum/s3fm/logger"
	"github.com/kbukum/s3fm/observability"
)

// FileDecoration is passed to Hooks.DecorateFile.
type FileDecoration struct {
	Path string
	Key  string
}

// FolderDecoration is passed to Hooks.DecorateFolder.
type FolderDecoration struct {
	Path   string
	Prefix string
}

// Hooks decorate entries before they are returned. Either may be nil. An
// error aborts the listing.
type Hooks[F, D any] struct {
	DecorateFile   func(ctx context.Context, file *FileEntry[F], args FileDecoration) error
	DecorateFolder func(ctx context.Context, folder *FolderEntry[D], args FolderDecoration) error
}

// Option configures non-generic collaborators of a Manager.
type Option func(*settings)

type settings struct {
	authorizer authz.Authorizer
	allower    authz.ActionAllower
	cache      PreviewCache
	log        *logger.Logger
	metrics    *observability.Metrics
	now        func() time.Time
	newOwner   func() string
}

func defaultSettings() settings {
	return settings{
		log:      logger.NewNop(),
		now:      time.Now,
		newOwner: func() string { return uuid.NewString() },
	}
}

// WithAuthorizer sets the identity hook run first by the gate.
func WithAuthorizer(a authz.Authorizer) Option {
	return func(s *settings) { s.authorizer = a }
}

// WithActionAllower sets the per-action policy hook.
func WithActionAllower(a authz.ActionAllower) Option {
	return func(s *settings) { s.allower = a }
}

// WithPreviewCache caches presigned preview URLs.
func WithPreviewCache(c PreviewCache) Option {
	return func(s *settings) { s.cache = c }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithClock overrides time.Now; used for expiry math in tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOwnerIDs overrides the generator of folder lock owner ids.
func WithOwnerIDs(fn func() string) Option {
	return func(s *settings) {
		if fn != nil {
			s.newOwner = fn
		}
	}
}
