package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/s3fm/logger"
)

// Factory creates an ObjectStore from core config and provider-specific
// configuration. Each provider type-asserts providerCfg to its own config type.
type Factory func(ctx context.Context, cfg Config, providerCfg any, log *logger.Logger) (ObjectStore, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a backend factory for the given provider name.
// Provider packages call this from an init function.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New creates an ObjectStore for cfg.Provider. The provider package must be
// imported (e.g. _ "github.com/kbukum/s3fm/storage/s3") so its factory is
// registered.
func New(ctx context.Context, cfg Config, providerCfg any, log *logger.Logger) (ObjectStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	l := log.WithComponent("storage")

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l.Info("initializing storage", logger.Fields("provider", cfg.Provider, logger.FieldBucket, cfg.Bucket))
	return f(ctx, cfg, providerCfg, l)
}
