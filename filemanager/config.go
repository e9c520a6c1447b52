package filemanager

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/kbukum/s3fm/authz"
)

const (
	DefaultDelimiter      = "/"
	DefaultLockPrefix     = ".s3fm-locks/"
	DefaultLockTTLSeconds = 300
	DefaultPresignSeconds = 300
	DefaultSearchLimit    = 500
	DefaultPreviewMargin  = 30 * time.Second
)

// Config is the file_manager section of the service config.
type Config struct {
	// RootPrefix scopes every path; it is canonicalized to "" or a
	// delimiter-terminated prefix.
	RootPrefix string `mapstructure:"root_prefix"`
	Delimiter  string `mapstructure:"delimiter"`

	// AuthorizationMode applies when no hook is configured:
	// "deny-by-default" (default) or "allow-by-default".
	AuthorizationMode string `mapstructure:"authorization_mode"`

	LockFolderMoves bool   `mapstructure:"lock_folder_moves"`
	LockPrefix      string `mapstructure:"lock_prefix"`
	LockTTLSeconds  int    `mapstructure:"lock_ttl_seconds"`

	// PreviewCacheMargin is subtracted from a presigned URL's remaining
	// validity when caching it.
	PreviewCacheMargin time.Duration `mapstructure:"preview_cache_margin"`

	// BasePath is where the HTTP routes are mounted.
	BasePath string `mapstructure:"base_path"`

	// Roles maps role names to action patterns for the built-in role policy.
	// Empty means no action policy.
	Roles map[string][]string `mapstructure:"roles"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	if c.AuthorizationMode == "" {
		c.AuthorizationMode = string(authz.ModeDenyByDefault)
	}
	if c.LockPrefix == "" {
		c.LockPrefix = DefaultLockPrefix
	}
	if c.LockTTLSeconds == 0 {
		c.LockTTLSeconds = DefaultLockTTLSeconds
	}
	if c.PreviewCacheMargin == 0 {
		c.PreviewCacheMargin = DefaultPreviewMargin
	}
	if c.BasePath == "" {
		c.BasePath = "/api/s3"
	}
}

// Validate checks the section after ApplyDefaults and reports every problem
// at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Delimiter == "" {
		errs = append(errs, errors.New("delimiter must not be empty"))
	}
	if _, err := authz.ParseMode(c.AuthorizationMode); err != nil {
		errs = append(errs, err)
	}
	if c.LockTTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("lock_ttl_seconds must be positive (got %d)", c.LockTTLSeconds))
	}
	if c.LockFolderMoves && c.LockPrefix == "" {
		errs = append(errs, errors.New("lock_prefix is required when lock_folder_moves is set"))
	}
	if c.PreviewCacheMargin < 0 {
		errs = append(errs, errors.New("preview_cache_margin must not be negative"))
	}
	for _, role := range slices.Sorted(maps.Keys(c.Roles)) {
		for _, pattern := range c.Roles[role] {
			if !matchesAnyAction(pattern) {
				errs = append(errs, fmt.Errorf("roles.%s: %q matches no action", role, pattern))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func matchesAnyAction(pattern string) bool {
	return slices.ContainsFunc(authz.Actions, func(a authz.Action) bool {
		return authz.MatchPattern(pattern, string(a))
	})
}

// Mode returns the parsed authorization mode.
func (c *Config) Mode() authz.Mode {
	mode, err := authz.ParseMode(c.AuthorizationMode)
	if err != nil {
		return authz.ModeDenyByDefault
	}
	return mode
}

// LockTTL returns the lock lifetime.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}
