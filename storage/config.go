package storage

import "fmt"

// Registered provider names.
const (
	ProviderS3     = "s3"
	ProviderMemory = "memory"
)

// Config selects a backend and its bucket. Credentials and endpoints belong
// to the provider's own config, passed to New separately.
type Config struct {
	Enabled  bool   `mapstructure:"enabled" json:"enabled"`
	Provider string `mapstructure:"provider" json:"provider"`
	Bucket   string `mapstructure:"bucket" json:"bucket"`
}

// ApplyDefaults selects s3 when no provider is set.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderS3
	}
}

// Validate requires a bucket for s3. The memory store accepts any name,
// empty included.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderMemory:
		return nil
	case ProviderS3:
		if c.Bucket == "" {
			return fmt.Errorf("bucket is required for provider %q", c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
}
