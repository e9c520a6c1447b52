package s3

import (
	"errors"
	"fmt"
	"net/url"
)

// DefaultRegion applies when neither the config nor the environment sets one.
const DefaultRegion = "us-east-1"

// Config is the s3 section of the service config. Credentials left empty
// fall through to the AWS default chain (env, shared config, instance role).
type Config struct {
	// Bucket overrides storage.bucket when set.
	Bucket string `mapstructure:"bucket" json:"bucket"`
	Region string `mapstructure:"region" json:"region"`

	// Endpoint targets an S3-compatible service such as MinIO and implies
	// path-style addressing.
	Endpoint       string `mapstructure:"endpoint" json:"endpoint"`
	ForcePathStyle bool   `mapstructure:"force_path_style" json:"force_path_style"`

	AccessKey    string `mapstructure:"access_key" json:"-"`
	SecretKey    string `mapstructure:"secret_key" json:"-"`
	SessionToken string `mapstructure:"session_token" json:"-"`
}

func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("bucket is required"))
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		errs = append(errs, errors.New("access_key and secret_key must be set together"))
	}
	if c.Endpoint != "" {
		if u, err := url.Parse(c.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("endpoint %q must be an absolute URL", c.Endpoint))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("s3: %w", errors.Join(errs...))
	}
	return nil
}

// pathStyle reports whether requests address the bucket in the path.
func (c *Config) pathStyle() bool {
	return c.ForcePathStyle || c.Endpoint != ""
}
