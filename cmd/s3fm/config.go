package main

import (
	"errors"
	"fmt"

	"github.com/kbukum/s3fm/auth"
	"github.com/kbukum/s3fm/config"
	"github.com/kbukum/s3fm/filemanager"
	"github.com/kbukum/s3fm/observability"
	"github.com/kbukum/s3fm/redis"
	"github.com/kbukum/s3fm/server"
	"github.com/kbukum/s3fm/storage"
	"github.com/kbukum/s3fm/storage/s3"
)

// AppConfig is the full s3fm configuration, read from cmd/s3fm/config.yml
// and S3FM_* environment variables.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	S3            s3.Config            `yaml:"s3" mapstructure:"s3"`
	FileManager   filemanager.Config   `yaml:"file_manager" mapstructure:"file_manager"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "s3fm"
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Storage.ApplyDefaults()
	if c.Storage.Provider == storage.ProviderS3 {
		if c.S3.Bucket == "" {
			c.S3.Bucket = c.Storage.Bucket
		}
		c.S3.ApplyDefaults()
	}
	c.FileManager.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if !c.Storage.Enabled {
		return errors.New("storage.enabled must be true: the file manager needs a bucket")
	}
	checks := []struct {
		section string
		err     error
	}{
		{"server", c.Server.Validate()},
		{"storage", c.Storage.Validate()},
		{"file_manager", c.FileManager.Validate()},
		{"auth", c.Auth.Validate()},
		{"redis", c.Redis.Validate()},
		{"observability", c.Observability.Validate()},
	}
	if c.Storage.Provider == storage.ProviderS3 {
		checks = append(checks, struct {
			section string
			err     error
		}{"s3", c.S3.Validate()})
	}
	var errs []error
	for _, chk := range checks {
		if chk.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", chk.section, chk.err))
		}
	}
	return errors.Join(errs...)
}
