package auth

import (
	"errors"
	"fmt"

	"github.com/kbukum/s3fm/auth/jwt"
)

// Config controls bearer-token authentication on the HTTP surface.
type Config struct {
	Enabled bool        `mapstructure:"enabled"`
	JWT     *jwt.Config `mapstructure:"jwt"`
}

// ApplyDefaults applies defaults to the JWT section when present.
func (c *Config) ApplyDefaults() {
	if c.JWT != nil {
		c.JWT.ApplyDefaults()
	}
}

// Validate requires a JWT section when auth is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.JWT == nil {
		return errors.New("auth.jwt is required when auth is enabled")
	}
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	return nil
}

// Describe returns a one-liner for the startup log.
func (c *Config) Describe() string {
	if !c.Enabled {
		return "disabled"
	}
	if c.JWT == nil {
		return "enabled (no jwt)"
	}
	return fmt.Sprintf("JWT(%s) issuer=%q", c.JWT.Method, c.JWT.Issuer)
}
