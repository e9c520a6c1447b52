package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod names a supported JWT algorithm.
type SigningMethod string

const (
	HS256 SigningMethod = "HS256"
	HS384 SigningMethod = "HS384"
	HS512 SigningMethod = "HS512"
	RS256 SigningMethod = "RS256"
	RS384 SigningMethod = "RS384"
	RS512 SigningMethod = "RS512"
)

// Config configures token verification. Tokens are normally issued by an
// upstream identity service; s3fm only needs the verification key, but a
// signing key may be set for local development and tests.
type Config struct {
	// Secret is the HMAC key for HS* methods.
	Secret string `mapstructure:"secret"`

	// PublicKeyPEM verifies RS* tokens.
	PublicKeyPEM string `mapstructure:"public_key_pem"`

	// PrivateKeyPEM signs RS* tokens. Optional.
	PrivateKeyPEM string `mapstructure:"private_key_pem"`

	Method   SigningMethod `mapstructure:"method"`
	Issuer   string        `mapstructure:"issuer"`
	Audience []string      `mapstructure:"audience"`

	// AccessTokenTTL applies to tokens minted by GenerateAccess (default: 15m).
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`

	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Method == "" {
		c.Method = HS256
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
}

// Validate checks the key material for the configured method and parses any
// PEM keys.
func (c *Config) Validate() error {
	switch c.Method {
	case HS256, HS384, HS512:
		if c.Secret == "" {
			return errors.New("secret is required for HMAC signing methods")
		}
	case RS256, RS384, RS512:
		if c.PrivateKeyPEM != "" {
			key, err := gojwt.ParseRSAPrivateKeyFromPEM([]byte(c.PrivateKeyPEM))
			if err != nil {
				return fmt.Errorf("private_key_pem: %w", err)
			}
			c.privateKey = key
			c.publicKey = &key.PublicKey
		}
		if c.PublicKeyPEM != "" {
			key, err := gojwt.ParseRSAPublicKeyFromPEM([]byte(c.PublicKeyPEM))
			if err != nil {
				return fmt.Errorf("public_key_pem: %w", err)
			}
			c.publicKey = key
		}
		if c.publicKey == nil {
			return errors.New("public_key_pem or private_key_pem is required for RSA signing methods")
		}
	default:
		return fmt.Errorf("unsupported signing method: %s", c.Method)
	}
	return nil
}

func (c *Config) signingMethod() gojwt.SigningMethod {
	switch c.Method {
	case HS384:
		return gojwt.SigningMethodHS384
	case HS512:
		return gojwt.SigningMethodHS512
	case RS256:
		return gojwt.SigningMethodRS256
	case RS384:
		return gojwt.SigningMethodRS384
	case RS512:
		return gojwt.SigningMethodRS512
	default:
		return gojwt.SigningMethodHS256
	}
}

func (c *Config) isHMAC() bool {
	return c.Method == HS256 || c.Method == HS384 || c.Method == HS512
}

func (c *Config) signKey() (interface{}, error) {
	if c.isHMAC() {
		return []byte(c.Secret), nil
	}
	if c.privateKey == nil {
		return nil, errors.New("no private key configured")
	}
	return c.privateKey, nil
}

func (c *Config) verifyKey() interface{} {
	if c.isHMAC() {
		return []byte(c.Secret)
	}
	return c.publicKey
}
