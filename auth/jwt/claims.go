package jwt

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/s3fm/authz"
)

// Claims is the bearer token payload s3fm understands: the standard
// registered claims plus a roles list.
type Claims struct {
	gojwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// AuthContext maps the claims onto the identity the file manager's
// authorization hooks receive.
func (c *Claims) AuthContext() *authz.Context {
	ac := &authz.Context{UserID: c.Subject, Roles: c.Roles}
	if c.Issuer != "" {
		ac.Attributes = map[string]any{"iss": c.Issuer}
	}
	return ac
}

// SetDefaults stamps iat/exp and, when empty, iss/aud.
func (c *Claims) SetDefaults(now time.Time, ttl time.Duration, issuer string, audience []string) {
	if c.IssuedAt == nil {
		c.IssuedAt = gojwt.NewNumericDate(now)
	}
	if c.ExpiresAt == nil {
		c.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	}
	if c.Issuer == "" {
		c.Issuer = issuer
	}
	if len(c.Audience) == 0 && len(audience) > 0 {
		c.Audience = audience
	}
}
