package auth

import "github.com/kbukum/s3fm/authz"

// TokenValidator validates a bearer token and returns its parsed claims.
// jwt.Service implements it.
type TokenValidator interface {
	ValidateToken(token string) (any, error)
}

// TokenValidatorFunc adapts a function to TokenValidator.
type TokenValidatorFunc func(token string) (any, error)

// ValidateToken implements TokenValidator.
func (f TokenValidatorFunc) ValidateToken(token string) (any, error) {
	return f(token)
}

// AuthContextProvider is implemented by claims that can describe the caller
// to the file manager's authorization hooks.
type AuthContextProvider interface {
	AuthContext() *authz.Context
}

// ToAuthzContext converts validated claims into an authz.Context. It accepts
// an AuthContextProvider, an *authz.Context, or an authz.Context.
func ToAuthzContext(claims any) (*authz.Context, bool) {
	switch c := claims.(type) {
	case AuthContextProvider:
		ac := c.AuthContext()
		return ac, ac != nil
	case *authz.Context:
		return c, c != nil
	case authz.Context:
		return &c, true
	default:
		return nil, false
	}
}
