// Package authctx carries the caller identity on a context.Context.
//
//	ctx = authctx.Set(ctx, authCtx)
//	authCtx, ok := authctx.Get[*authz.Context](ctx)
package authctx

import (
	"context"
	"errors"

	"github.com/kbukum/s3fm/authz"
)

type contextKey struct{}

// ErrNoClaims is returned when the context carries no value of the requested type.
var ErrNoClaims = errors.New("authctx: no claims in context")

// Set stores v in ctx.
func Set(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, contextKey{}, v)
}

// Get returns the stored value if it has type T.
func Get[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(contextKey{}).(T)
	return v, ok
}

// GetOrError is Get with ErrNoClaims on a miss.
func GetOrError[T any](ctx context.Context) (T, error) {
	v, ok := Get[T](ctx)
	if !ok {
		return v, ErrNoClaims
	}
	return v, nil
}

// AuthContext returns the caller identity, or an empty (anonymous) context
// when none was set.
func AuthContext(ctx context.Context) *authz.Context {
	if ac, ok := Get[*authz.Context](ctx); ok && ac != nil {
		return ac
	}
	return &authz.Context{}
}
