package middleware

import (
	"net/http"
	"strings"

	"github.com/kbukum/s3fm/auth"
	"github.com/kbukum/s3fm/auth/authctx"
	apperrors "github.com/kbukum/s3fm/errors"
)

// AuthConfig configures the bearer token middleware.
type AuthConfig struct {
	Validator auth.TokenValidator
	// SkipPaths are path prefixes served without a token.
	SkipPaths []string
}

// Auth validates "Authorization: Bearer <token>" and stores the caller's
// authz.Context on the request context. A missing or invalid token is a 401
// with the standard error body.
func Auth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.SkipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, apperrors.Unauthorized("Authorization header required"))
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, apperrors.Unauthorized("Invalid authorization header format"))
				return
			}

			claims, err := cfg.Validator.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				writeError(w, apperrors.Unauthorized("Invalid token"))
				return
			}
			authCtx, ok := auth.ToAuthzContext(claims)
			if !ok {
				writeError(w, apperrors.Unauthorized("Invalid token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(authctx.Set(r.Context(), authCtx)))
		})
	}
}
