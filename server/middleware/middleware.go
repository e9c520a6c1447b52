package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/kbukum/s3fm/errors"
)

// Middleware wraps an http.Handler. The server applies the stack around the
// whole handler, so it covers the gin routes and anything mounted beside them.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware; the first is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// writeError sends the standard error envelope.
func writeError(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}
