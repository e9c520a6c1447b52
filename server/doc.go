// Package server runs the s3fm HTTP surface: a gin engine behind a
// net/http middleware stack, served over HTTP/1.1 and h2c.
//
// Middleware (server/middleware) wraps the whole handler:
//
//   - Recovery: panics become a 500 error body
//   - RequestID: X-Request-Id propagation into the logger context
//   - Telemetry: http.request spans and request metrics
//   - CORS, BodySizeLimit, RequestLogger
//   - Auth: bearer tokens turned into an authz.Context
//
// Endpoints (server/endpoint): /health aggregates component health and
// /info reports the build.
package server
