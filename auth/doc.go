// Package auth holds the authentication contracts used by the HTTP surface.
//
// Subpackages:
//
//   - auth/jwt      verifies bearer tokens into Claims
//   - auth/authctx  carries the resulting authz.Context on a request context
//
// Authentication only establishes who the caller is. What they may do is
// decided by the authz.Gate inside the file manager.
//
//	auth:
//	  enabled: true
//	  jwt:
//	    secret: "dev-secret"
//	    issuer: "https://idp.example.com"
package auth
