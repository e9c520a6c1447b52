// Package errors provides the structured error type shared by the file
// manager, the storage backends and the HTTP layer. Every failure carries a
// wire code, a message and the HTTP status it maps to.
package errors
