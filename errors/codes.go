package errors

// ErrorCode is the machine-readable code sent to clients in the error body.
type ErrorCode string

// Request errors
const (
	// ErrCodeInvalidBody indicates a malformed request body or a missing field.
	ErrCodeInvalidBody ErrorCode = "invalid_body"
	// ErrCodeInvalidPath indicates a path that escapes the root (a ".." segment).
	ErrCodeInvalidPath ErrorCode = "invalid_path"
)

// Authentication/Authorization errors
const (
	// ErrCodeUnauthorized indicates a missing identity or an authorize hook denial.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeForbidden indicates an action denied by the action policy.
	ErrCodeForbidden ErrorCode = "forbidden"
)

// Resource errors
const (
	// ErrCodeNotFound indicates a missing object or an unknown route.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeFolderNotEmpty indicates a non-recursive delete of a folder with children.
	ErrCodeFolderNotEmpty ErrorCode = "folder_not_empty"
	// ErrCodeConflict indicates a failed precondition or a held folder lock.
	ErrCodeConflict ErrorCode = "conflict"
)

// Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the object store is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
	// ErrCodeTimeout indicates the operation ran out of time.
	ErrCodeTimeout ErrorCode = "timeout"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure, including store errors.
	ErrCodeInternal ErrorCode = "internal_error"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
