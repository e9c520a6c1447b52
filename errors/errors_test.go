package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("not_found should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("timeout should be retryable")
	}
}

func TestAppError_Unauthorized_DefaultMessage(t *testing.T) {
	err := Unauthorized("")
	if err.Code != ErrCodeUnauthorized {
		t.Errorf("expected unauthorized, got %s", err.Code)
	}
	if err.Message != "Unauthorized" {
		t.Errorf("expected default message, got %q", err.Message)
	}

	err2 := Unauthorized("bad token")
	if err2.Message != "bad token" {
		t.Errorf("expected custom message, got %q", err2.Message)
	}
}

func TestAppError_Internal_UsesCauseMessage(t *testing.T) {
	cause := fmt.Errorf("connection reset by peer")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected internal_error, got %s", err.Code)
	}
	if err.Message != "connection reset by peer" {
		t.Errorf("expected cause text as message, got %q", err.Message)
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	if Internal(nil).Message != "Unknown error" {
		t.Error("expected fallback message for nil cause")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := FolderNotEmpty("docs/")
	s := err.Error()
	if !strings.Contains(s, "folder_not_empty") {
		t.Errorf("expected error string to contain code, got %q", s)
	}
	if !strings.Contains(s, "Folder is not empty") {
		t.Errorf("expected error string to contain message, got %q", s)
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"InvalidPath", InvalidPath("../x"), ErrCodeInvalidPath, http.StatusBadRequest, false},
		{"InvalidBody", InvalidBody("Expected JSON object body"), ErrCodeInvalidBody, http.StatusBadRequest, false},
		{"Unauthorized", Unauthorized(""), ErrCodeUnauthorized, http.StatusUnauthorized, false},
		{"Forbidden", Forbidden(""), ErrCodeForbidden, http.StatusForbidden, false},
		{"NotFound", NotFound("Route not found"), ErrCodeNotFound, http.StatusNotFound, false},
		{"FolderNotEmpty", FolderNotEmpty("a/"), ErrCodeFolderNotEmpty, http.StatusConflict, false},
		{"Conflict", Conflict("Folder is locked"), ErrCodeConflict, http.StatusConflict, false},
		{"OutOfScope", OutOfScope("other/key"), ErrCodeInternal, http.StatusInternalServerError, false},
		{"ServiceUnavailable", ServiceUnavailable("object store"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"Internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestAppError_ToResponse_Success(t *testing.T) {
	resp := InvalidPath("a/../b").ToResponse()
	if resp.Error.Code != ErrCodeInvalidPath {
		t.Errorf("expected invalid_path in response, got %s", resp.Error.Code)
	}
	if resp.Error.Message != "Invalid path" {
		t.Errorf("unexpected message %q", resp.Error.Message)
	}
	if resp.Error.Details["path"] != "a/../b" {
		t.Error("expected path in response details")
	}
}

func TestFrom_Table(t *testing.T) {
	orig := Forbidden("")
	wrapped := fmt.Errorf("outer: %w", orig)
	plain := fmt.Errorf("something broke")

	if From(nil) != nil {
		t.Error("From(nil) should return nil")
	}
	if From(orig) != orig {
		t.Error("From should return the original AppError unchanged")
	}
	if From(wrapped) != orig {
		t.Error("From should unwrap a wrapped AppError")
	}
	got := From(plain)
	if got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("expected internal error wrapping plain error, got %+v", got)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("delete: %w", FolderNotEmpty("a/"))
	if !HasCode(err, ErrCodeFolderNotEmpty) {
		t.Error("expected HasCode to see through wrapping")
	}
	if HasCode(err, ErrCodeConflict) {
		t.Error("expected HasCode to reject a different code")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeInternal) {
		t.Error("expected HasCode to reject non-AppError")
	}
}

func TestAppError_ImplementsErrorInterface(t *testing.T) {
	var err error = NotFound("The requested object was not found.")
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		t.Error("stderrors.As should work with AppError")
	}
	if got, ok := AsAppError(fmt.Errorf("wrapped: %w", err)); !ok || got != appErr {
		t.Error("AsAppError should unwrap to the same AppError")
	}
	if _, ok := AsAppError(fmt.Errorf("not an app error")); ok {
		t.Error("expected AsAppError to return false for non-AppError")
	}
}
