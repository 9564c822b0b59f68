package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(KindInvalidState, "INVALID_STATE", "booking is not pending", http.StatusConflict)

	if err.Code != "INVALID_STATE" {
		t.Errorf("expected code INVALID_STATE, got %s", err.Code)
	}
	if err.Kind != KindInvalidState {
		t.Errorf("expected kind %s, got %s", KindInvalidState, err.Kind)
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, KindInternal, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if !errors.Is(wrapped, originalErr) {
		t.Errorf("errors.Is should see through AppError")
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "resource not found"},
			expected: "NOT_FOUND: resource not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_StatusCodeDefaultsToInternal(t *testing.T) {
	err := &AppError{Code: "X"}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), http.StatusInternalServerError)
	}
}

func TestAppError_WithDetailsDoesNotMutateReceiver(t *testing.T) {
	base := New(KindNotFound, "EVENT_NOT_FOUND", "event not found", http.StatusNotFound)
	withDetails := base.WithDetails(map[string]any{"id": "abc"})

	if base.Details != nil {
		t.Errorf("base error should stay without details, got %v", base.Details)
	}
	if withDetails.Details["id"] != "abc" {
		t.Errorf("expected id 'abc', got %v", withDetails.Details["id"])
	}
	if withDetails.Code != base.Code {
		t.Errorf("code should be preserved")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		kind   Kind
		status int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, KindNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, KindValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, KindValidation, http.StatusBadRequest},
		{"unauthorized", Unauthorized("who"), CodeUnauthorized, KindUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), CodeForbidden, KindPermissionDenied, http.StatusForbidden},
		{"conflict", Conflict("dup"), CodeConflict, KindDuplicate, http.StatusConflict},
		{"internal", Internal("boom", nil), CodeInternal, KindInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, KindGateway, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Payment gateway"), CodeUnavailable, KindGateway, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", tt.err.Kind, tt.kind)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !IsRetryable(Timeout("gateway timed out")) {
		t.Errorf("timeouts must be retryable")
	}
	if IsRetryable(NotFound("Event")) {
		t.Errorf("not found must not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Errorf("plain errors must not be retryable")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("User")
	regularErr := errors.New("regular error")

	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	wrapped := fmt.Errorf("context: %w", appErr)
	if AsAppError(wrapped) != appErr {
		t.Errorf("AsAppError() should unwrap wrapped AppError")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestHasCodeAndKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(KindCapacityExceeded, "EVENT_FULL", "full", http.StatusConflict))

	if !HasCode(err, "EVENT_FULL") {
		t.Errorf("HasCode should match wrapped code")
	}
	if HasCode(err, "EVENT_NOT_OPEN") {
		t.Errorf("HasCode should not match other codes")
	}
	if !IsKind(err, KindCapacityExceeded) {
		t.Errorf("IsKind should match wrapped kind")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	jsonStr := string(NotFoundWithID("User", "12345").ToJSON())

	if !strings.Contains(jsonStr, `"code":"NOT_FOUND"`) {
		t.Errorf("ToJSON() should contain error code, got %s", jsonStr)
	}
	if !strings.Contains(jsonStr, "not found") {
		t.Errorf("ToJSON() should contain error message, got %s", jsonStr)
	}
}
