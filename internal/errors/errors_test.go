package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "resource not found",
			},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to process",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to process: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeInternal,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{name: "not found", err: NotFound("x"), code: ErrCodeNotFound},
		{name: "validation", err: Validation("x"), code: ErrCodeValidation},
		{name: "unauthorized", err: Unauthorized("x"), code: ErrCodeUnauthorized},
		{name: "forbidden", err: Forbidden("x"), code: ErrCodeForbidden},
		{name: "internal", err: Internal("x"), code: ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.Message != "x" {
				t.Errorf("Message = %q, want %q", tt.err.Message, "x")
			}
		})
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("email", "email is required")
	if GetField(err) != "email" {
		t.Errorf("GetField() = %q, want email", GetField(err))
	}
	if !IsValidation(err) {
		t.Error("IsValidation() = false, want true")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "msg") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	cause := errors.New("boom")
	err := Wrapf(cause, ErrCodeUnavailable, "backend %s down", "catalog")
	if err.Message != "backend catalog down" {
		t.Errorf("Message = %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should match cause")
	}
	if !IsUnavailable(err) {
		t.Error("IsUnavailable() = false, want true")
	}
}

func TestGetCode_ThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", Unauthorized("token rejected"))
	if GetCode(err) != ErrCodeUnauthorized {
		t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeUnauthorized)
	}
	if !IsUnauthorized(err) {
		t.Error("IsUnauthorized() = false, want true")
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode(plain) should be empty")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound(plain) should be false")
	}
}
