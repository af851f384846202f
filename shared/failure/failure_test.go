package failure_test

import (
	"errors"
	"net/http"
	"testing"

	"innkeeper/shared/failure"
)

func TestFailure_Error(t *testing.T) {
	f := &failure.Failure{
		Code:    http.StatusBadRequest,
		Message: "test error message",
	}

	if f.Error() != "test error message" {
		t.Errorf("expected error message to be 'test error message', got %s", f.Error())
	}
}

func TestPredefinedFailures(t *testing.T) {
	tests := []struct {
		name    string
		failure *failure.Failure
		code    int
		message string
	}{
		{
			name:    "InvalidDateRange",
			failure: failure.InvalidDateRange,
			code:    http.StatusBadRequest,
			message: "check-out must be after check-in",
		},
		{
			name:    "InvalidRoomCount",
			failure: failure.InvalidRoomCount,
			code:    http.StatusBadRequest,
			message: "room count must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.failure.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, tt.failure.Code)
			}
			if tt.failure.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, tt.failure.Message)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "BadRequest", err: failure.BadRequest(errors.New("bad")), code: http.StatusBadRequest},
		{name: "BadRequestFromString", err: failure.BadRequestFromString("bad"), code: http.StatusBadRequest},
		{name: "NotFound", err: failure.NotFound("hold"), code: http.StatusNotFound},
		{name: "Conflict", err: failure.Conflict("conflict"), code: http.StatusConflict},
		{name: "Forbidden", err: failure.Forbidden("not yours"), code: http.StatusForbidden},
		{name: "Gone", err: failure.Gone("expired"), code: http.StatusGone},
		{name: "InternalError", err: failure.InternalError(errors.New("boom")), code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := failure.GetCode(tt.err); code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, code)
			}
		})
	}
}

func TestGetCode_NonFailure(t *testing.T) {
	if code := failure.GetCode(errors.New("plain")); code != http.StatusInternalServerError {
		t.Errorf("expected %d for non-failure error, got %d", http.StatusInternalServerError, code)
	}
}

func TestNilErrors(t *testing.T) {
	if failure.BadRequest(nil) != nil {
		t.Error("expected BadRequest(nil) to be nil")
	}
	if failure.InternalError(nil) != nil {
		t.Error("expected InternalError(nil) to be nil")
	}
}
