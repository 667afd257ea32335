package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_MessageFormat(t *testing.T) {
	t.Parallel()

	err := NewAuthError("missing API key")
	if got := err.Error(); got != "auth_error: missing API key" {
		t.Fatalf("Error() = %q", got)
	}

	withCode := &Error{Type: ErrConnection, Message: "dial failed", Code: "ECONN"}
	if got := withCode.Error(); got != "connection_error: dial failed (code: ECONN)" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewConnectionError("dial live endpoint", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through errors.Is")
	}

	wrapped := fmt.Errorf("starting session: %w", err)
	if !IsType(wrapped, ErrConnection) {
		t.Fatal("IsType does not see through wrapping")
	}
}

func TestIsType(t *testing.T) {
	t.Parallel()

	if IsType(NewDeviceError("open mic", nil), ErrAuth) {
		t.Fatal("IsType matched the wrong type")
	}
	if IsType(errors.New("plain"), ErrConnection) {
		t.Fatal("IsType matched a non-core error")
	}
	if IsType(nil, ErrConnection) {
		t.Fatal("IsType matched nil")
	}
}
