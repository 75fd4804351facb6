package livelang

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "original", Message: "must not be empty"}
	if err.Error() != "invalid original: must not be empty" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	err2 := &ValidationError{Message: "bad payload"}
	if err2.Error() != "invalid input: bad payload" {
		t.Errorf("unexpected error message: %s", err2.Error())
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("database is locked")
	err := &StoreError{Op: "insert", Cause: cause}

	if err.Error() != "store error: insert: database is locked" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestCacheError(t *testing.T) {
	err := &CacheError{Message: "connection failed"}

	if err.Error() != "cache error: connection failed" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

func TestCapacityError(t *testing.T) {
	err := &CapacityError{Limit: 3}

	expected := "language limit reached: at most 3 languages can be configured"
	if err.Error() != expected {
		t.Errorf("unexpected error message: %s, want %s", err.Error(), expected)
	}
}

func TestNotFoundError_IsErrNotFound(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &NotFoundError{Kind: "language", Key: "fr"})

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}

	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Key != "fr" {
		t.Errorf("errors.As failed, got %+v", nf)
	}
}

func TestRemoteError(t *testing.T) {
	tests := []struct {
		err  *RemoteError
		want string
	}{
		{&RemoteError{Message: "bad gateway", StatusCode: 502}, "remote error (status 502): bad gateway"},
		{&RemoteError{Message: "dial failed", Cause: errors.New("refused")}, "remote error: dial failed: refused"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
