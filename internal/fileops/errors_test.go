package fileops

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{relativePath("./x"), "relative path not allowed: ./x"},
		{notADirectory("/etc/passwd"), "not a directory: /etc/passwd"},
		{alreadyExists("/tmp/a"), "already exists: /tmp/a"},
		{NotEnoughArguments(), "not enough arguments"},
		{UnknownAction("frobnicate"), "unknown action: frobnicate"},
		{osError("/x", os.ErrNotExist), os.ErrNotExist.Error()},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", alreadyExists("/a"))
	if KindOf(wrapped) != KindAlreadyExists {
		t.Errorf("KindOf(wrapped) = %v", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnderlyingOS {
		t.Error("errors outside the taxonomy should report KindUnderlyingOS")
	}
	if !errors.Is(wrapped, ErrAlreadyExists) {
		t.Error("expected wrapped error to match ErrAlreadyExists")
	}
	if errors.Is(wrapped, ErrNotADirectory) {
		t.Error("kinds must not cross-match")
	}
}

func TestIsProtocolError(t *testing.T) {
	if !IsProtocolError(NotEnoughArguments()) || !IsProtocolError(UnknownAction("x")) {
		t.Error("expected protocol errors")
	}
	if IsProtocolError(notADirectory("/x")) || IsProtocolError(osError("/x", os.ErrPermission)) {
		t.Error("filesystem errors are not protocol errors")
	}
}

func TestOSErrorKeepsTaxonomy(t *testing.T) {
	inner := alreadyExists("/a")
	if got := osError("/a", inner); got != inner {
		t.Errorf("osError rewrapped a taxonomy error: %v", got)
	}
	if osError("/a", nil) != nil {
		t.Error("osError(nil) should be nil")
	}
}
