package programmer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCapacityErrorMessage(t *testing.T) {
	err := &CapacityError{Length: 40000, Capacity: 32768}
	msg := err.Error()

	for _, want := range []string{"40000", "32768", "does not fit"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestMismatchErrorMessage(t *testing.T) {
	err := &MismatchError{Offset: 0x1234, Expected: 0xAB, Actual: 0xCD}
	msg := err.Error()

	for _, want := range []string{"0x01234", "0xAB", "0xCD"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestTransferErrorWrapping(t *testing.T) {
	cause := errors.New("port closed")
	err := &TransferError{Op: "page write", Offset: 0x80, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("TransferError does not unwrap to its cause")
	}

	msg := err.Error()
	for _, want := range []string{"page write", "0x00080", "port closed"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	inner := &MismatchError{Offset: 7, Expected: 1, Actual: 2}
	wrapped := fmt.Errorf("write image: %w", inner)

	var mismatch *MismatchError
	if !errors.As(wrapped, &mismatch) {
		t.Fatal("errors.As failed through wrapping")
	}
	if mismatch.Offset != 7 {
		t.Errorf("offset = %d, want 7", mismatch.Offset)
	}
}
