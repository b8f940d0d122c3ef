package programmer

import "fmt"

// CapacityError indicates that the source image is larger than the device.
// It is returned before any command is sent.
type CapacityError struct {
	Length   uint32
	Capacity uint32
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("image of %d bytes does not fit into %d-byte device",
		e.Length, e.Capacity)
}

// MismatchError indicates that readback verification found a differing
// byte. Scanning stops at the first mismatch; already-written data is left
// on the device.
type MismatchError struct {
	// Offset is the absolute device address of the first differing byte
	Offset uint32

	// Expected is the byte that was written
	Expected byte

	// Actual is the byte read back
	Actual byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verification failed at offset 0x%05x: wrote 0x%02X, read back 0x%02X",
		e.Offset, e.Expected, e.Actual)
}

// TransferError indicates that a command round-trip failed mid-operation.
// The operation is aborted; chunks written before the failure are not
// rolled back.
type TransferError struct {
	// Op names the failed command ("page write", "unlock", ...)
	Op string

	// Offset is the device address the operation had reached
	Offset uint32

	// Err is the underlying cause
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s failed at offset 0x%05x: %v", e.Op, e.Offset, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
