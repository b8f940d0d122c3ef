package link

import (
	"fmt"

	"github.com/tinyprog/go-eeprom/device"
)

// Single-character opcodes understood by the programmer firmware.
const (
	// OpErase erases the whole chip; no address range, one ack
	OpErase byte = 'e'

	// OpRead streams the inclusive address range back, then an ack line
	OpRead byte = 'r'

	// OpPageWrite writes the payload that follows to the inclusive range;
	// the range must not cross a page boundary
	OpPageWrite byte = 'p'

	// OpUnlock disables EEPROM write protection
	OpUnlock byte = 'u'

	// OpLock restores EEPROM write protection
	OpLock byte = 'l'
)

// Link is the capability set the transfer engine needs from the serial
// connection. Implementations frame commands atomically; the engine never
// sees the wire encoding of addresses.
type Link interface {
	// SendCommand frames and sends one command. r is nil for commands
	// that carry no address range (erase, unlock, lock, family select).
	SendCommand(op byte, r *device.Range) error

	// ReadBytes reads up to len(p) bytes of command payload. It may
	// return 0 bytes while the device is still buffering; callers must
	// not treat an empty read as end of stream.
	ReadBytes(p []byte) (int, error)

	// ReadAck blocks until a newline-terminated acknowledgment line is
	// received and returns it with the line ending stripped.
	ReadAck() (string, error)

	// WriteBytes sends raw payload bytes following a page-write command.
	WriteBytes(p []byte) error

	// Close releases the connection. The connection is scoped to one
	// operation; it is closed on every exit path.
	Close() error
}

// FrameCommand returns the wire encoding of a command: "<op> <start> <end>\n"
// with lowercase hex addresses, or "<op>\n" when r is nil.
func FrameCommand(op byte, r *device.Range) []byte {
	if r == nil {
		return []byte{op, '\n'}
	}
	return []byte(fmt.Sprintf("%c %x %x\n", op, r.Start, r.End))
}

// ConnectionError reports that the programmer could not be found or its
// port could not be opened. It is fatal to the requested operation and no
// device state has changed when it is returned.
type ConnectionError struct {
	// Port is the port name tried, or empty when discovery found nothing
	Port string

	// Err is the underlying cause
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("programmer not found: %v", e.Err)
	}
	return fmt.Sprintf("cannot open programmer on %s: %v", e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
