package link

import (
	"bytes"
	"errors"
	"testing"

	"go.bug.st/serial"

	"github.com/tinyprog/go-eeprom/device"
)

// fakePort scripts the read side of a serial.Port and records writes.
// Each entry in reads is returned by one Read call; an empty entry
// simulates a read timeout (0 bytes, nil error).
type fakePort struct {
	serial.Port
	reads  [][]byte
	idx    int
	writes bytes.Buffer
	closed bool
}

func (f *fakePort) Read(p []byte) (int, error) {
	if f.idx >= len(f.reads) {
		return 0, nil
	}
	n := copy(p, f.reads[f.idx])
	f.idx++
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	return f.writes.Write(p)
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func newFakeSerial(reads ...[]byte) (*Serial, *fakePort) {
	port := &fakePort{reads: reads}
	return &Serial{port: port, name: "fake", buf: make([]byte, readBufferSize)}, port
}

func TestFrameCommand(t *testing.T) {
	tests := []struct {
		name string
		op   byte
		rng  *device.Range
		want string
	}{
		{
			name: "erase carries no range",
			op:   OpErase,
			want: "e\n",
		},
		{
			name: "unlock carries no range",
			op:   OpUnlock,
			want: "u\n",
		},
		{
			name: "page write with range",
			op:   OpPageWrite,
			rng:  &device.Range{Start: 0x10, End: 0x8F},
			want: "p 10 8f\n",
		},
		{
			name: "read from zero",
			op:   OpRead,
			rng:  &device.Range{Start: 0, End: 0x7FFF},
			want: "r 0 7fff\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(FrameCommand(tt.op, tt.rng))
			if got != tt.want {
				t.Errorf("FrameCommand = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSendCommandWritesFrame(t *testing.T) {
	s, port := newFakeSerial()

	if err := s.SendCommand(OpRead, &device.Range{Start: 0, End: 0xFF}); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if got, want := port.writes.String(), "r 0 ff\n"; got != want {
		t.Errorf("wire bytes = %q, want %q", got, want)
	}
}

func TestReadAck(t *testing.T) {
	tests := []struct {
		name  string
		reads [][]byte
		want  string
	}{
		{
			name:  "single read",
			reads: [][]byte{[]byte("OK\n")},
			want:  "OK",
		},
		{
			name:  "crlf stripped",
			reads: [][]byte{[]byte("done\r\n")},
			want:  "done",
		},
		{
			name:  "split across reads with timeouts",
			reads: [][]byte{[]byte("O"), {}, []byte("K"), {}, []byte("\n")},
			want:  "OK",
		},
		{
			name:  "empty ack line",
			reads: [][]byte{[]byte("\n")},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newFakeSerial(tt.reads...)
			got, err := s.ReadAck()
			if err != nil {
				t.Fatalf("ReadAck: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadAck = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadBytes(t *testing.T) {
	s, _ := newFakeSerial([]byte{0x01, 0x02, 0x03}, []byte{}, []byte{0x04})

	buf := make([]byte, 2)
	n, err := s.ReadBytes(buf)
	if err != nil || n != 2 {
		t.Fatalf("ReadBytes = (%d, %v), want (2, nil)", n, err)
	}
	if buf[0] != 0x01 || buf[1] != 0x02 {
		t.Errorf("got %v, want [1 2]", buf[:n])
	}

	// Remainder of the first fill.
	n, err = s.ReadBytes(buf)
	if err != nil || n != 1 || buf[0] != 0x03 {
		t.Fatalf("ReadBytes = (%d, %v) %v, want buffered 0x03", n, err, buf[:n])
	}

	// Timeout surfaces as an empty read, not an error.
	n, err = s.ReadBytes(buf)
	if err != nil || n != 0 {
		t.Fatalf("ReadBytes on quiet port = (%d, %v), want (0, nil)", n, err)
	}

	n, err = s.ReadBytes(buf)
	if err != nil || n != 1 || buf[0] != 0x04 {
		t.Fatalf("ReadBytes = (%d, %v) %v, want 0x04", n, err, buf[:n])
	}
}

// An ack and following payload may arrive in one port read; the payload
// must stay buffered for subsequent ReadBytes calls.
func TestReadAckKeepsRemainder(t *testing.T) {
	s, _ := newFakeSerial([]byte("ready\n\xAA\xBB"))

	ack, err := s.ReadAck()
	if err != nil || ack != "ready" {
		t.Fatalf("ReadAck = (%q, %v)", ack, err)
	}

	buf := make([]byte, 4)
	n, err := s.ReadBytes(buf)
	if err != nil || n != 2 || buf[0] != 0xAA || buf[1] != 0xBB {
		t.Fatalf("ReadBytes after ack = (%d, %v) %v", n, err, buf[:n])
	}
}

func TestClose(t *testing.T) {
	s, port := newFakeSerial()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !port.closed {
		t.Error("underlying port not closed")
	}
}

func TestConnectionError(t *testing.T) {
	_, err := Open("/dev/nonexistent-port-for-test")
	if err == nil {
		t.Skip("unexpectedly opened a port")
	}
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Errorf("Open error type = %T, want *ConnectionError", err)
	}
	if connErr.Port != "/dev/nonexistent-port-for-test" {
		t.Errorf("ConnectionError.Port = %q", connErr.Port)
	}
}
