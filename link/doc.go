// Package link owns the serial connection to the programmer and the wire
// encoding of its commands.
//
// The engine depends only on the Link interface, so a fake link is enough
// to exercise every transfer path without hardware. The wire format is
// line-oriented ASCII: a single-character opcode, optionally followed by
// the inclusive start and end address in hex, terminated by a newline.
// Acknowledgments are newline-terminated lines sent by the programmer
// after it completes a command.
//
// Serial is the production implementation on top of go.bug.st/serial.
// Open connects to a named port; Discover scans USB serial adapters for
// the programmer's VID/PID.
package link
