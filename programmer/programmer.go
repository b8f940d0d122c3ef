package programmer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tinyprog/go-eeprom/device"
	"github.com/tinyprog/go-eeprom/link"
)

// Programmer orchestrates transfer operations against one device: paged
// writes with unlock/lock bracketing, ranged reads, readback verification
// and chip erase.
//
// A Programmer drives exactly one Link and runs strictly synchronous
// request-response: every command blocks for its acknowledgment before the
// next is sent. It is safe to use from any single goroutine; the Link must
// not be shared with another in-flight operation.
type Programmer struct {
	link   link.Link
	config Config
}

// New creates a Programmer driving the given link.
//
// Example:
//
//	lnk, err := link.Discover()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lnk.Close()
//	prog := programmer.New(lnk,
//	    programmer.WithProgressCallback(progressFunc),
//	)
func New(l link.Link, opts ...Option) *Programmer {
	if l == nil {
		panic("link cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		link:   l,
		config: cfg,
	}
}

// Write programs length bytes from src into the device starting at
// address 0:
//  1. Select the device family for this session.
//  2. For EEPROM, disable write protection.
//  3. Write page-aligned chunks, each a command + payload + ack round-trip.
//  4. For EEPROM, restore write protection.
//  5. Re-read the written range and compare it against src byte for byte
//     (unless disabled with WithVerify(false)).
//
// The capacity precondition is checked before any device interaction.
// Cancellation is honored between chunk round-trips only; once a chunk's
// command is on the wire it is completed, so the channel stays in a known
// state. A transport failure aborts the operation without undoing chunks
// already written.
//
// Returns the number of bytes written, which on success equals length.
func (p *Programmer) Write(ctx context.Context, profile device.Profile, src io.ReadSeeker, length uint32) (uint32, error) {
	if err := profile.Validate(); err != nil {
		return 0, err
	}
	if length > profile.Capacity {
		return 0, &CapacityError{Length: length, Capacity: profile.Capacity}
	}
	if length == 0 {
		return 0, fmt.Errorf("nothing to write")
	}

	startTime := time.Now()
	p.reportProgress(Progress{Phase: PhaseWriting, TotalBytes: length})

	if err := p.roundTrip(profile.Family.Selector(), nil, 0); err != nil {
		return 0, err
	}
	p.logDebug("session selected", "family", profile.Family.String())

	if profile.Family == device.EEPROM {
		if err := p.roundTrip(link.OpUnlock, nil, 0); err != nil {
			return 0, err
		}
		p.logDebug("write protection disabled")
	}

	written, chunkErr := p.writeChunks(ctx, profile, src, length, startTime)

	// Restore write protection before verification: protection state is
	// independent of data correctness, so a verify failure must not leave
	// the device unlocked.
	if chunkErr == nil && profile.Family == device.EEPROM {
		if err := p.roundTrip(link.OpLock, nil, written); err != nil {
			return written, err
		}
		p.logDebug("write protection restored")
	}

	if chunkErr != nil {
		return written, chunkErr
	}

	if p.config.Verify {
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return written, fmt.Errorf("rewind source for verification: %w", err)
		}
		rng := device.Range{Start: 0, End: written - 1}
		if err := p.verify(ctx, rng, src, startTime); err != nil {
			return written, err
		}
	}

	p.reportProgress(Progress{
		Phase:      PhaseComplete,
		Percentage: 100,
		BytesDone:  written,
		TotalBytes: length,
		Elapsed:    time.Since(startTime),
	})
	p.logInfo("write complete",
		"bytes", written,
		"elapsed", time.Since(startTime).String(),
	)

	return written, nil
}

// writeChunks streams length bytes from src as page-aligned chunk
// round-trips. Chunk ranges are contiguous and strictly increasing, and no
// chunk crosses a page boundary.
func (p *Programmer) writeChunks(ctx context.Context, profile device.Profile, src io.Reader, length uint32, startTime time.Time) (uint32, error) {
	buf := make([]byte, profile.PageSize)
	var addr, written uint32
	remaining := length

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("cancelled: %w", err)
		}

		count := device.NextChunk(addr, remaining, profile.PageSize)
		rng := device.Range{Start: addr, End: addr + count - 1}
		chunk := buf[:count]

		if _, err := io.ReadFull(src, chunk); err != nil {
			return written, &TransferError{Op: "read source", Offset: addr, Err: err}
		}
		if err := p.link.SendCommand(link.OpPageWrite, &rng); err != nil {
			return written, &TransferError{Op: "page write", Offset: addr, Err: err}
		}
		if err := p.link.WriteBytes(chunk); err != nil {
			return written, &TransferError{Op: "page write", Offset: addr, Err: err}
		}
		if _, err := p.link.ReadAck(); err != nil {
			return written, &TransferError{Op: "page write", Offset: addr, Err: err}
		}

		addr += count
		written += count
		remaining -= count

		p.reportProgress(Progress{
			Phase:      PhaseWriting,
			Percentage: float64(written) * 100 / float64(length),
			BytesDone:  written,
			TotalBytes: length,
			Elapsed:    time.Since(startTime),
		})
	}

	return written, nil
}

// Read issues one ranged-read command and streams the device's reply into
// dst. Empty reads from the link are skipped, not treated as end of
// stream; after the last byte the trailing acknowledgment is consumed to
// resynchronize the protocol. Returns the number of bytes received.
func (p *Programmer) Read(ctx context.Context, rng device.Range, dst io.Writer) (uint32, error) {
	total := rng.Len()
	startTime := time.Now()
	p.reportProgress(Progress{Phase: PhaseReading, TotalBytes: total})

	if err := p.link.SendCommand(link.OpRead, &rng); err != nil {
		return 0, &TransferError{Op: "read", Offset: rng.Start, Err: err}
	}

	buf := make([]byte, p.config.ReadBufferSize)
	var received uint32

	for received < total {
		if err := ctx.Err(); err != nil {
			return received, fmt.Errorf("cancelled: %w", err)
		}

		n, err := p.pull(buf, total-received)
		if err != nil {
			return received, &TransferError{Op: "read", Offset: rng.Start + received, Err: err}
		}
		if n == 0 {
			continue
		}

		if _, err := dst.Write(buf[:n]); err != nil {
			return received, fmt.Errorf("write output: %w", err)
		}
		received += uint32(n)

		p.reportProgress(Progress{
			Phase:      PhaseReading,
			Percentage: float64(received) * 100 / float64(total),
			BytesDone:  received,
			TotalBytes: total,
			Elapsed:    time.Since(startTime),
		})
	}

	if _, err := p.link.ReadAck(); err != nil {
		return received, &TransferError{Op: "read", Offset: rng.End, Err: err}
	}

	p.logInfo("read complete",
		"range", rng.String(),
		"bytes", received,
		"elapsed", time.Since(startTime).String(),
	)

	return received, nil
}

// Dump reads the range and renders it as a classic hexdump: one line per
// 16-byte row with a 5-hex-digit offset, the byte values in hex and a
// printable-ASCII gutter.
func (p *Programmer) Dump(ctx context.Context, rng device.Range, out io.Writer) error {
	d := newDumper(out, rng.Start)
	if _, err := p.Read(ctx, rng, d); err != nil {
		return err
	}
	return d.Flush()
}

// Erase issues the chip-erase command and waits for its acknowledgment.
// The protocol has no erase-verified signal: success is assumed, and the
// caller should advise re-reading the device to confirm (all bytes 0xFF).
func (p *Programmer) Erase(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}

	startTime := time.Now()
	p.reportProgress(Progress{Phase: PhaseErasing})

	if err := p.roundTrip(link.OpErase, nil, 0); err != nil {
		return err
	}

	p.reportProgress(Progress{
		Phase:      PhaseComplete,
		Percentage: 100,
		Elapsed:    time.Since(startTime),
	})
	p.logInfo("chip erase acknowledged", "elapsed", time.Since(startTime).String())

	return nil
}

// verify re-reads exactly the written range and compares it byte for byte
// against expected, in order. It returns a MismatchError for the first
// differing byte and stops scanning immediately; the channel state is
// considered invalid from that point and the stream is not drained, so the
// caller must close the link rather than issue further commands.
func (p *Programmer) verify(ctx context.Context, rng device.Range, expected io.Reader, startTime time.Time) error {
	total := rng.Len()
	p.reportProgress(Progress{Phase: PhaseVerifying, TotalBytes: total})

	if err := p.link.SendCommand(link.OpRead, &rng); err != nil {
		return &TransferError{Op: "verify", Offset: rng.Start, Err: err}
	}

	got := make([]byte, p.config.ReadBufferSize)
	want := make([]byte, p.config.ReadBufferSize)
	var checked uint32

	for checked < total {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		n, err := p.pull(got, total-checked)
		if err != nil {
			return &TransferError{Op: "verify", Offset: rng.Start + checked, Err: err}
		}
		if n == 0 {
			continue
		}

		if _, err := io.ReadFull(expected, want[:n]); err != nil {
			return fmt.Errorf("read expected data: %w", err)
		}
		for i := 0; i < n; i++ {
			if got[i] != want[i] {
				return &MismatchError{
					Offset:   rng.Start + checked + uint32(i),
					Expected: want[i],
					Actual:   got[i],
				}
			}
		}
		checked += uint32(n)

		p.reportProgress(Progress{
			Phase:      PhaseVerifying,
			Percentage: float64(checked) * 100 / float64(total),
			BytesDone:  checked,
			TotalBytes: total,
			Elapsed:    time.Since(startTime),
		})
	}

	if _, err := p.link.ReadAck(); err != nil {
		return &TransferError{Op: "verify", Offset: rng.End, Err: err}
	}

	p.logDebug("verification passed", "range", rng.String())
	return nil
}

// pull reads up to remaining bytes into buf. May return 0 bytes while the
// device is still buffering.
func (p *Programmer) pull(buf []byte, remaining uint32) (int, error) {
	n := uint32(len(buf))
	if remaining < n {
		n = remaining
	}
	return p.link.ReadBytes(buf[:n])
}

// roundTrip sends one command and consumes its acknowledgment.
func (p *Programmer) roundTrip(op byte, rng *device.Range, offset uint32) error {
	if err := p.link.SendCommand(op, rng); err != nil {
		return &TransferError{Op: opName(op), Offset: offset, Err: err}
	}
	if _, err := p.link.ReadAck(); err != nil {
		return &TransferError{Op: opName(op), Offset: offset, Err: err}
	}
	return nil
}

func opName(op byte) string {
	switch op {
	case link.OpErase:
		return "erase"
	case link.OpRead:
		return "read"
	case link.OpPageWrite:
		return "page write"
	case link.OpUnlock:
		return "unlock"
	case link.OpLock:
		return "lock"
	case 'E', 'F':
		return "select family"
	default:
		return fmt.Sprintf("command %q", op)
	}
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}
