// Package programmer implements the transfer engine for EEPROM/Flash
// programmer boards: it turns "write this image" and "read this range"
// into correctly paged, unlock/lock-bracketed, verified sequences of
// serial commands.
//
// # Overview
//
// The engine drives a link.Link and performs:
//   - Paged writes: page-aligned chunking, EEPROM write-protect bracketing,
//     one blocking command/payload/ack round-trip per chunk
//   - Readback verification: the written range is re-read and compared
//     byte for byte against the source
//   - Ranged reads: streamed into any io.Writer, or rendered as a hexdump
//   - Chip erase: one command, one acknowledgment, no verification
//
// # Basic Usage
//
//	lnk, err := link.Discover()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lnk.Close()
//
//	prog := programmer.New(lnk)
//
//	profile := device.Profile{
//	    Capacity: 32 * 1024,
//	    PageSize: 128,
//	    Family:   device.EEPROM,
//	}
//
//	f, err := os.Open("image.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	n, err := prog.Write(context.Background(), profile, f, uint32(size))
//
// # Progress Tracking
//
// Track transfers with a callback:
//
//	prog := programmer.New(lnk,
//	    programmer.WithProgressCallback(func(p programmer.Progress) {
//	        fmt.Printf("[%s] %.0f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
//
// # Error Handling
//
// The package provides structured error types:
//   - CapacityError: image larger than the device, nothing was sent
//   - MismatchError: verification found a differing byte at a known offset
//   - TransferError: a command round-trip failed mid-operation;
//     already-written chunks remain on the device
//   - link.ConnectionError: the programmer was not found or failed to open
//
// No error is retried inside the engine; the caller decides.
//
// # Concurrency
//
// The engine is strictly synchronous over one serial channel. Callers that
// need a responsive surface run the whole operation on their own goroutine
// and consume Progress callbacks from there. The one in-progress operation
// owns the Link exclusively: open it at entry, close it on every exit path.
package programmer
