// Package device describes the geometry of the memory chip being
// programmed: capacity, page size and device family.
//
// A Profile is immutable for the duration of one operation and is passed
// explicitly into every engine call; nothing in this package touches
// hardware. NextChunk implements the page-aligned chunking rule that
// paged-write hardware requires.
//
// Example:
//
//	profile := device.Profile{
//	    Capacity: 32 * 1024,
//	    PageSize: 64,
//	    Family:   device.EEPROM,
//	}
//	if err := profile.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package device
