package device

import (
	"fmt"
	"strconv"
	"strings"
)

// Family identifies the device family being programmed.
// The family decides the write-session preamble: EEPROM devices need the
// write-protect unlocked before paged writes and locked again afterwards,
// Flash devices do not.
type Family int

const (
	// EEPROM is a byte/page-writable device with software write protection.
	EEPROM Family = iota

	// Flash is a device without the unlock/lock bracket.
	Flash
)

// Selector returns the session-selector opcode character sent to the
// programmer before a write session ('E' or 'F').
func (f Family) Selector() byte {
	if f == Flash {
		return 'F'
	}
	return 'E'
}

func (f Family) String() string {
	if f == Flash {
		return "flash"
	}
	return "eeprom"
}

// ParseFamily parses a device family name ("eeprom" or "flash",
// case-insensitive).
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(s) {
	case "eeprom":
		return EEPROM, nil
	case "flash":
		return Flash, nil
	}
	return 0, fmt.Errorf("unknown device family %q (want eeprom or flash)", s)
}

// Profile describes one device's geometry. It is supplied fresh by the
// caller for every operation and never mutated by the engine.
type Profile struct {
	// Capacity is the device size in bytes
	Capacity uint32

	// PageSize is the write-page size in bytes; must be a power of two
	// no larger than Capacity
	PageSize uint32

	// Family selects the write-session preamble
	Family Family
}

// Validate checks the geometry invariants: Capacity >= 1 and PageSize a
// power of two in [1, Capacity].
func (p Profile) Validate() error {
	if p.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1 byte, got %d", p.Capacity)
	}
	if p.PageSize < 1 || p.PageSize > p.Capacity {
		return fmt.Errorf("page size %d out of range [1, %d]", p.PageSize, p.Capacity)
	}
	if p.PageSize&(p.PageSize-1) != 0 {
		return fmt.Errorf("page size %d is not a power of two", p.PageSize)
	}
	return nil
}

// Range is an inclusive address range on the device.
type Range struct {
	Start uint32
	End   uint32
}

// Len returns the number of bytes the range covers.
func (r Range) Len() uint32 {
	return r.End - r.Start + 1
}

func (r Range) String() string {
	return fmt.Sprintf("0x%05x-0x%05x", r.Start, r.End)
}

// capacityNames is the fixed size menu of the original programmer UI.
var capacityNames = []string{
	"1k", "2k", "4k", "8k", "16k", "32k", "64k", "128k", "256k", "512k", "1M",
}

// Capacities returns the enumerated capacity names accepted by
// ParseCapacity, smallest first.
func Capacities() []string {
	out := make([]string, len(capacityNames))
	copy(out, capacityNames)
	return out
}

// ParseCapacity parses a capacity given as a plain byte count ("8192") or
// with a k/M suffix ("8k", "1M").
func ParseCapacity(s string) (uint32, error) {
	if s == "" {
		return 0, fmt.Errorf("empty capacity")
	}

	mult := uint64(1)
	num := s
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1024
		num = s[:len(s)-1]
	case 'M':
		mult = 1024 * 1024
		num = s[:len(s)-1]
	}

	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid capacity %q: %w", s, err)
	}

	total := n * mult
	if total < 1 || total > 1<<32-1 {
		return 0, fmt.Errorf("capacity %q out of range", s)
	}
	return uint32(total), nil
}

// PageSizes returns the enumerated page sizes of the original programmer
// UI: powers of two from 1 to 4096 bytes.
func PageSizes() []uint32 {
	sizes := make([]uint32, 0, 13)
	for p := uint32(1); p <= 4096; p <<= 1 {
		sizes = append(sizes, p)
	}
	return sizes
}

// ParsePageSize parses a page size in bytes and checks it against the
// supported power-of-two set.
func ParsePageSize(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid page size %q: %w", s, err)
	}
	p := uint32(n)
	if p < 1 || p > 4096 || p&(p-1) != 0 {
		return 0, fmt.Errorf("page size %d not supported (want a power of two between 1 and 4096)", p)
	}
	return p, nil
}
