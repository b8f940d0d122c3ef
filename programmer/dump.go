package programmer

import (
	"fmt"
	"io"
)

// dumpRowLen is the number of bytes rendered per dump line.
const dumpRowLen = 16

// dumper renders a byte stream as hexdump rows. It implements io.Writer so
// Read can stream straight into it. Each full row is emitted as
//
//	00010:  10 11 12 13 14 15 16 17 18 19 1a 1b 1c 1d 1e 1f  ................
//
// with printable bytes (0x20-0x7E) shown verbatim in the gutter and
// everything else as '.'. A final partial row pads the hex columns with
// spaces so the gutter stays aligned.
type dumper struct {
	w    io.Writer
	addr uint32
	row  [dumpRowLen]byte
	n    int
}

func newDumper(w io.Writer, start uint32) *dumper {
	return &dumper{w: w, addr: start}
}

func (d *dumper) Write(p []byte) (int, error) {
	written := 0
	for _, b := range p {
		d.row[d.n] = b
		d.n++
		if d.n == dumpRowLen {
			if err := d.emit(); err != nil {
				return written, err
			}
		}
		written++
	}
	return written, nil
}

// Flush emits a pending partial row. Call it after the last Write.
func (d *dumper) Flush() error {
	if d.n == 0 {
		return nil
	}
	return d.emit()
}

func (d *dumper) emit() error {
	line := make([]byte, 0, 80)
	line = append(line, fmt.Sprintf("%05x:  ", d.addr)...)

	for i := 0; i < dumpRowLen; i++ {
		if i < d.n {
			line = append(line, fmt.Sprintf("%02x ", d.row[i])...)
		} else {
			line = append(line, "   "...)
		}
	}
	line = append(line, ' ')

	for i := 0; i < d.n; i++ {
		if d.row[i] >= 0x20 && d.row[i] <= 0x7E {
			line = append(line, d.row[i])
		} else {
			line = append(line, '.')
		}
	}
	line = append(line, '\n')

	if _, err := d.w.Write(line); err != nil {
		return err
	}
	d.addr += uint32(d.n)
	d.n = 0
	return nil
}
