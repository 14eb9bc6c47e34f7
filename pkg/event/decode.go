package event

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrLayoutMismatch buffer length differs from the layout size
var ErrLayoutMismatch = errors.New("layout mismatch")

// LayoutMismatchError reports a buffer whose length is not the record size.
type LayoutMismatchError struct {
	Got  int
	Want int
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("%s: buffer is %d bytes, record is %d bytes", ErrLayoutMismatch, e.Got, e.Want)
}

// Is makes errors.Is(err, ErrLayoutMismatch) hold.
func (e *LayoutMismatchError) Is(target error) bool {
	return target == ErrLayoutMismatch
}

// Decoder turns records into events according to a layout.
type Decoder struct {
	layout *Layout
}

// NewDecoder create a decoder for the layout
func NewDecoder(layout *Layout) *Decoder {
	return &Decoder{layout: layout}
}

// Layout returns the layout used by the decoder.
func (d *Decoder) Layout() *Layout {
	return d.layout
}

// Decode decodes one record. buf must be exactly Layout().Size() bytes.
func (d *Decoder) Decode(buf []byte) (SyscallEvent, error) {
	var e SyscallEvent
	if len(buf) != d.layout.size {
		return e, &LayoutMismatchError{Got: len(buf), Want: d.layout.size}
	}

	off := 0
	for _, f := range d.layout.fields {
		if f.ID == FieldPad {
			off += f.Width
			continue
		}

		v := d.readUint(buf[off : off+f.Width])
		off += f.Width

		switch f.ID {
		case FieldUID:
			e.UID = uint32(v)
		case FieldPID:
			e.PID = uint32(v)
		case FieldPPID:
			e.PPID = uint32(v)
		case FieldTID:
			e.TID = uint32(v)
		case FieldTimestamp:
			e.Timestamp = v
		case FieldSyscallNr:
			e.SyscallNr = uint32(v)
		case FieldArg:
			e.SyscallArgs[f.Index] = v
		case FieldRet:
			e.SyscallRet = v
		}
	}
	return e, nil
}

func (d *Decoder) readUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(d.layout.order.Uint16(b))
	case 4:
		return uint64(d.layout.order.Uint32(b))
	default:
		return d.layout.order.Uint64(b)
	}
}
