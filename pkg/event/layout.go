package event

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldID identifies the event field a layout slot is decoded into.
type FieldID uint8

const (
	// FieldPad bytes skipped by the decoder
	FieldPad FieldID = iota
	// FieldUID effective uid
	FieldUID
	// FieldPID process id
	FieldPID
	// FieldPPID parent process id
	FieldPPID
	// FieldTID thread id
	FieldTID
	// FieldTimestamp nanosecond timestamp
	FieldTimestamp
	// FieldSyscallNr syscall number
	FieldSyscallNr
	// FieldArg one syscall argument word, Field.Index selects which
	FieldArg
	// FieldRet syscall return value
	FieldRet
)

var fieldNames = [...]string{
	FieldPad:       "pad",
	FieldUID:       "uid",
	FieldPID:       "pid",
	FieldPPID:      "ppid",
	FieldTID:       "tid",
	FieldTimestamp: "timestamp",
	FieldSyscallNr: "syscall_nr",
	FieldArg:       "syscall_args",
	FieldRet:       "syscall_ret",
}

func (id FieldID) String() string {
	if int(id) < len(fieldNames) {
		return fieldNames[id]
	}
	return fmt.Sprintf("field(%d)", uint8(id))
}

// maxWidth size in bytes of the Go type backing the field
func (id FieldID) maxWidth() int {
	switch id {
	case FieldUID, FieldPID, FieldPPID, FieldTID, FieldSyscallNr:
		return 4
	case FieldTimestamp, FieldArg, FieldRet:
		return 8
	default:
		return 0
	}
}

// Field one slot of a record layout.
type Field struct {
	ID    FieldID
	Index int // argument index, only for FieldArg
	Width int // bytes
}

func (f Field) String() string {
	if f.ID == FieldArg {
		return fmt.Sprintf("%s[%d]:%d", f.ID, f.Index, f.Width)
	}
	return fmt.Sprintf("%s:%d", f.ID, f.Width)
}

// Layout describes how a record is laid out on the wire. A Layout is built
// once and never modified.
type Layout struct {
	name   string
	order  binary.ByteOrder
	fields []Field
	size   int
}

var (
	errNilByteOrder = errors.New("byte order is required")
	errNoFields     = errors.New("layout has no fields")
)

// NewLayout validates fields and returns a layout decoding them in order.
func NewLayout(name string, order binary.ByteOrder, fields []Field) (*Layout, error) {
	if order == nil {
		return nil, errNilByteOrder
	}
	if len(fields) == 0 {
		return nil, errNoFields
	}

	seen := map[FieldID]bool{}
	var args [NumArgs]bool
	size := 0
	for i, f := range fields {
		if f.Width <= 0 {
			return nil, errors.Errorf("field %d (%s): width must be positive", i, f)
		}
		size += f.Width

		if f.ID == FieldPad {
			continue
		}
		if f.ID > FieldRet {
			return nil, errors.Errorf("field %d: unknown field id %d", i, f.ID)
		}
		if !validWidth(f.Width) || f.Width > f.ID.maxWidth() {
			return nil, errors.Errorf("field %d (%s): unsupported width", i, f)
		}

		if f.ID == FieldArg {
			if f.Index < 0 || f.Index >= NumArgs {
				return nil, errors.Errorf("field %d (%s): argument index out of range", i, f)
			}
			if args[f.Index] {
				return nil, errors.Errorf("field %d (%s): duplicate argument", i, f)
			}
			args[f.Index] = true
			continue
		}

		if seen[f.ID] {
			return nil, errors.Errorf("field %d (%s): duplicate field", i, f)
		}
		seen[f.ID] = true
	}

	for id := FieldUID; id <= FieldRet; id++ {
		if id != FieldArg && !seen[id] {
			return nil, errors.Errorf("missing field %s", id)
		}
	}
	for i, ok := range args {
		if !ok {
			return nil, errors.Errorf("missing argument %d", i)
		}
	}

	l := &Layout{
		name:   name,
		order:  order,
		fields: make([]Field, len(fields)),
		size:   size,
	}
	copy(l.fields, fields)
	return l, nil
}

func validWidth(w int) bool {
	return w == 1 || w == 2 || w == 4 || w == 8
}

// MustLayout is like NewLayout but panics on an invalid definition.
func MustLayout(name string, order binary.ByteOrder, fields []Field) *Layout {
	l, err := NewLayout(name, order, fields)
	if err != nil {
		panic(err)
	}
	return l
}

// Name returns the layout name.
func (l *Layout) Name() string { return l.name }

// ByteOrder returns the byte order of every field.
func (l *Layout) ByteOrder() binary.ByteOrder { return l.order }

// Size returns the record size in bytes.
func (l *Layout) Size() int { return l.size }

// Fields returns a copy of the field list.
func (l *Layout) Fields() []Field {
	fields := make([]Field, len(l.fields))
	copy(fields, l.fields)
	return fields
}

func (l *Layout) String() string {
	parts := make([]string, 0, len(l.fields))
	for _, f := range l.fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s(%s, %d bytes: %s)", l.name, l.order, l.size, strings.Join(parts, " "))
}

const (
	// LayoutCanonical packed layout, 84 bytes
	LayoutCanonical = "canonical"
	// LayoutAligned natural C alignment of struct event_schema, 88 bytes
	LayoutAligned = "aligned"
)

func headerFields() []Field {
	return []Field{
		{ID: FieldUID, Width: 4},
		{ID: FieldPID, Width: 4},
		{ID: FieldPPID, Width: 4},
		{ID: FieldTID, Width: 4},
		{ID: FieldTimestamp, Width: 8},
		{ID: FieldSyscallNr, Width: 4},
	}
}

func argFields() []Field {
	fields := make([]Field, NumArgs)
	for i := range fields {
		fields[i] = Field{ID: FieldArg, Index: i, Width: 8}
	}
	return fields
}

func canonicalFields() []Field {
	fields := headerFields()
	fields = append(fields, argFields()...)
	return append(fields, Field{ID: FieldRet, Width: 8})
}

func alignedFields() []Field {
	fields := headerFields()
	// syscall_args is 8-byte aligned
	fields = append(fields, Field{ID: FieldPad, Width: 4})
	fields = append(fields, argFields()...)
	return append(fields, Field{ID: FieldRet, Width: 8})
}

var (
	// Canonical the default record layout, little-endian
	Canonical = MustLayout(LayoutCanonical, binary.LittleEndian, canonicalFields())
	// Aligned the padded record layout, little-endian
	Aligned = MustLayout(LayoutAligned, binary.LittleEndian, alignedFields())
)

// ParseByteOrder parses "little" or "big".
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "", "little", "le", "little-endian":
		return binary.LittleEndian, nil
	case "big", "be", "big-endian":
		return binary.BigEndian, nil
	default:
		return nil, errors.Errorf("unknown byte order %q", s)
	}
}

// LayoutByName returns a predefined layout decoded with the given byte order.
func LayoutByName(name string, order binary.ByteOrder) (*Layout, error) {
	switch strings.ToLower(name) {
	case "", LayoutCanonical:
		return NewLayout(LayoutCanonical, order, canonicalFields())
	case LayoutAligned:
		return NewLayout(LayoutAligned, order, alignedFields())
	default:
		return nil, errors.Errorf("unknown layout %q", name)
	}
}
