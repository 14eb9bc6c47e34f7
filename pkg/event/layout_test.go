package event

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayoutRejectsInvalid(t *testing.T) {
	without := func(id FieldID) []Field {
		var out []Field
		for _, f := range canonicalFields() {
			if f.ID != id {
				out = append(out, f)
			}
		}
		return out
	}

	tests := []struct {
		Name   string
		Order  binary.ByteOrder
		Fields []Field
	}{
		{"nil order", nil, canonicalFields()},
		{"empty", binary.LittleEndian, nil},
		{"missing ret", binary.LittleEndian, without(FieldRet)},
		{"missing args", binary.LittleEndian, without(FieldArg)},
		{"duplicate pid", binary.LittleEndian, append(canonicalFields(), Field{ID: FieldPID, Width: 4})},
		{"duplicate arg", binary.LittleEndian, append(canonicalFields(), Field{ID: FieldArg, Index: 2, Width: 8})},
		{"arg out of range", binary.LittleEndian, append(without(FieldArg)[:6], append(argFields()[:5], Field{ID: FieldArg, Index: NumArgs, Width: 8})...)},
		{"uid too wide", binary.LittleEndian, append([]Field{{ID: FieldUID, Width: 8}}, without(FieldUID)...)},
		{"odd width", binary.LittleEndian, append([]Field{{ID: FieldUID, Width: 3}}, without(FieldUID)...)},
		{"zero width pad", binary.LittleEndian, append(canonicalFields(), Field{ID: FieldPad})},
		{"unknown id", binary.LittleEndian, append(canonicalFields(), Field{ID: FieldRet + 1, Width: 4})},
	}

	for _, test := range tests {
		_, err := NewLayout("test", test.Order, test.Fields)
		assert.Error(t, err, test.Name)
	}
}

func TestNewLayoutNarrowFields(t *testing.T) {
	fields := []Field{
		{ID: FieldSyscallNr, Width: 2},
		{ID: FieldUID, Width: 2},
		{ID: FieldPID, Width: 4},
		{ID: FieldPPID, Width: 4},
		{ID: FieldTID, Width: 4},
		{ID: FieldTimestamp, Width: 8},
		{ID: FieldPad, Width: 3},
		{ID: FieldRet, Width: 1},
	}
	// args in reverse order
	for i := NumArgs - 1; i >= 0; i-- {
		fields = append(fields, Field{ID: FieldArg, Index: i, Width: 4})
	}

	l, err := NewLayout("narrow", binary.LittleEndian, fields)
	require.NoError(t, err)
	assert.Equal(t, 2+2+4+4+4+8+3+1+4*NumArgs, l.Size())

	e := SyscallEvent{
		UID:         7,
		PID:         8,
		SyscallNr:   231,
		SyscallArgs: [NumArgs]uint64{1, 2, 3, 4, 5, 6},
		SyscallRet:  0xff,
	}
	got, err := NewDecoder(l).Decode(l.Encode(e))
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestLayoutFieldsIsACopy(t *testing.T) {
	fields := Canonical.Fields()
	fields[0].Width = 8
	assert.Equal(t, 4, Canonical.Fields()[0].Width)
	assert.Equal(t, 84, Canonical.Size())
}

func TestLayoutByName(t *testing.T) {
	l, err := LayoutByName("", binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, LayoutCanonical, l.Name())
	assert.Equal(t, 84, l.Size())

	l, err = LayoutByName("Aligned", binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, 88, l.Size())
	assert.Equal(t, binary.BigEndian, l.ByteOrder())

	_, err = LayoutByName("v3", binary.LittleEndian)
	assert.Error(t, err)
}

func TestParseByteOrder(t *testing.T) {
	tests := []struct {
		Input string
		Order binary.ByteOrder
		Err   bool
	}{
		{"", binary.LittleEndian, false},
		{"little", binary.LittleEndian, false},
		{"BIG", binary.BigEndian, false},
		{"be", binary.BigEndian, false},
		{"middle", nil, true},
	}
	for _, test := range tests {
		order, err := ParseByteOrder(test.Input)
		if test.Err {
			assert.Error(t, err, test.Input)
			continue
		}
		require.NoError(t, err, test.Input)
		assert.Equal(t, test.Order, order, test.Input)
	}
}
