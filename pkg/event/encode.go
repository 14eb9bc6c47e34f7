package event

// Encode returns the wire form of e.
func (l *Layout) Encode(e SyscallEvent) []byte {
	buf := make([]byte, l.size)
	_ = l.EncodeTo(buf, e)
	return buf
}

// EncodeTo writes the wire form of e into buf, which must be exactly Size()
// bytes. Padding is zeroed. Values wider than their slot are truncated.
func (l *Layout) EncodeTo(buf []byte, e SyscallEvent) error {
	if len(buf) != l.size {
		return &LayoutMismatchError{Got: len(buf), Want: l.size}
	}

	off := 0
	for _, f := range l.fields {
		b := buf[off : off+f.Width]
		off += f.Width

		var v uint64
		switch f.ID {
		case FieldPad:
			for i := range b {
				b[i] = 0
			}
			continue
		case FieldUID:
			v = uint64(e.UID)
		case FieldPID:
			v = uint64(e.PID)
		case FieldPPID:
			v = uint64(e.PPID)
		case FieldTID:
			v = uint64(e.TID)
		case FieldTimestamp:
			v = e.Timestamp
		case FieldSyscallNr:
			v = uint64(e.SyscallNr)
		case FieldArg:
			v = e.SyscallArgs[f.Index]
		case FieldRet:
			v = e.SyscallRet
		}
		l.putUint(b, v)
	}
	return nil
}

func (l *Layout) putUint(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		l.order.PutUint16(b, uint16(v))
	case 4:
		l.order.PutUint32(b, uint32(v))
	default:
		l.order.PutUint64(b, v)
	}
}
