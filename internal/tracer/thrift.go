package tracer

import (
	"context"
	"io"

	"github.com/didi/scc/pkg/event"
	"github.com/didi/scc/pkg/syscalls"

	"github.com/apache/thrift/lib/go/thrift"
)

// thrift field ids of a SyscallEvent struct
const (
	thriftUID int16 = iota + 1
	thriftPID
	thriftPPID
	thriftTID
	thriftTimestamp
	thriftSyscallNr
	thriftSyscallArgs
	thriftSyscallRet
	thriftSyscallName
)

// ThriftWriter writes events as thrift compact-protocol structs. Unsigned
// values are stored as i64 with the same bits.
type ThriftWriter struct {
	proto thrift.TProtocol
	names bool
}

// NewThriftWriter create a thrift writer over w.
func NewThriftWriter(w io.Writer, names bool) *ThriftWriter {
	trans := thrift.NewStreamTransportW(w)
	return &ThriftWriter{
		proto: thrift.NewTCompactProtocolConf(trans, &thrift.TConfiguration{}),
		names: names,
	}
}

func (w *ThriftWriter) Write(e event.SyscallEvent) error {
	ctx := context.Background()
	p := w.proto

	if err := p.WriteStructBegin(ctx, "SyscallEvent"); err != nil {
		return err
	}
	fields := []struct {
		id    int16
		name  string
		value uint64
	}{
		{thriftUID, "uid", uint64(e.UID)},
		{thriftPID, "pid", uint64(e.PID)},
		{thriftPPID, "ppid", uint64(e.PPID)},
		{thriftTID, "tid", uint64(e.TID)},
		{thriftTimestamp, "timestamp", e.Timestamp},
		{thriftSyscallNr, "syscall_nr", uint64(e.SyscallNr)},
		{thriftSyscallRet, "syscall_ret", e.SyscallRet},
	}
	for _, f := range fields {
		if err := writeI64Field(ctx, p, f.name, f.id, f.value); err != nil {
			return err
		}
	}

	if err := p.WriteFieldBegin(ctx, "syscall_args", thrift.LIST, thriftSyscallArgs); err != nil {
		return err
	}
	if err := p.WriteListBegin(ctx, thrift.I64, len(e.SyscallArgs)); err != nil {
		return err
	}
	for _, arg := range e.SyscallArgs {
		if err := p.WriteI64(ctx, int64(arg)); err != nil {
			return err
		}
	}
	if err := p.WriteListEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}

	if w.names {
		if err := p.WriteFieldBegin(ctx, "syscall_name", thrift.STRING, thriftSyscallName); err != nil {
			return err
		}
		if err := p.WriteString(ctx, syscalls.Name(e.SyscallNr)); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}

	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	if err := p.WriteStructEnd(ctx); err != nil {
		return err
	}
	return p.Flush(ctx)
}

func writeI64Field(ctx context.Context, p thrift.TProtocol, name string, id int16, v uint64) error {
	if err := p.WriteFieldBegin(ctx, name, thrift.I64, id); err != nil {
		return err
	}
	if err := p.WriteI64(ctx, int64(v)); err != nil {
		return err
	}
	return p.WriteFieldEnd(ctx)
}

// ReadThriftEvent reads one event written by ThriftWriter. Unknown fields are
// skipped.
func ReadThriftEvent(ctx context.Context, p thrift.TProtocol) (event.SyscallEvent, string, error) {
	var (
		e    event.SyscallEvent
		name string
	)
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return e, "", err
	}
	for {
		_, typeID, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return e, "", err
		}
		if typeID == thrift.STOP {
			break
		}

		switch {
		case id == thriftSyscallArgs && typeID == thrift.LIST:
			_, size, err := p.ReadListBegin(ctx)
			if err != nil {
				return e, "", err
			}
			for i := 0; i < size; i++ {
				v, err := p.ReadI64(ctx)
				if err != nil {
					return e, "", err
				}
				if i < len(e.SyscallArgs) {
					e.SyscallArgs[i] = uint64(v)
				}
			}
			if err := p.ReadListEnd(ctx); err != nil {
				return e, "", err
			}
		case id == thriftSyscallName && typeID == thrift.STRING:
			if name, err = p.ReadString(ctx); err != nil {
				return e, "", err
			}
		case typeID == thrift.I64:
			v, err := p.ReadI64(ctx)
			if err != nil {
				return e, "", err
			}
			setThriftField(&e, id, uint64(v))
		default:
			if err := p.Skip(ctx, typeID); err != nil {
				return e, "", err
			}
		}

		if err := p.ReadFieldEnd(ctx); err != nil {
			return e, "", err
		}
	}
	return e, name, p.ReadStructEnd(ctx)
}

func setThriftField(e *event.SyscallEvent, id int16, v uint64) {
	switch id {
	case thriftUID:
		e.UID = uint32(v)
	case thriftPID:
		e.PID = uint32(v)
	case thriftPPID:
		e.PPID = uint32(v)
	case thriftTID:
		e.TID = uint32(v)
	case thriftTimestamp:
		e.Timestamp = v
	case thriftSyscallNr:
		e.SyscallNr = uint32(v)
	case thriftSyscallRet:
		e.SyscallRet = v
	}
}
