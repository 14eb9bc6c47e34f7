//go:build linux

package source

import (
	"io"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/ringbuf"
	"github.com/cilium/ebpf/rlimit"
	"github.com/pkg/errors"
)

// Ringbuf exposes the samples of a BPF ring buffer map as a byte stream.
// Each sample is expected to hold whole records.
type Ringbuf struct {
	m       *ebpf.Map
	reader  *ringbuf.Reader
	pending []byte
}

// OpenRingbuf opens the ring buffer map pinned at path.
func OpenRingbuf(path string) (*Ringbuf, error) {
	// Allow the current process to lock memory for eBPF resources.
	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, errors.Wrap(err, "remove memlock")
	}

	m, err := ebpf.LoadPinnedMap(path, &ebpf.LoadPinOptions{ReadOnly: true})
	if err != nil {
		return nil, errors.Wrapf(err, "load pinned map %s", path)
	}
	if m.Type() != ebpf.RingBuf {
		m.Close()
		return nil, errors.Errorf("%s is a %s map, want %s", path, m.Type(), ebpf.RingBuf)
	}

	reader, err := ringbuf.NewReader(m)
	if err != nil {
		m.Close()
		return nil, errors.Wrap(err, "ringbuf.NewReader")
	}
	return &Ringbuf{m: m, reader: reader}, nil
}

// Read copies sample bytes into p, waiting for a new sample when the
// previous one is used up. It returns io.EOF once the reader is closed.
func (r *Ringbuf) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		record, err := r.reader.Read()
		if err != nil {
			if errors.Is(err, ringbuf.ErrClosed) {
				return 0, io.EOF
			}
			return 0, err
		}
		r.pending = record.RawSample
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// Close stops pending reads and releases the map.
func (r *Ringbuf) Close() error {
	err := r.reader.Close()
	if cerr := r.m.Close(); err == nil {
		err = cerr
	}
	return err
}
