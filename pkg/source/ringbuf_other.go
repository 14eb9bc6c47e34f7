//go:build !linux

package source

import (
	"github.com/pkg/errors"
)

var errRingbufUnsupported = errors.New("ring buffer sources require linux")

// Ringbuf is only available on linux.
type Ringbuf struct{}

// OpenRingbuf always fails outside linux.
func OpenRingbuf(path string) (*Ringbuf, error) {
	return nil, errRingbufUnsupported
}

func (r *Ringbuf) Read(p []byte) (int, error) { return 0, errRingbufUnsupported }

// Close does nothing.
func (r *Ringbuf) Close() error { return nil }
