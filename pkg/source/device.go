package source

import (
	"os"

	"github.com/pkg/errors"
)

// DefaultDevice character device exposed by the scc kernel module
const DefaultDevice = "/dev/scc"

// OpenDevice opens a device, file or fifo for reading records. The caller
// owns the returned file and must close it.
func OpenDevice(path string) (*os.File, error) {
	if path == "" {
		path = DefaultDevice
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return f, nil
}
