package pidfile

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrLocked another process holds the pid file
var ErrLocked = errors.New("pid file is locked")

// PidFile pid file
type PidFile struct {
	path string
	lock *flock.Flock
}

// Open locks the pid file at path and writes the current pid into it.
// It fails with ErrLocked if another process holds the lock.
func Open(path string) (*PidFile, error) {
	f := &PidFile{
		path: path,
		lock: flock.New(path),
	}

	ok, err := f.lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "lock %s", path)
	}
	if !ok {
		if pid, err := ReadPid(path); err == nil {
			return nil, errors.Wrapf(ErrLocked, "%s is held by pid %d", path, pid)
		}
		return nil, errors.Wrapf(ErrLocked, "%s was locked, another process may be started", path)
	}

	if err := f.writePid(); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Path returns the pid file path.
func (f *PidFile) Path() string {
	return f.path
}

// Close removes the pid file and releases the lock.
func (f *PidFile) Close() {
	if f.lock == nil {
		return
	}
	os.Remove(f.path)
	f.lock.Close()
	f.lock = nil
}

// writePid writes through the descriptor that holds the lock
func (f *PidFile) writePid() error {
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	defer file.Close()

	str := strconv.Itoa(os.Getpid())
	n, err := file.Write([]byte(str))
	if err != nil {
		return err
	}
	if n != len(str) {
		return io.ErrShortWrite
	}
	return nil
}

// ReadPid returns the pid stored in the file at path.
func ReadPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
