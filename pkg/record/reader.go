package record

import (
	"io"

	"github.com/didi/scc/pkg/event"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// maxEmptyReads consecutive (0, nil) reads tolerated before giving up
const maxEmptyReads = 100

// Reader reads fixed-size records from a byte stream. It never opens or
// closes the underlying source.
type Reader struct {
	src     io.Reader
	buf     []byte
	records uint64
	bytes   uint64
	err     error
	pending error // source error seen while completing the last record
}

// NewReader create a reader of layout.Size() byte records.
func NewReader(src io.Reader, layout *event.Layout) *Reader {
	return &Reader{
		src: src,
		buf: make([]byte, layout.Size()),
	}
}

// Size returns the record size.
func (r *Reader) Size() int {
	return len(r.buf)
}

// Records returns the number of full records read so far.
func (r *Reader) Records() uint64 {
	return r.records
}

// Bytes returns the number of bytes consumed so far, partial records included.
func (r *Reader) Bytes() uint64 {
	return r.bytes
}

// Next reads the next record. The returned slice is exactly Size() bytes and
// is only valid until the next call.
//
// Next returns io.EOF when the stream ends on a record boundary, a
// *TruncatedRecordError when it ends inside a record and a *SourceError when
// the source fails. After an error every call returns the same error.
func (r *Reader) Next() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.pending != nil {
		r.err = &SourceError{Err: r.pending, Records: r.records}
		r.pending = nil
		return nil, r.err
	}

	n, err := r.fill()
	r.bytes += uint64(n)
	if err == nil {
		r.records++
		return r.buf, nil
	}

	switch {
	case err == io.EOF && n == 0:
		r.err = io.EOF
	case err == io.EOF:
		r.err = &TruncatedRecordError{Partial: n, Size: len(r.buf), Records: r.records}
	default:
		r.err = &SourceError{Err: err, Records: r.records}
	}
	return nil, r.err
}

// fill reads until the buffer is full. It returns io.EOF if the source ended
// or stalled before that, whatever the number of bytes read. A source error
// returned with the last bytes of a record is kept for the next call.
func (r *Reader) fill() (int, error) {
	n, empty := 0, 0
	for n < len(r.buf) {
		m, err := r.src.Read(r.buf[n:])
		n += m

		if err != nil {
			if isTransient(err) {
				continue
			}
			eof := err == io.EOF || err == io.ErrUnexpectedEOF
			if n == len(r.buf) {
				// a full record with the final read, the error shows up on the next call
				if !eof {
					r.pending = errors.Wrap(err, "read record")
				}
				return n, nil
			}
			if eof {
				return n, io.EOF
			}
			return n, errors.Wrap(err, "read record")
		}

		if m > 0 {
			empty = 0
			continue
		}
		empty++
		if empty >= maxEmptyReads {
			if n > 0 {
				return n, io.EOF
			}
			return n, io.ErrNoProgress
		}
	}
	return n, nil
}

func isTransient(err error) bool {
	return errors.Is(err, unix.EINTR)
}
