package record

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrTruncatedRecord the stream ended in the middle of a record
	ErrTruncatedRecord = errors.New("truncated record")
	// ErrSource the input source failed
	ErrSource = errors.New("source error")
)

// TruncatedRecordError is returned when the stream ends after a partial
// record. The partial bytes are discarded.
type TruncatedRecordError struct {
	Partial int    // bytes of the incomplete record
	Size    int    // record size
	Records uint64 // full records read before it
}

func (e *TruncatedRecordError) Error() string {
	return fmt.Sprintf("%s: stream ended after %d of %d bytes, %d full records read",
		ErrTruncatedRecord, e.Partial, e.Size, e.Records)
}

// Is makes errors.Is(err, ErrTruncatedRecord) hold.
func (e *TruncatedRecordError) Is(target error) bool {
	return target == ErrTruncatedRecord
}

// SourceError wraps a non-transient failure of the input source.
type SourceError struct {
	Err     error
	Records uint64
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s after %d records: %v", ErrSource, e.Records, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSource) hold.
func (e *SourceError) Is(target error) bool {
	return target == ErrSource
}
