package tracer

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/didi/scc/internal/log"
	"github.com/didi/scc/pkg/event"
	"github.com/didi/scc/pkg/record"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Stats stream progress
type Stats struct {
	Records  uint64 // decoded records
	Written  uint64 // events handed to the writer
	Filtered uint64 // events dropped by the filter
	Limited  uint64 // events dropped by the rate limiter
	Bytes    uint64 // bytes read from the source
}

// Stream reads records from a source, decodes them and hands the events to
// a writer, one record at a time and in stream order.
type Stream struct {
	options  Options
	reader   *record.Reader
	decoder  *event.Decoder
	limiter  *RateLimiter
	stats    Stats
	lastStat time.Time

	mu       sync.Mutex
	snapshot Stats
}

// NewStream create a stream over src. src is neither opened nor closed by
// the stream.
func NewStream(src io.Reader, layout *event.Layout, options ...Option) *Stream {
	opts := NewDefaultOptions()
	for _, opt := range options {
		opt(opts)
	}

	s := &Stream{
		options: *opts,
		reader:  record.NewReader(src, layout),
		decoder: event.NewDecoder(layout),
	}
	if opts.RateLimit > 0 || len(opts.SyscallLimits) > 0 {
		limit := rate.Inf
		if opts.RateLimit > 0 {
			limit = rate.Limit(opts.RateLimit)
		}
		s.limiter = NewRateLimiter(limit, opts.Burst)
		s.limiter.Reset(opts.SyscallLimits)
	}
	return s
}

// Stats returns the progress so far. It may be called while Run is running.
func (s *Stream) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *Stream) publish() {
	s.mu.Lock()
	s.snapshot = s.stats
	s.mu.Unlock()
}

// Run processes records until the source ends, fails, or ctx is done.
// Cancellation is checked between records only.
//
// Run returns nil when the source ends on a record boundary or MaxRecords is
// reached, ctx.Err() on cancellation, a *record.TruncatedRecordError or
// *record.SourceError from the reader, and a wrapped error when decoding or
// writing fails.
func (s *Stream) Run(ctx context.Context) (Stats, error) {
	s.lastStat = time.Now()
	defer s.publish()
	log.Debug().Int("recordSize", s.reader.Size()).
		Str("layout", s.decoder.Layout().Name()).Msg("stream started")

	for {
		select {
		case <-ctx.Done():
			return s.stats, ctx.Err()
		default:
		}

		if s.options.MaxRecords > 0 && s.stats.Records >= s.options.MaxRecords {
			return s.stats, nil
		}

		buf, err := s.reader.Next()
		s.stats.Bytes = s.reader.Bytes()
		if err != nil {
			if err == io.EOF {
				return s.stats, nil
			}
			return s.stats, err
		}

		e, err := s.decoder.Decode(buf)
		if err != nil {
			return s.stats, errors.Wrapf(err, "decode record %d", s.stats.Records)
		}
		s.stats.Records++

		if err := s.handle(e); err != nil {
			return s.stats, errors.Wrap(err, "write event")
		}
		s.publish()
		s.logStats()
	}
}

func (s *Stream) handle(e event.SyscallEvent) error {
	if !s.options.Filter.Match(&e) {
		s.stats.Filtered++
		return nil
	}
	if s.limiter != nil && !s.limiter.Allow(e.SyscallNr) {
		s.stats.Limited++
		return nil
	}

	if err := s.options.Writer.Write(e); err != nil {
		return err
	}
	s.stats.Written++
	return nil
}

func (s *Stream) logStats() {
	if s.options.StatInterval <= 0 || time.Since(s.lastStat) < s.options.StatInterval {
		return
	}
	s.lastStat = time.Now()
	log.Info().Uint64("records", s.stats.Records).
		Uint64("written", s.stats.Written).
		Uint64("filtered", s.stats.Filtered).
		Uint64("limited", s.stats.Limited).
		Uint64("bytes", s.stats.Bytes).
		Msg("stream stat")
}
