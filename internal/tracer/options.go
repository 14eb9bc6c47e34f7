package tracer

import (
	"os"
	"time"
)

// Option sets option for stream
type Option func(opts *Options)

// Options saves options for stream
type Options struct {
	Writer        EventWriter
	Filter        *Filter
	RateLimit     float64
	Burst         int
	SyscallLimits map[uint32]float64
	MaxRecords    uint64
	StatInterval  time.Duration
}

// NewDefaultOptions create a default options.
func NewDefaultOptions() *Options {
	return &Options{
		Writer:       NewConsoleWriter(os.Stdout, "    ", true),
		Burst:        10,
		StatInterval: 10 * time.Second,
	}
}

// WithWriter sets Writer
func WithWriter(w EventWriter) Option {
	return func(opts *Options) {
		opts.Writer = w
	}
}

// WithFilter sets Filter
func WithFilter(f *Filter) Option {
	return func(opts *Options) {
		opts.Filter = f
	}
}

// WithRateLimit sets the per-syscall rate limit, 0 disables it
func WithRateLimit(limit float64, burst int) Option {
	return func(opts *Options) {
		opts.RateLimit = limit
		opts.Burst = burst
	}
}

// WithSyscallLimits sets events/second for single syscalls, 0 drops the
// syscall. Other syscalls keep the RateLimit.
func WithSyscallLimits(limits map[uint32]float64) Option {
	return func(opts *Options) {
		opts.SyscallLimits = limits
	}
}

// WithMaxRecords sets MaxRecords, 0 means unlimited
func WithMaxRecords(max uint64) Option {
	return func(opts *Options) {
		opts.MaxRecords = max
	}
}

// WithStatInterval sets StatInterval, 0 disables periodic stat logs
func WithStatInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.StatInterval = interval
	}
}
