package main

import (
	"context"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/didi/scc/internal/config"
	"github.com/didi/scc/internal/log"
	"github.com/didi/scc/internal/tracer"
	"github.com/didi/scc/pkg/event"
	"github.com/didi/scc/pkg/pidfile"
	"github.com/didi/scc/pkg/record"
	"github.com/didi/scc/pkg/source"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type result struct {
	stats tracer.Stats
	err   error
}

func runTrace(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		log.Error().Err(err).Msg("load config failed")
		return err
	}
	if err := log.InitLogger(cfg.LoggerConfig()); err != nil {
		log.Error().Err(err).Msg("init logger failed")
		return err
	}

	pidFile, err := pidfile.Open(cfg.SCC.PidFile)
	if err != nil {
		log.Error().Err(err).Msg("open pid file failed")
		return err
	}
	defer pidFile.Close()

	if addr := cfg.SCC.ListenAddr; addr != "" {
		go func() {
			err := http.ListenAndServe(addr, nil)
			if err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("http.ListenAndServe")
			}
		}()
	}

	layout, err := cfg.RecordLayout()
	if err != nil {
		return err
	}

	src, err := openSource(cfg)
	if err != nil {
		log.Error().Err(err).Msg("open source failed")
		return err
	}
	defer src.Close()

	writer, closeWriter, err := newWriter(cfg, cmd.OutOrStdout())
	if err != nil {
		log.Error().Err(err).Msg("create writer failed")
		return err
	}
	defer closeWriter()

	filter, err := tracer.NewFilter(cfg.Filter.PIDs, cfg.Filter.UIDs, cfg.Filter.ExcludeSyscalls)
	if err != nil {
		return err
	}
	limits, err := cfg.SyscallLimits()
	if err != nil {
		return err
	}

	stream := tracer.NewStream(src, layout,
		tracer.WithWriter(writer),
		tracer.WithFilter(filter),
		tracer.WithRateLimit(cfg.Limit.Rate, cfg.Limit.Burst),
		tracer.WithSyscallLimits(limits),
		tracer.WithMaxRecords(cfg.SCC.MaxRecords),
	)
	log.Info().Str("layout", layout.String()).Str("source", cfg.SCC.Source).
		Msg("Waiting for events...")

	// Subscribe to signals for terminating the program.
	stopper := make(chan os.Signal, 1)
	signal.Notify(stopper, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopper)
	// a closed stdout must surface as EPIPE from the writer instead of killing the process
	signal.Ignore(syscall.SIGPIPE)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan result, 1)
	go func() {
		stats, err := stream.Run(ctx)
		done <- result{stats: stats, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case sig := <-stopper:
		log.Info().Str("signal", sig.String()).Msg("Exiting...")
		cancel()
		res = awaitStop(done, stream, cfg.SCC.ShutdownTimeout)
	}
	return report(res)
}

// awaitStop waits for a cancelled stream to return. On timeout it reports
// the stats collected so far.
func awaitStop(done <-chan result, stream *tracer.Stream, timeout time.Duration) result {
	select {
	case res := <-done:
		return res
	case <-time.After(timeout):
		// the loop is blocked in a read, the deferred Close releases the source
		log.Warn().Dur("timeout", timeout).Msg("stream did not stop in time")
		return result{stats: stream.Stats()}
	}
}

func openSource(cfg *config.Config) (io.ReadCloser, error) {
	switch cfg.SCC.Source {
	case config.SourceRingbuf:
		return source.OpenRingbuf(cfg.SCC.RingbufPin)
	default:
		return source.OpenDevice(cfg.SCC.Device)
	}
}

func newWriter(cfg *config.Config, stdout io.Writer) (tracer.EventWriter, func(), error) {
	switch cfg.Output.Format {
	case config.FormatLog:
		var (
			w   *tracer.LogWriter
			err error
		)
		if cfg.Log.Dir == "" {
			w, err = tracer.DefaultLogWriter(cfg.Output.SyscallNames)
		} else {
			w, err = tracer.NewLogWriter(&tracer.LogWriterConfig{
				LogDir:       cfg.Log.Dir,
				LogFile:      "events.log",
				AutoClear:    cfg.Log.AutoClear,
				ClearHours:   cfg.Log.ClearHours,
				SyscallNames: cfg.Output.SyscallNames,
			})
		}
		if err != nil {
			return nil, nil, err
		}
		return w, func() { w.Close() }, nil
	case config.FormatThrift:
		if cfg.Output.File == "" {
			return tracer.NewThriftWriter(stdout, cfg.Output.SyscallNames), func() {}, nil
		}
		f, err := os.Create(cfg.Output.File)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create output file")
		}
		return tracer.NewThriftWriter(f, cfg.Output.SyscallNames), func() { f.Close() }, nil
	default:
		return tracer.NewConsoleWriter(stdout, cfg.Output.Indent, cfg.Output.SyscallNames), func() {}, nil
	}
}

// report logs how the stream ended and returns the error to exit with.
func report(res result) error {
	stats, err := res.stats, res.err

	switch {
	case err == nil, errors.Is(err, context.Canceled):
		err = nil
	case errors.Is(err, record.ErrTruncatedRecord):
		log.Warn().Err(err).Msg("stream ended inside a record, partial record dropped")
		err = nil
	case errors.Is(err, event.ErrLayoutMismatch):
		log.Error().Err(err).Msg("record size does not match the layout")
	case errors.Is(err, record.ErrSource):
		log.Error().Err(err).Msg("source failed")
	case errors.Is(err, syscall.EPIPE):
		// the consumer of our output went away
		log.Debug().Err(err).Msg("output closed")
		err = nil
	default:
		log.Error().Err(err).Msg("stream failed")
	}

	log.Info().Str("records", humanize.Comma(int64(stats.Records))).
		Str("written", humanize.Comma(int64(stats.Written))).
		Uint64("filtered", stats.Filtered).
		Uint64("limited", stats.Limited).
		Str("read", humanize.Bytes(stats.Bytes)).
		Msg("stream stopped")
	return err
}
