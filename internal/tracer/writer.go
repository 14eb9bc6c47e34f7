package tracer

import (
	"io"
	"os"

	"github.com/didi/scc/internal/log"
	"github.com/didi/scc/pkg/event"
	"github.com/didi/scc/pkg/syscalls"

	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventWriter receives decoded events. Events are passed by value, writers
// may keep them.
type EventWriter interface {
	Write(e event.SyscallEvent) error
}

type plainEvent event.SyscallEvent

// namedEvent adds the syscall name to the JSON output
type namedEvent struct {
	plainEvent
	SyscallName string `json:"syscall_name,omitempty"`
}

func newNamedEvent(e event.SyscallEvent, names bool) namedEvent {
	ne := namedEvent{plainEvent: plainEvent(e)}
	if names {
		ne.SyscallName = syscalls.Name(e.SyscallNr)
	}
	return ne
}

// ConsoleWriter writes one indented JSON document per event.
type ConsoleWriter struct {
	w      io.Writer
	indent string
	names  bool
}

// NewConsoleWriter create a console writer, an empty indent writes one
// compact line per event.
func NewConsoleWriter(w io.Writer, indent string, names bool) *ConsoleWriter {
	return &ConsoleWriter{w: w, indent: indent, names: names}
}

func (w *ConsoleWriter) Write(e event.SyscallEvent) error {
	var (
		data []byte
		err  error
	)
	ne := newNamedEvent(e, w.names)
	if w.indent == "" {
		data, err = json.Marshal(ne)
	} else {
		data, err = json.MarshalIndent(ne, "", w.indent)
	}
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = w.w.Write(data)
	return err
}

// OpType for the log consumer
type OpType int

const (
	OpIndex OpType = 100001
)

// LogWriter writes events as JSON lines into hourly rotated files.
type LogWriter struct {
	logger zerolog.Logger
	file   *log.RotateFileWriter
	names  bool
}

// DefaultLogDir directory of the default log writer
const DefaultLogDir = "./log/"

type LogWriterConfig struct {
	LogDir       string
	LogFile      string
	AutoClear    bool
	ClearHours   int
	SyscallNames bool
}

// DefaultLogWriter writes events.log under ./log/, keeping four hours of files.
func DefaultLogWriter(names bool) (*LogWriter, error) {
	cfg := LogWriterConfig{
		LogDir:       DefaultLogDir,
		LogFile:      "events.log",
		AutoClear:    true,
		ClearHours:   4,
		SyscallNames: names,
	}
	return NewLogWriter(&cfg)
}

func NewLogWriter(cfg *LogWriterConfig) (*LogWriter, error) {
	err := os.MkdirAll(cfg.LogDir, 0755)
	if err != nil {
		return nil, err
	}

	clearHours := 0
	if cfg.AutoClear {
		clearHours = cfg.ClearHours
	}

	file := log.NewRotateFileWriter(cfg.LogDir, cfg.LogFile, clearHours)
	return &LogWriter{
		logger: zerolog.New(file),
		file:   file,
		names:  cfg.SyscallNames,
	}, nil
}

func (w *LogWriter) Write(e event.SyscallEvent) error {
	data, err := json.Marshal(newNamedEvent(e, w.names))
	if err != nil {
		return err
	}
	w.logger.Log().Int("operate", int(OpIndex)).RawJSON("data", data).Msg("")
	return nil
}

// Close closes the current log file.
func (w *LogWriter) Close() error {
	return w.file.Close()
}

// MultiWriter hands each event to every writer in turn.
type MultiWriter []EventWriter

func (m MultiWriter) Write(e event.SyscallEvent) error {
	var result *multierror.Error
	for _, w := range m {
		if err := w.Write(e); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// WriterFunc adapts a function to EventWriter.
type WriterFunc func(e event.SyscallEvent) error

func (f WriterFunc) Write(e event.SyscallEvent) error {
	return f(e)
}
