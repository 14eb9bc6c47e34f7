package log

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

type Config struct {
	LogDir     string
	LogPrefix  string
	LogLevel   string
	AutoClear  bool
	ClearHours int
}

var logger = newConsoleLogger(os.Stderr, zerolog.InfoLevel)

// InitLogger init logger. Without a log dir, logs go to stderr.
func InitLogger(config *Config) error {
	lev := strings.ToLower(config.LogLevel)
	l, err := zerolog.ParseLevel(lev)
	if err != nil || lev == "" {
		l = zerolog.InfoLevel
	}

	if config.LogDir == "" {
		logger = newConsoleLogger(os.Stderr, l)
		return nil
	}

	prefix := config.LogPrefix
	if prefix == "" {
		prefix = "scc"
	}

	logDir, err := filepath.Abs(config.LogDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(logDir, 0775); err != nil {
		return err
	}

	clearHours := 0
	if config.AutoClear {
		clearHours = config.ClearHours
	}

	// warnings and errors are also kept in a separate .wf file
	writer := zerolog.MultiLevelWriter(NewRotateFileWriter(logDir, prefix+".log", clearHours),
		&levelFilter{min: zerolog.WarnLevel, w: NewRotateFileWriter(logDir, prefix+".log.wf", clearHours)})
	tmpLogger := zerolog.New(writer).Level(l)
	logger = &tmpLogger
	return nil
}

// SetOutput replaces the logger with one writing JSON lines to w.
func SetOutput(w io.Writer, level zerolog.Level) {
	tmpLogger := zerolog.New(w).Level(level)
	logger = &tmpLogger
}

func newConsoleLogger(w io.Writer, level zerolog.Level) *zerolog.Logger {
	l := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}).Level(level)
	return &l
}

type levelFilter struct {
	min zerolog.Level
	w   io.Writer
}

func (f *levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f *levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}

// frames between zerolog and the code calling the helpers below
const callerSkip = 3

func G() *zerolog.Logger {
	return logger
}

func Fatal() *zerolog.Event {
	return logger.Fatal().Timestamp().Caller(callerSkip - zerolog.CallerSkipFrameCount)
}

func Error() *zerolog.Event {
	return logger.Error().Timestamp().Caller(callerSkip - zerolog.CallerSkipFrameCount)
}

func Warn() *zerolog.Event {
	return logger.Warn().Timestamp().Caller(callerSkip - zerolog.CallerSkipFrameCount)
}

func Info() *zerolog.Event {
	return logger.Info().Timestamp().Caller(callerSkip - zerolog.CallerSkipFrameCount)
}

func Debug() *zerolog.Event {
	return logger.Debug().Timestamp().Caller(callerSkip - zerolog.CallerSkipFrameCount)
}
