package tracer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/didi/scc/pkg/event"

	"github.com/apache/thrift/lib/go/thrift"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

var readEvent = event.SyscallEvent{
	UID:         1000,
	PID:         42,
	PPID:        1,
	TID:         42,
	Timestamp:   1700000000000000000,
	SyscallNr:   0,
	SyscallArgs: [event.NumArgs]uint64{3, 0, 0, 0, 0, 0},
	SyscallRet:  128,
}

func TestConsoleWriterIndented(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleWriter(&buf, "    ", true).Write(readEvent))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n    \"uid\": 1000,"), out)
	assert.True(t, strings.HasSuffix(out, "}\n"), out)
	assert.JSONEq(t, `{
		"uid": 1000, "pid": 42, "ppid": 1, "tid": 42,
		"timestamp": 1700000000000000000,
		"syscall_nr": 0,
		"syscall_args": [3, 0, 0, 0, 0, 0],
		"syscall_ret": 128,
		"syscall_name": "read"
	}`, out)
}

func TestConsoleWriterCompact(t *testing.T) {
	var buf bytes.Buffer
	w := NewConsoleWriter(&buf, "", false)
	require.NoError(t, w.Write(readEvent))
	require.NoError(t, w.Write(readEvent))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "syscall_name")
}

func TestLogWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewLogWriter(&LogWriterConfig{LogDir: dir, LogFile: "events.log", SyscallNames: true})
	require.NoError(t, err)
	require.NoError(t, w.Write(readEvent))
	require.NoError(t, w.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "events.log.*"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	var line struct {
		Operate int                 `json:"operate"`
		Data    jsoniter.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, int(OpIndex), line.Operate)
	assert.Contains(t, string(line.Data), `"syscall_name":"read"`)
}

func TestMultiWriter(t *testing.T) {
	a, b := &collector{}, &collector{}
	failing := WriterFunc(func(e event.SyscallEvent) error { return unix.EPIPE })

	m := MultiWriter{a, failing, b}
	err := m.Write(readEvent)
	require.Error(t, err)
	assert.True(t, errors.Is(err, unix.EPIPE))
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1, "a failing writer does not stop the others")

	assert.NoError(t, MultiWriter{a, b}.Write(readEvent))
}

func TestThriftWriterRoundTrip(t *testing.T) {
	events := []event.SyscallEvent{
		readEvent,
		{
			UID:         ^uint32(0),
			PID:         7,
			Timestamp:   ^uint64(0),
			SyscallNr:   231,
			SyscallArgs: [event.NumArgs]uint64{1 << 63, 2, 3, 4, 5, 6},
			SyscallRet:  uint64(0xfffffffffffffffe),
		},
	}

	var out bytes.Buffer
	w := NewThriftWriter(&out, true)
	for _, e := range events {
		require.NoError(t, w.Write(e))
	}

	reader := thrift.NewTMemoryBuffer()
	reader.Buffer = bytes.NewBuffer(out.Bytes())
	proto := thrift.NewTCompactProtocolConf(reader, &thrift.TConfiguration{})

	ctx := context.Background()
	for _, want := range events {
		got, name, err := ReadThriftEvent(ctx, proto)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEmpty(t, name)
	}
	assert.Equal(t, 0, reader.Len())
}

func TestDefaultLogWriter(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	w, err := DefaultLogWriter(false)
	require.NoError(t, err)
	require.NoError(t, w.Write(readEvent))
	require.NoError(t, w.Close())

	matches, err := filepath.Glob(filepath.Join(DefaultLogDir, "events.log.*"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "syscall_name")
}
