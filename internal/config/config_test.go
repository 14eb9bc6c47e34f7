package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/didi/scc/pkg/event"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "/dev/scc", cfg.SCC.Device)
	assert.Equal(t, SourceDevice, cfg.SCC.Source)
	assert.Equal(t, 3*time.Second, cfg.SCC.ShutdownTimeout)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, "    ", cfg.Output.Indent)
	assert.True(t, cfg.Output.SyscallNames)
	assert.Equal(t, 10, cfg.Limit.Burst)
	assert.Empty(t, cfg.Filter.PIDs)

	layout, err := cfg.RecordLayout()
	require.NoError(t, err)
	assert.Equal(t, event.Canonical.Size(), layout.Size())
}

func TestLoadFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[scc]
device = "/tmp/records.bin"
shutdown_timeout = "500ms"

[layout]
name = "aligned"

[output]
format = "log"

[filter]
pids = [42, 43]
exclude_syscalls = ["futex"]

[limit]
rate = 2.5

[limit.syscalls]
futex = 0
write = 100

[log]
level = "debug"
`), 0644))

	cfg, err := Load(newFlags(t, "-c", path, "--byte-order", "big", "--format", "thrift", "--max-records", "7"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/records.bin", cfg.SCC.Device)
	assert.Equal(t, 500*time.Millisecond, cfg.SCC.ShutdownTimeout)
	assert.Equal(t, uint64(7), cfg.SCC.MaxRecords)
	assert.Equal(t, FormatThrift, cfg.Output.Format, "flags override the file")
	assert.Equal(t, []uint32{42, 43}, cfg.Filter.PIDs)
	assert.Equal(t, []string{"futex"}, cfg.Filter.ExcludeSyscalls)
	assert.Equal(t, 2.5, cfg.Limit.Rate)

	limits, err := cfg.SyscallLimits()
	require.NoError(t, err)
	assert.Equal(t, map[uint32]float64{202: 0, 1: 100}, limits)
	assert.Equal(t, "debug", cfg.LoggerConfig().LogLevel)

	layout, err := cfg.RecordLayout()
	require.NoError(t, err)
	assert.Equal(t, event.LayoutAligned, layout.Name())
	assert.Equal(t, 88, layout.Size())
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("SCC_SCC_DEVICE", "/dev/scc1")
	t.Setenv("SCC_LAYOUT_BYTE_ORDER", "big")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "/dev/scc1", cfg.SCC.Device)
	assert.Equal(t, "big", cfg.Layout.ByteOrder)
}

func TestLoadInvalid(t *testing.T) {
	tests := [][]string{
		{"--layout", "v2"},
		{"--byte-order", "middle"},
		{"--format", "xml"},
		{"--source", "socket"},
		{"-c", "/nonexistent/scc.toml"},
	}
	for _, args := range tests {
		_, err := Load(newFlags(t, args...))
		assert.Error(t, err, "%v", args)
	}
}

func TestLoadInvalidSyscallLimits(t *testing.T) {
	for _, limits := range []string{"nosuchcall = 1", "read = -1"} {
		path := filepath.Join(t.TempDir(), "scc.toml")
		require.NoError(t, os.WriteFile(path, []byte("[limit.syscalls]\n"+limits+"\n"), 0644))

		_, err := Load(newFlags(t, "-c", path))
		assert.Error(t, err, limits)
	}
}
