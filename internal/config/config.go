package config

import (
	"strings"
	"time"

	"github.com/didi/scc/internal/log"
	"github.com/didi/scc/pkg/event"
	"github.com/didi/scc/pkg/syscalls"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config all settings of the scc command.
type Config struct {
	SCC    SCCConfig    `mapstructure:"scc"`
	Layout LayoutConfig `mapstructure:"layout"`
	Output OutputConfig `mapstructure:"output"`
	Filter FilterConfig `mapstructure:"filter"`
	Limit  LimitConfig  `mapstructure:"limit"`
	Log    LogConfig    `mapstructure:"log"`
}

type SCCConfig struct {
	Device          string        `mapstructure:"device"`
	Source          string        `mapstructure:"source"`
	RingbufPin      string        `mapstructure:"ringbuf_pin"`
	PidFile         string        `mapstructure:"pid"`
	ListenAddr      string        `mapstructure:"listen_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxRecords      uint64        `mapstructure:"max_records"`
}

type LayoutConfig struct {
	Name      string `mapstructure:"name"`
	ByteOrder string `mapstructure:"byte_order"`
}

type OutputConfig struct {
	Format       string `mapstructure:"format"`
	File         string `mapstructure:"file"`
	Indent       string `mapstructure:"indent"`
	SyscallNames bool   `mapstructure:"syscall_names"`
}

type FilterConfig struct {
	PIDs            []uint32 `mapstructure:"pids"`
	UIDs            []uint32 `mapstructure:"uids"`
	ExcludeSyscalls []string `mapstructure:"exclude_syscalls"`
}

type LimitConfig struct {
	Rate     float64            `mapstructure:"rate"`
	Burst    int                `mapstructure:"burst"`
	Syscalls map[string]float64 `mapstructure:"syscalls"` // syscall name -> rate, 0 drops
}

type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	FilePrefix string `mapstructure:"file_prefix"`
	Level      string `mapstructure:"level"`
	AutoClear  bool   `mapstructure:"auto_clear"`
	ClearHours int    `mapstructure:"clear_hours"`
}

const (
	SourceDevice  = "device"
	SourceRingbuf = "ringbuf"

	FormatJSON   = "json"
	FormatLog    = "log"
	FormatThrift = "thrift"
)

// flag name -> config key
var flagKeys = map[string]string{
	"device":      "scc.device",
	"source":      "scc.source",
	"pid-file":    "scc.pid",
	"max-records": "scc.max_records",
	"layout":      "layout.name",
	"byte-order":  "layout.byte_order",
	"format":      "output.format",
	"output":      "output.file",
	"log-level":   "log.level",
}

// RegisterFlags adds the command line overrides to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "config file path")
	fs.String("device", "", "input device path")
	fs.String("source", "", "input source: device or ringbuf")
	fs.String("pid-file", "", "pid file path")
	fs.Uint64("max-records", 0, "stop after this many records (0 = unlimited)")
	fs.String("layout", "", "record layout: canonical or aligned")
	fs.String("byte-order", "", "record byte order: little or big")
	fs.String("format", "", "output format: json, log or thrift")
	fs.StringP("output", "o", "", "output file for the thrift format")
	fs.String("log-level", "", "log level")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scc.device", "/dev/scc")
	v.SetDefault("scc.source", SourceDevice)
	v.SetDefault("scc.ringbuf_pin", "/sys/fs/bpf/scc_events")
	v.SetDefault("scc.pid", "./scc.pid")
	v.SetDefault("scc.listen_addr", "")
	v.SetDefault("scc.shutdown_timeout", 3*time.Second)
	v.SetDefault("scc.max_records", 0)
	v.SetDefault("layout.name", event.LayoutCanonical)
	v.SetDefault("layout.byte_order", "little")
	v.SetDefault("output.format", FormatJSON)
	v.SetDefault("output.file", "")
	v.SetDefault("output.indent", "    ")
	v.SetDefault("output.syscall_names", true)
	v.SetDefault("filter.pids", []uint32{})
	v.SetDefault("filter.uids", []uint32{})
	v.SetDefault("filter.exclude_syscalls", []string{})
	v.SetDefault("limit.rate", 0.0)
	v.SetDefault("limit.burst", 10)
	v.SetDefault("limit.syscalls", map[string]float64{})
	v.SetDefault("log.dir", "")
	v.SetDefault("log.file_prefix", "scc")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.auto_clear", true)
	v.SetDefault("log.clear_hours", 24)
}

// Load reads the config file named by the "config" flag (if any), the SCC_
// environment and the flags set on fs, in increasing priority.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("scc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}

		if path, err := fs.GetString("config"); err == nil && path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.SCC.Source {
	case SourceDevice, SourceRingbuf:
	default:
		return errors.Errorf("scc.source: unknown source %q", c.SCC.Source)
	}
	switch c.Output.Format {
	case FormatJSON, FormatLog, FormatThrift:
	default:
		return errors.Errorf("output.format: unknown format %q", c.Output.Format)
	}
	if c.Limit.Rate < 0 {
		return errors.New("limit.rate must not be negative")
	}
	if _, err := c.SyscallLimits(); err != nil {
		return err
	}
	if _, err := c.RecordLayout(); err != nil {
		return errors.Wrap(err, "layout")
	}
	return nil
}

// RecordLayout returns the configured record layout.
func (c *Config) RecordLayout() (*event.Layout, error) {
	order, err := event.ParseByteOrder(c.Layout.ByteOrder)
	if err != nil {
		return nil, err
	}
	return event.LayoutByName(c.Layout.Name, order)
}

// SyscallLimits resolves the limit.syscalls names to syscall numbers.
func (c *Config) SyscallLimits() (map[uint32]float64, error) {
	limits := make(map[uint32]float64, len(c.Limit.Syscalls))
	for name, v := range c.Limit.Syscalls {
		if v < 0 {
			return nil, errors.Errorf("limit.syscalls.%s must not be negative", name)
		}
		nr, ok := syscalls.Number(name)
		if !ok {
			return nil, errors.Errorf("limit.syscalls: unknown syscall %q", name)
		}
		limits[nr] = v
	}
	return limits, nil
}

// LoggerConfig converts the log section for log.InitLogger.
func (c *Config) LoggerConfig() *log.Config {
	return &log.Config{
		LogDir:     c.Log.Dir,
		LogPrefix:  c.Log.FilePrefix,
		LogLevel:   c.Log.Level,
		AutoClear:  c.Log.AutoClear,
		ClearHours: c.Log.ClearHours,
	}
}
