package zcached

import (
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the configuration surface from spec §4.F: everything needed to
// construct a Server, sourced from an optional YAML file with CLI flags
// (bound by cmd/zcached-server) layered on top.
type Config struct {
	Address string `yaml:"address"`

	InitialDBCapacity int `yaml:"initial_db_capacity"`
	InitialBufferSize int `yaml:"initial_buffer_size"`
	MaxBufferSize     int `yaml:"max_buffer_size"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	MaxStallRetries int           `yaml:"max_stall_retries"`
}

// DefaultConfig returns the documented defaults (spec §4.F table).
func DefaultConfig() Config {
	return Config{
		InitialDBCapacity: DefaultInitialDBCapacity,
		InitialBufferSize: DefaultInitialBufferSize,
		MaxBufferSize:     DefaultMaxBufferSize,
		MaxStallRetries:   3,
	}
}

// LoadConfigFile reads a YAML config file and merges it onto DefaultConfig.
// Fields absent from the file keep their default value. A missing path is
// not an error: it simply means "use defaults", the same as not passing
// --config at all.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "zcached: read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "zcached: parse config %s", path)
	}
	return cfg, nil
}

// ParseByteSize parses a human-friendly byte size ("4KiB", "1MiB", or a
// plain integer) using the same notation docker CLI flags accept.
func ParseByteSize(s string) (int, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, errors.Wrapf(err, "zcached: invalid size %q", s)
	}
	return int(n), nil
}

// Validate checks the configuration is complete enough to build a Server
// (spec §7 "Configuration" error kind: missing required option).
func (c Config) Validate() error {
	if c.Address == "" {
		return ErrNoAddress
	}
	return nil
}

// Options converts the buffer/timeout fields into server Options.
func (c Config) Options(log Logger) Options {
	o := defaultOptions()
	o.InitialBufferSize = c.InitialBufferSize
	o.MaxBufferSize = c.MaxBufferSize
	o.ReadTimeout = c.ReadTimeout
	o.WriteTimeout = c.WriteTimeout
	if c.MaxStallRetries > 0 {
		o.MaxStallRetries = c.MaxStallRetries
	}
	if log != nil {
		o.Logger = log
	}
	return o
}
