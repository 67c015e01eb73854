// Package config loads engine settings from an optional YAML file and BITENGINE_* environment variables.
package config

import (
	"io"
	"os"
	"strings"
	"time"

	jlconfig "github.com/JeremyLoy/config"
	"github.com/mateusmp/bitengine/ecs"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate and Load for out of range settings.
var ErrInvalidConfig = eris.New("invalid config")

// Config holds engine settings. Zero limits mean unbounded.
type Config struct {
	BlockSize            int    `yaml:"block_size" config:"BITENGINE_BLOCK_SIZE"`
	InitialEntities      int    `yaml:"initial_entities" config:"BITENGINE_INITIAL_ENTITIES"`
	MaxEntities          int    `yaml:"max_entities" config:"BITENGINE_MAX_ENTITIES"`
	MaxComponentsPerType int    `yaml:"max_components_per_type" config:"BITENGINE_MAX_COMPONENTS_PER_TYPE"`
	TickRate             int    `yaml:"tick_rate" config:"BITENGINE_TICK_RATE"`
	LogLevel             string `yaml:"log_level" config:"BITENGINE_LOG_LEVEL"`
	LogFormat            string `yaml:"log_format" config:"BITENGINE_LOG_FORMAT"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BlockSize:       ecs.DefaultBlockSize,
		InitialEntities: 256,
		TickRate:        60,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Load starts from Default, applies the YAML file at path when path is not empty, then environment overrides,
// and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, eris.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, eris.Wrapf(err, "parse config %s", path)
		}
	}
	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "apply environment overrides")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field is within range.
func (c Config) Validate() error {
	switch {
	case c.BlockSize < 1:
		return eris.Wrapf(ErrInvalidConfig, "block_size %d must be positive", c.BlockSize)
	case c.InitialEntities < 0:
		return eris.Wrapf(ErrInvalidConfig, "initial_entities %d is negative", c.InitialEntities)
	case c.MaxEntities < 0:
		return eris.Wrapf(ErrInvalidConfig, "max_entities %d is negative", c.MaxEntities)
	case c.MaxComponentsPerType < 0:
		return eris.Wrapf(ErrInvalidConfig, "max_components_per_type %d is negative", c.MaxComponentsPerType)
	case c.TickRate < 1:
		return eris.Wrapf(ErrInvalidConfig, "tick_rate %d must be positive", c.TickRate)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return eris.Wrapf(ErrInvalidConfig, "log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return eris.Wrapf(ErrInvalidConfig, "log_format %q (console or json)", c.LogFormat)
	}
	return nil
}

// Level returns the parsed log level, info when unparsable.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Logger builds a logger writing to w in the configured format and level.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	if c.LogFormat != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(c.Level()).With().Timestamp().Logger()
}

// TickInterval returns the frame interval for Scheduler.Run.
func (c Config) TickInterval() time.Duration {
	if c.TickRate < 1 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRate)
}

// EntitySystemOptions translates the settings into ecs options.
func (c Config) EntitySystemOptions() []ecs.Option {
	return []ecs.Option{
		ecs.WithBlockSize(c.BlockSize),
		ecs.WithInitialEntities(c.InitialEntities),
		ecs.WithMaxEntities(c.MaxEntities),
		ecs.WithMaxComponentsPerType(c.MaxComponentsPerType),
	}
}
