package config

import (
	"errors"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultStreamAddress = "127.0.0.1:8484"

const (
	defaultFlushIntervalMS = 50
	defaultMaxBatch        = 64
	defaultHistoryLimit    = 100
)

type Config struct {
	Stream  StreamConfig  `toml:"stream"`
	Engine  EngineConfig  `toml:"engine"`
	Logging LoggingConfig `toml:"logging"`
	Debug   DebugConfig   `toml:"debug"`
}

type StreamConfig struct {
	Address string `toml:"address"`
}

type EngineConfig struct {
	FlushIntervalMS int `toml:"flush_interval_ms"`
	MaxBatch        int `toml:"max_batch"`
	HistoryLimit    int `toml:"history_limit"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type DebugConfig struct {
	StreamDebug bool `toml:"stream_debug"`
}

func Default() Config {
	return Config{
		Stream: StreamConfig{Address: defaultStreamAddress},
		Engine: EngineConfig{
			FlushIntervalMS: defaultFlushIntervalMS,
			MaxBatch:        defaultMaxBatch,
			HistoryLimit:    defaultHistoryLimit,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return loadFromPath(path)
}

func loadFromPath(path string) (Config, error) {
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func (c Config) StreamAddress() string {
	addr := strings.TrimSpace(c.Stream.Address)
	if addr == "" {
		return defaultStreamAddress
	}
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultStreamAddress
	}
	return addr
}

func (c Config) StreamBaseURL() string {
	return "http://" + c.StreamAddress()
}

func (c Config) FlushInterval() time.Duration {
	ms := c.Engine.FlushIntervalMS
	if ms < 0 {
		return 0
	}
	if ms == 0 {
		ms = defaultFlushIntervalMS
	}
	return time.Duration(ms) * time.Millisecond
}

func (c Config) MaxBatch() int {
	if c.Engine.MaxBatch <= 0 {
		return defaultMaxBatch
	}
	return c.Engine.MaxBatch
}

func (c Config) HistoryLimit() int {
	if c.Engine.HistoryLimit < 0 {
		return 0
	}
	if c.Engine.HistoryLimit == 0 {
		return defaultHistoryLimit
	}
	return c.Engine.HistoryLimit
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c Config) StreamDebugEnabled() bool {
	return c.Debug.StreamDebug
}
