package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/otpic/internal/logging"
	"github.com/danmuck/otpic/internal/term"
)

// Config is the icctl runtime configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Limits  LimitsConfig  `toml:"limits"`
	Inspect InspectConfig `toml:"inspect"`
}

type LogConfig struct {
	Level     string `toml:"level"`
	Timestamp bool   `toml:"timestamp"`
	NoColor   bool   `toml:"no_color"`
}

// LimitsConfig bounds decode memory use for untrusted input.
type LimitsConfig struct {
	MaxBinaryBytes uint64 `toml:"max_binary_bytes"`
	MaxPacketBytes uint64 `toml:"max_packet_bytes"`
	MaxDepth       int    `toml:"max_depth"`
}

type InspectConfig struct {
	Node        string   `toml:"node"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	// AuthToken gates the conversion routes when set.
	AuthToken string `toml:"auth_token"`
}

func Default() Config {
	limits := term.DefaultLimits()
	return Config{
		Log: LogConfig{Level: "info", Timestamp: true},
		Limits: LimitsConfig{
			MaxBinaryBytes: limits.MaxBinaryBytes,
			MaxPacketBytes: limits.MaxPacketBytes,
			MaxDepth:       limits.MaxDepth,
		},
		Inspect: InspectConfig{
			Node: "icctl",
			Addr: "127.0.0.1:9300",
		},
	}
}

// TermLimits converts the limits section for term readers.
func (c Config) TermLimits() term.Limits {
	return term.Limits{
		MaxBinaryBytes: c.Limits.MaxBinaryBytes,
		MaxPacketBytes: c.Limits.MaxPacketBytes,
		MaxDepth:       c.Limits.MaxDepth,
	}
}

// LoggingConfig converts the log section for logging.Apply. Validate has
// already rejected unknown levels.
func (c Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{Level: level, Timestamp: c.Log.Timestamp, NoColor: c.Log.NoColor}
}

// Load overlays the keys present in the TOML file at path onto Default and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load icctl config (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load icctl config (%s): unknown key %s", path, undecoded[0])
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("limits", "max_binary_bytes") {
		cfg.Limits.MaxBinaryBytes = raw.Limits.MaxBinaryBytes
	}
	if meta.IsDefined("limits", "max_packet_bytes") {
		cfg.Limits.MaxPacketBytes = raw.Limits.MaxPacketBytes
	}
	if meta.IsDefined("limits", "max_depth") {
		cfg.Limits.MaxDepth = raw.Limits.MaxDepth
	}
	if meta.IsDefined("inspect", "node") {
		cfg.Inspect.Node = strings.TrimSpace(raw.Inspect.Node)
	}
	if meta.IsDefined("inspect", "addr") {
		cfg.Inspect.Addr = strings.TrimSpace(raw.Inspect.Addr)
	}
	if meta.IsDefined("inspect", "cors_origins") {
		cfg.Inspect.CorsOrigins = raw.Inspect.CorsOrigins
	}
	if meta.IsDefined("inspect", "auth_token") {
		cfg.Inspect.AuthToken = strings.TrimSpace(raw.Inspect.AuthToken)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("load icctl config (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	if cfg.Limits.MaxBinaryBytes == 0 {
		return fmt.Errorf("limits.max_binary_bytes must be positive")
	}
	if cfg.Limits.MaxPacketBytes == 0 {
		return fmt.Errorf("limits.max_packet_bytes must be positive")
	}
	if cfg.Limits.MaxDepth <= 0 {
		return fmt.Errorf("limits.max_depth must be positive")
	}
	if strings.TrimSpace(cfg.Inspect.Node) == "" {
		return fmt.Errorf("inspect.node is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Inspect.Addr); err != nil {
		return fmt.Errorf("inspect.addr %q: %w", cfg.Inspect.Addr, err)
	}
	for i, origin := range cfg.Inspect.CorsOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("inspect.cors_origins[%d] is empty", i)
		}
	}
	return nil
}
