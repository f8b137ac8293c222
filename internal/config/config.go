// Package config loads the gateway configuration from a TOML file and
// fills unset fields with working defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the file looked up when no explicit path is given.
const ConfigFileName = "hxgui.toml"

// Config holds every tunable of the gateway.
type Config struct {
	// ServerHost is the interface the HTTP server binds to.
	ServerHost string `toml:"server-host"`

	// ServerPort is the HTTP server port.
	ServerPort int `toml:"server-port"`

	// AssetsDirectory is the local directory served under /assets/.
	AssetsDirectory string `toml:"assets-directory"`

	// OVOSServerURL is the websocket endpoint of the GUI message bus.
	OVOSServerURL string `toml:"ovos-server-url"`

	// ClientID is the gui_id announced to the bus. Empty means a
	// generated id.
	ClientID string `toml:"client-id"`

	// PingPeriod is how often browsers are asked to ping, in seconds.
	PingPeriod int `toml:"ping-period"`

	// ConnectionCheckWait is the session sweeper interval, in seconds.
	ConnectionCheckWait int `toml:"connection-check-wait"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log-level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ServerHost:          "0.0.0.0",
		ServerPort:          8181,
		AssetsDirectory:     "assets",
		OVOSServerURL:       "ws://localhost:18181/gui",
		PingPeriod:          5,
		ConnectionCheckWait: 10,
		LogLevel:            "info",
	}
}

// Load reads the configuration at path. A missing file is not an
// error: the defaults apply. Any field left unset in the file keeps
// its default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = ConfigFileName
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.ServerHost == "" {
		c.ServerHost = def.ServerHost
	}
	if c.ServerPort == 0 {
		c.ServerPort = def.ServerPort
	}
	if c.AssetsDirectory == "" {
		c.AssetsDirectory = def.AssetsDirectory
	}
	if c.OVOSServerURL == "" {
		c.OVOSServerURL = def.OVOSServerURL
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = def.PingPeriod
	}
	if c.ConnectionCheckWait <= 0 {
		c.ConnectionCheckWait = def.ConnectionCheckWait
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

func (c *Config) validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("server-port %d out of range", c.ServerPort)
	}
	if !strings.HasPrefix(c.OVOSServerURL, "ws://") &&
		!strings.HasPrefix(c.OVOSServerURL, "wss://") {
		return fmt.Errorf("ovos-server-url %q is not a websocket url", c.OVOSServerURL)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// PingDuration returns the browser ping interval.
func (c *Config) PingDuration() time.Duration {
	return time.Duration(c.PingPeriod) * time.Second
}

// CheckWaitDuration returns the session sweeper interval.
func (c *Config) CheckWaitDuration() time.Duration {
	return time.Duration(c.ConnectionCheckWait) * time.Second
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log-level %q", name)
	}
}
