package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := Default()
	if *cfg != *def {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, def)
	}
}

func TestLoadOverridesAndFills(t *testing.T) {
	path := writeConfig(t, `
server-port = 9090
ovos-server-url = "ws://ovos.local:18181/gui"
log-level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
	}
	if cfg.OVOSServerURL != "ws://ovos.local:18181/gui" {
		t.Errorf("OVOSServerURL = %q", cfg.OVOSServerURL)
	}
	if cfg.ServerHost != "0.0.0.0" {
		t.Errorf("ServerHost = %q, want default", cfg.ServerHost)
	}
	if cfg.PingPeriod != 5 || cfg.ConnectionCheckWait != 10 {
		t.Errorf("timings = %d/%d, want defaults 5/10", cfg.PingPeriod, cfg.ConnectionCheckWait)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad toml", `server-port = `, "parse"},
		{"port out of range", `server-port = 70000`, "out of range"},
		{"http url", `ovos-server-url = "http://localhost:18181"`, "not a websocket url"},
		{"bad level", `log-level = "loud"`, "unknown log-level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := Config{PingPeriod: 7, ConnectionCheckWait: 3}
	if got := cfg.PingDuration(); got != 7*time.Second {
		t.Errorf("PingDuration() = %v, want 7s", got)
	}
	if got := cfg.CheckWaitDuration(); got != 3*time.Second {
		t.Errorf("CheckWaitDuration() = %v, want 3s", got)
	}
}

func TestSlogLevels(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := Config{LogLevel: tt.in}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
