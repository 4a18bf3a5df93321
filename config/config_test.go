package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("ALERTWATCH_BOT_TOKEN", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.Preset != "iphone-15-pro-max" {
		t.Errorf("Preset = %q", cfg.Device.Preset)
	}
	if cfg.OCR.Language != "rus+eng" {
		t.Errorf("Language = %q", cfg.OCR.Language)
	}
	if filepath.Base(cfg.Handler.ScreenshotDir) != "AlertWatch" {
		t.Errorf("ScreenshotDir = %q", cfg.Handler.ScreenshotDir)
	}
	if cfg.Handler.Action != "allow" || cfg.Handler.SaveScreenshot {
		t.Errorf("Handler = %+v", cfg.Handler)
	}
	if cfg.Monitor.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v", cfg.Monitor.PollInterval)
	}
	if cfg.Telegram.Enabled() {
		t.Error("telegram should be disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ALERTWATCH_BOT_TOKEN", "")

	path := writeConfig(t, `
device:
  preset: iphone-15-pro-max
  device_name: iPhone 13
  platform_version: "16.4"
  server_url: http://10.0.0.5:4723
  connection_timeout: 30s
  options:
    udid: abc
handler:
  action: deny
  save_screenshot: true
  screenshot_dir: /tmp/shots
catalog:
  path: ./catalog.yaml
  watch: true
monitor:
  poll_interval: 500ms
telegram:
  token: "123:abc"
  chat_ids: [42]
  events: [handled]
logging:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.DeviceName != "iPhone 13" || cfg.Device.PlatformVersion != "16.4" {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Device.ConnectionTimeout != 30*time.Second {
		t.Errorf("ConnectionTimeout = %v", cfg.Device.ConnectionTimeout)
	}
	if cfg.Device.Options["udid"] != "abc" {
		t.Errorf("Options = %v", cfg.Device.Options)
	}
	if cfg.Handler.Action != "deny" || !cfg.Handler.SaveScreenshot || cfg.Handler.ScreenshotDir != "/tmp/shots" {
		t.Errorf("Handler = %+v", cfg.Handler)
	}
	if cfg.Catalog.Path != "./catalog.yaml" || !cfg.Catalog.Watch {
		t.Errorf("Catalog = %+v", cfg.Catalog)
	}
	if cfg.Monitor.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.Monitor.PollInterval)
	}
	if !cfg.Telegram.Enabled() || len(cfg.Telegram.Events) != 1 || cfg.Telegram.Events[0] != "handled" {
		t.Errorf("Telegram = %+v", cfg.Telegram)
	}
	if cfg.OCR.Language != "rus+eng" {
		t.Errorf("unset OCR language should keep default, got %q", cfg.OCR.Language)
	}
}

func TestLoadEnvToken(t *testing.T) {
	t.Setenv("ALERTWATCH_BOT_TOKEN", "from-env")
	path := writeConfig(t, "telegram:\n  token: from-file\n  chat_ids: [1]\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Errorf("Token = %q, want from-env", cfg.Telegram.Token)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("ALERTWATCH_BOT_TOKEN", "")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "device: [", "parse config"},
		{"bad action", "handler:\n  action: maybe\n", "handler.action"},
		{"empty preset", "device:\n  preset: \"\"\n", "device.preset"},
		{"zero interval", "monitor:\n  poll_interval: 0s\n", "poll_interval"},
		{"token without chats", "telegram:\n  token: abc\n", "chat_ids"},
		{"unknown event", "telegram:\n  events: [sometimes]\n", "unknown event"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("missing file error = %v", err)
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := defaultConfig()
	for level, want := range map[string]string{"debug": "DEBUG", "info": "INFO", "warn": "WARN", "error": "ERROR"} {
		cfg.Logging.Level = level
		if got := cfg.SlogLevel().String(); got != want {
			t.Errorf("SlogLevel(%s) = %s, want %s", level, got, want)
		}
	}
}
