package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type DeviceConfig struct {
	Preset            string         `yaml:"preset"`
	DeviceName        string         `yaml:"device_name"`
	PlatformVersion   string         `yaml:"platform_version"`
	ServerURL         string         `yaml:"server_url"`
	ConnectionTimeout time.Duration  `yaml:"connection_timeout"`
	Options           map[string]any `yaml:"options"` // extra capabilities, merged over the preset's
}

type OCRConfig struct {
	DataDir  string `yaml:"data_dir"`
	Language string `yaml:"language"`
}

type HandlerConfig struct {
	ScreenshotDir  string `yaml:"screenshot_dir"`
	Action         string `yaml:"action"` // "allow" | "deny"
	SaveScreenshot bool   `yaml:"save_screenshot"`
}

type CatalogConfig struct {
	Path  string `yaml:"path"`  // empty: built-in catalog
	Watch bool   `yaml:"watch"` // reload Path on change (watch mode only)
}

type MonitorConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type TelegramConfig struct {
	Token   string   `yaml:"token"`
	ChatIDs []int64  `yaml:"chat_ids"`
	Events  []string `yaml:"events"`
}

// Enabled reports whether notifications should be sent at all.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && len(t.ChatIDs) > 0
}

type SecurityConfig struct {
	RedactText            bool `yaml:"redact_text"`
	ConfigPermissionCheck bool `yaml:"config_permission_check"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	OCR      OCRConfig      `yaml:"ocr"`
	Handler  HandlerConfig  `yaml:"handler"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Telegram TelegramConfig `yaml:"telegram"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

func defaultConfig() *Config {
	return &Config{
		Device:   DeviceConfig{Preset: "iphone-15-pro-max"},
		OCR:      OCRConfig{DataDir: defaultTessdata(), Language: "rus+eng"},
		Handler:  HandlerConfig{ScreenshotDir: filepath.Join(os.TempDir(), "AlertWatch"), Action: "allow"},
		Monitor:  MonitorConfig{PollInterval: 2 * time.Second},
		Telegram: TelegramConfig{Events: []string{"unknown", "unhandled"}},
		Security: SecurityConfig{RedactText: true, ConfigPermissionCheck: true},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// defaultTessdata is the tessdata directory next to the executable.
func defaultTessdata() string {
	exe, err := os.Executable()
	if err != nil {
		return "tessdata"
	}
	return filepath.Join(filepath.Dir(exe), "tessdata")
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := defaultConfig()
	applyEnv(cfg)
	return cfg
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if envToken := os.Getenv("ALERTWATCH_BOT_TOKEN"); envToken != "" {
		cfg.Telegram.Token = envToken
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Handler.Action) {
	case "allow", "deny":
	default:
		return fmt.Errorf("handler.action must be allow or deny, got %q", c.Handler.Action)
	}
	if c.Device.Preset == "" {
		return fmt.Errorf("device.preset is required")
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	if c.Device.ConnectionTimeout < 0 {
		return fmt.Errorf("device.connection_timeout must not be negative")
	}
	if c.Telegram.Token != "" && len(c.Telegram.ChatIDs) == 0 {
		return fmt.Errorf("telegram.chat_ids must not be empty when telegram.token is set")
	}
	for _, e := range c.Telegram.Events {
		switch e {
		case "handled", "unhandled", "unknown":
		default:
			return fmt.Errorf("telegram.events: unknown event %q", e)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// SlogLevel maps Logging.Level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func CheckFilePermission(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	perm := info.Mode().Perm()
	if perm&0o077 != 0 {
		slog.Warn("config file is readable by others, consider chmod 600 (it may hold a bot token)", "path", path, "current_perm", fmt.Sprintf("%o", perm))
	}
}
