package preset

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/user/alertwatch/config"
)

// Preset is a device profile used to open an automation session.
type Preset struct {
	Name              string
	PlatformName      string
	DeviceName        string
	AutomationName    string
	PlatformVersion   string
	ServerURL         string
	ConnectionTimeout time.Duration
	Options           map[string]any // keys carry their vendor prefix, e.g. "appium:udid"
}

const IPhone15ProMax = "iphone-15-pro-max"

var builtin = map[string]func() Preset{
	IPhone15ProMax: func() Preset {
		return newIOS("iPhone 15 Pro Max", "17.5")
	},
}

func newIOS(deviceName, platformVersion string) Preset {
	return Preset{
		PlatformName:      "iOS",
		DeviceName:        deviceName,
		AutomationName:    "XCUITest",
		PlatformVersion:   platformVersion,
		ServerURL:         "http://127.0.0.1:4723",
		ConnectionTimeout: 60 * time.Second,
		Options:           map[string]any{"appium:autoAcceptAlerts": false},
	}
}

// Names returns the built-in preset names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named preset with the device overrides from cfg applied.
func Get(name string, cfg config.DeviceConfig) (Preset, error) {
	newPreset, ok := builtin[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	p := newPreset()
	p.Name = name

	if cfg.DeviceName != "" {
		p.DeviceName = cfg.DeviceName
	}
	if cfg.PlatformVersion != "" {
		p.PlatformVersion = cfg.PlatformVersion
	}
	if cfg.ServerURL != "" {
		p.ServerURL = cfg.ServerURL
	}
	if cfg.ConnectionTimeout > 0 {
		p.ConnectionTimeout = cfg.ConnectionTimeout
	}
	for k, v := range cfg.Options {
		p.Options[vendorKey(k)] = v
	}
	return p, nil
}

// Capabilities returns the W3C capability set for a new session. Non-standard
// keys get the appium: vendor prefix.
func (p Preset) Capabilities() map[string]any {
	caps := map[string]any{
		"platformName":           p.PlatformName,
		"appium:deviceName":      p.DeviceName,
		"appium:automationName":  p.AutomationName,
		"appium:platformVersion": p.PlatformVersion,
	}
	for k, v := range p.Options {
		caps[vendorKey(k)] = v
	}
	return caps
}

func vendorKey(k string) string {
	if strings.Contains(k, ":") || k == "platformName" {
		return k
	}
	return "appium:" + k
}
