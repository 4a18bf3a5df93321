package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/alertwatch/config"
	"github.com/user/alertwatch/handler"
	"github.com/user/alertwatch/preset"
)

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name string
		res  handler.Result
		want string
	}{
		{"absent", handler.Result{}, "No permission dialog found\n"},
		{"handled", handler.Result{Found: true, Handled: true, PermissionType: "Camera"}, "Permission dialog [Camera] handled\n"},
		{
			"unknown with screenshot",
			handler.Result{Found: true, PermissionType: "Unknown", ScreenshotPath: "/tmp/s.png"},
			"Permission dialog [Unknown] not handled\nScreenshot: /tmp/s.png\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printResult(&buf, tt.res)
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestPresetsCommand(t *testing.T) {
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"presets"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), preset.IPhone15ProMax) {
		t.Errorf("output = %q", out.String())
	}
}

func TestOptionsApply(t *testing.T) {
	root := rootCmd()
	if err := root.ParseFlags([]string{"--preset", "custom", "--deny", "--save-screenshot"}); err != nil {
		t.Fatal(err)
	}
	opts := &options{preset: "custom", deny: true, saveScreenshot: true}
	cfg := config.Default()
	opts.apply(root, cfg)

	if cfg.Device.Preset != "custom" || cfg.Handler.Action != "deny" || !cfg.Handler.SaveScreenshot {
		t.Errorf("cfg = %+v %+v", cfg.Device, cfg.Handler)
	}
}

func TestOptionsApplyKeepsConfigWhenUnset(t *testing.T) {
	root := rootCmd()
	if err := root.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Handler.Action = "deny"
	cfg.Handler.SaveScreenshot = true
	(&options{}).apply(root, cfg)

	if cfg.Handler.Action != "deny" || !cfg.Handler.SaveScreenshot {
		t.Errorf("config overridden by unset flags: %+v", cfg.Handler)
	}
}

func TestLoadCatalog(t *testing.T) {
	cat, err := loadCatalog("")
	if err != nil || cat.Len() != 3 {
		t.Fatalf("default catalog: %v, %v", cat, err)
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := "permissions:\n  - type: Location\n    identify: [location]\n    allow: [allow]\n    deny: [deny]\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cat, err = loadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	if def, ok := cat.Classify("Allow location access?"); !ok || def.Type != "Location" {
		t.Errorf("Classify = %+v, %v", def, ok)
	}

	if _, err := loadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing catalog")
	}
}
