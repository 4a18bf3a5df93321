package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/user/alertwatch/catalog"
	"github.com/user/alertwatch/config"
	"github.com/user/alertwatch/handler"
	"github.com/user/alertwatch/ocr"
	"github.com/user/alertwatch/preset"
	"github.com/user/alertwatch/session"
)

// options are the flags shared by the one-shot and watch commands.
type options struct {
	configPath     string
	preset         string
	deny           bool
	saveScreenshot bool
}

func (o *options) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", "", "config file path (defaults when empty)")
	f.StringVar(&o.preset, "preset", "", "device preset name (see the presets command)")
	f.BoolVar(&o.deny, "deny", false, "press the deny button instead of allow")
	f.BoolVar(&o.saveScreenshot, "save-screenshot", false, "save the dialog screenshot")
}

// apply overlays explicitly set flags on cfg.
func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if o.preset != "" {
		cfg.Device.Preset = o.preset
	}
	if flags.Changed("deny") {
		if o.deny {
			cfg.Handler.Action = "deny"
		} else {
			cfg.Handler.Action = "allow"
		}
	}
	if flags.Changed("save-screenshot") {
		cfg.Handler.SaveScreenshot = o.saveScreenshot
	}
}

// app holds the wired components of one run.
type app struct {
	cfg            *config.Config
	session        *session.Client
	handler        *handler.Handler
	action         handler.Action
	saveScreenshot bool
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	opts.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	initLogger(cfg.SlogLevel())
	if opts.configPath != "" && cfg.Security.ConfigPermissionCheck {
		config.CheckFilePermission(opts.configPath)
	}
	return cfg, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if path != "" {
		var err error
		if cat, err = catalog.Load(path); err != nil {
			return nil, err
		}
	}
	for _, w := range cat.Validate() {
		slog.Warn("catalog", "warning", w)
	}
	return cat, nil
}

func setup(ctx context.Context, cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	action, err := handler.ParseAction(cfg.Handler.Action)
	if err != nil {
		return nil, err
	}

	p, err := preset.Get(cfg.Device.Preset, cfg.Device)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	rec, err := ocr.NewTesseract(cfg.OCR.DataDir, cfg.OCR.Language)
	if err != nil {
		return nil, fmt.Errorf("init ocr: %w", err)
	}

	slog.Info("alertwatch starting", "preset", p.Name, "device", p.DeviceName, "server", p.ServerURL, "action", action.String())

	sess, err := session.Open(ctx, p)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:            cfg,
		session:        sess,
		handler:        handler.New(sess, rec, cat, cfg.Handler.ScreenshotDir),
		action:         action,
		saveScreenshot: cfg.Handler.SaveScreenshot,
	}, nil
}

func (a *app) close() {
	ctx, cancel := closeContext()
	defer cancel()
	if err := a.session.Close(ctx); err != nil {
		slog.Warn("close session failed", "error", err)
	}
}
