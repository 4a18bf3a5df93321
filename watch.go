package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/alertwatch/catalog"
	"github.com/user/alertwatch/handler"
	"github.com/user/alertwatch/monitor"
	"github.com/user/alertwatch/notify"
)

func watchCmd(opts *options) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for permission dialogs until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (overrides monitor.poll_interval)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *options, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cmd, opts)
	if err != nil {
		slog.Error("setup failed", "error", err)
		return err
	}
	defer a.close()

	if interval <= 0 {
		interval = a.cfg.Monitor.PollInterval
	}

	if a.cfg.Catalog.Watch && a.cfg.Catalog.Path != "" {
		if err := catalog.Watch(ctx, a.cfg.Catalog.Path, a.handler.SetCatalog); err != nil {
			return fmt.Errorf("watch catalog: %w", err)
		}
	}

	report := reporter(cmd)
	var onClear func()
	if a.cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(a.cfg.Telegram.Token, a.cfg.Telegram.ChatIDs, a.cfg.Telegram.Events, a.cfg.Security.RedactText)
		if err != nil {
			return fmt.Errorf("init telegram: %w", err)
		}
		printFound := report
		report = func(ctx context.Context, res handler.Result) {
			printFound(ctx, res)
			if err := tg.Notify(ctx, res); err != nil {
				slog.Warn("notify failed", "error", err)
			}
		}
		onClear = tg.Reset
		slog.Info("telegram notifications enabled", "chats", len(a.cfg.Telegram.ChatIDs), "events", a.cfg.Telegram.Events)
	}

	w := monitor.NewWatcher(a.handler, interval, a.action, a.saveScreenshot, report)
	if onClear != nil {
		w.OnClear(onClear)
	}
	w.Start(ctx)

	slog.Info("alertwatch ready")
	<-ctx.Done()
	slog.Info("shutting down")
	w.Stop()
	return nil
}

func reporter(cmd *cobra.Command) monitor.FoundFunc {
	out := cmd.OutOrStdout()
	return func(ctx context.Context, res handler.Result) {
		printResult(out, res)
	}
}
