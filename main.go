package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lpernett/godotenv"
	"github.com/spf13/cobra"

	"github.com/user/alertwatch/handler"
	"github.com/user/alertwatch/preset"
)

func main() {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "alertwatch",
		Short:         "Detect and answer iOS permission dialogs through Appium",
		Long:          "Opens an Appium session, checks for a system permission dialog, recognizes it with Tesseract and presses the allow or deny button.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}
	opts.register(root)

	root.AddCommand(
		watchCmd(opts),
		presetsCmd(),
	)
	return root
}

func runOnce(cmd *cobra.Command, opts *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cmd, opts)
	if err != nil {
		slog.Error("setup failed", "error", err)
		return err
	}
	defer a.close()

	res, err := a.handler.HandleIfPresent(ctx, a.action, a.saveScreenshot)
	if err != nil {
		slog.Error("handle dialog failed", "found", res.Found, "error", err)
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func printResult(w io.Writer, res handler.Result) {
	if !res.Found {
		fmt.Fprintln(w, "No permission dialog found")
		return
	}
	status := "not handled"
	if res.Handled {
		status = "handled"
	}
	fmt.Fprintf(w, "Permission dialog [%s] %s\n", res.PermissionType, status)
	if res.ScreenshotPath != "" {
		fmt.Fprintf(w, "Screenshot: %s\n", res.ScreenshotPath)
	}
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List built-in device presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range preset.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// initLogger installs the default slog logger on stderr.
func initLogger(level slog.Level) {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.TimeOnly))
			}
			return a
		},
	})
	slog.SetDefault(slog.New(h))
}

// closeTimeout bounds session teardown after the command context is gone.
const closeTimeout = 10 * time.Second

func closeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), closeTimeout)
}
