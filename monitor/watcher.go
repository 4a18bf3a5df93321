package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/user/alertwatch/handler"
)

// DialogHandler answers a permission dialog if one is shown.
type DialogHandler interface {
	HandleIfPresent(ctx context.Context, action handler.Action, saveScreenshot bool) (handler.Result, error)
}

// FoundFunc receives every invocation that saw a dialog.
type FoundFunc func(ctx context.Context, res handler.Result)

// Watcher polls for permission dialogs on a fixed interval.
type Watcher struct {
	handler        DialogHandler
	interval       time.Duration
	action         handler.Action
	saveScreenshot bool
	onFound        FoundFunc
	onClear        func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(h DialogHandler, interval time.Duration, action handler.Action, saveScreenshot bool, onFound FoundFunc) *Watcher {
	return &Watcher{
		handler:        h,
		interval:       interval,
		action:         action,
		saveScreenshot: saveScreenshot,
		onFound:        onFound,
	}
}

// Start runs the poll loop in a goroutine until Stop or ctx is done.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)
}

// Stop cancels the loop and waits for the in-flight poll to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("dialog watcher started", "interval", w.interval, "action", w.action.String())
	w.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("dialog watcher stopped")
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll runs one check synchronously and reports whether a dialog was found.
// A dialog that could not be captured or recognized is logged but not passed
// to onFound, since its result carries no permission type.
func (w *Watcher) Poll(ctx context.Context) bool {
	res, err := w.handler.HandleIfPresent(ctx, w.action, w.saveScreenshot)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		slog.Warn("handle dialog failed", "found", res.Found, "error", err)
		return res.Found
	}
	if !res.Found {
		if w.onClear != nil {
			w.onClear()
		}
		return false
	}
	if w.onFound != nil {
		w.onFound(ctx, res)
	}
	return true
}

// OnClear sets a callback run on every poll that finds no dialog.
func (w *Watcher) OnClear(fn func()) {
	w.onClear = fn
}
