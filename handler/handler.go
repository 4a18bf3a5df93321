package handler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/user/alertwatch/catalog"
	"github.com/user/alertwatch/session"
)

// UnknownType is the PermissionType of a dialog no definition matched.
const UnknownType = "Unknown"

// Session is the device surface the handler drives.
type Session interface {
	HasSystemAlert(ctx context.Context) (bool, error)
	Screenshot(ctx context.Context) ([]byte, error)
	TapElement(ctx context.Context, xpath string) (bool, error)
	AlertButtons(ctx context.Context) ([]string, error)
	AcceptAlert(ctx context.Context, label string) error
}

// elementWaiter is implemented by sessions that can wait for an element to
// appear; *session.Client does.
type elementWaiter interface {
	ElementPresent(ctx context.Context, xpath string, wait time.Duration) (bool, error)
}

// buttonWait bounds the wait for any button before the XPath tier runs.
const buttonWait = time.Second

// Recognizer extracts text from a PNG screenshot.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Action selects which button group to press.
type Action int

const (
	Allow Action = iota
	Deny
)

func (a Action) String() string {
	if a == Deny {
		return "deny"
	}
	return "allow"
}

// ParseAction parses "allow" or "deny", case-insensitively.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return Allow, nil
	case "deny":
		return Deny, nil
	}
	return Allow, fmt.Errorf("unknown action %q", s)
}

// Result describes one HandleIfPresent invocation. Empty strings mean absent.
type Result struct {
	Found          bool
	Handled        bool
	PermissionType string
	RecognizedText string
	ScreenshotPath string
}

// Handler detects a permission dialog, classifies it and presses a button.
type Handler struct {
	session       Session
	recognizer    Recognizer
	catalog       atomic.Pointer[catalog.Catalog]
	screenshotDir string
	now           func() time.Time
}

// New returns a handler. A nil catalog means the built-in one.
func New(sess Session, rec Recognizer, cat *catalog.Catalog, screenshotDir string) *Handler {
	if cat == nil {
		cat = catalog.Default()
	}
	if screenshotDir == "" {
		screenshotDir = filepath.Join(os.TempDir(), "AlertWatch")
	}
	h := &Handler{
		session:       sess,
		recognizer:    rec,
		screenshotDir: screenshotDir,
		now:           time.Now,
	}
	h.catalog.Store(cat)
	return h
}

// SetCatalog replaces the catalog used by later invocations.
func (h *Handler) SetCatalog(cat *catalog.Catalog) {
	if cat == nil {
		return
	}
	h.catalog.Store(cat)
}

// Catalog returns the catalog currently in use.
func (h *Handler) Catalog() *catalog.Catalog {
	return h.catalog.Load()
}

// HandleIfPresent checks for a system alert and, if one is shown, recognizes
// and answers it. An error is returned only when the screenshot, its file or
// OCR fails after a dialog was detected.
func (h *Handler) HandleIfPresent(ctx context.Context, action Action, saveScreenshot bool) (Result, error) {
	present, err := h.session.HasSystemAlert(ctx)
	if err != nil {
		slog.Debug("alert check failed", "error", err)
		return Result{}, nil
	}
	if !present {
		return Result{}, nil
	}

	res := Result{Found: true}

	image, err := h.session.Screenshot(ctx)
	if err != nil {
		return res, fmt.Errorf("capture screenshot: %w", err)
	}

	if saveScreenshot {
		path, err := h.saveScreenshot(image)
		if err != nil {
			return res, err
		}
		res.ScreenshotPath = path
	}

	text, err := h.recognizer.Recognize(ctx, image)
	if err != nil {
		return res, fmt.Errorf("recognize text: %w", err)
	}
	res.RecognizedText = strings.TrimSpace(text)

	def, ok := h.catalog.Load().Classify(res.RecognizedText)
	if !ok {
		res.PermissionType = UnknownType
		slog.Info("unknown permission dialog", "chars", len(res.RecognizedText))
		return res, nil
	}
	res.PermissionType = def.Type

	keywords := def.Allow
	if action == Deny {
		keywords = def.Deny
	}
	res.Handled = h.activateButton(ctx, keywords)

	slog.Info("permission dialog", "type", def.Type, "action", action.String(), "handled", res.Handled)
	return res, nil
}

func (h *Handler) saveScreenshot(image []byte) (string, error) {
	if err := os.MkdirAll(h.screenshotDir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	name := "screenshot_" + h.now().Format("20060102_150405") + ".png"
	path := filepath.Join(h.screenshotDir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("save screenshot: %w", err)
	}
	return path, nil
}

// activateButton presses the first button matching keywords. Alert buttons
// are tried first, then XPath lookups on button names.
func (h *Handler) activateButton(ctx context.Context, keywords []string) bool {
	if h.acceptAlertButton(ctx, keywords) {
		return true
	}
	if !h.buttonsPresent(ctx) {
		return false
	}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		ok, err := h.session.TapElement(ctx, session.ButtonNameContains(kw))
		if err != nil {
			slog.Debug("tap button failed", "keyword", kw, "error", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// buttonsPresent waits up to buttonWait for any button on screen. Sessions
// that cannot wait, and failed lookups, count as present so the XPath tier
// still runs.
func (h *Handler) buttonsPresent(ctx context.Context) bool {
	w, ok := h.session.(elementWaiter)
	if !ok {
		return true
	}
	present, err := w.ElementPresent(ctx, session.AnyButton, buttonWait)
	if err != nil {
		slog.Debug("button presence check failed", "error", err)
		return true
	}
	if !present {
		slog.Debug("no buttons on screen, skipping locator lookups")
	}
	return present
}

// acceptAlertButton accepts the alert with the first label containing a
// keyword. Any failure gives up on alert buttons altogether.
func (h *Handler) acceptAlertButton(ctx context.Context, keywords []string) bool {
	labels, err := h.session.AlertButtons(ctx)
	if err != nil {
		slog.Debug("alert buttons unavailable", "error", err)
		return false
	}
	for _, label := range labels {
		for _, kw := range keywords {
			if kw == "" || !catalog.ContainsFold(label, kw) {
				continue
			}
			if err := h.session.AcceptAlert(ctx, label); err != nil {
				slog.Debug("accept alert failed", "label", label, "error", err)
				return false
			}
			return true
		}
	}
	return false
}
