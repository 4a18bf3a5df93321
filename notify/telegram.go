package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/user/alertwatch/handler"
	"github.com/user/alertwatch/sanitize"
)

// Event kinds a found dialog is reported as.
const (
	EventHandled   = "handled"
	EventUnhandled = "unhandled"
	EventUnknown   = "unknown"
)

// Telegram limits, in characters.
const (
	maxCaption = 1024
	maxMessage = 4096
)

// sender is the part of *bot.Bot the notifier uses.
type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
}

// Telegram pushes found-dialog outcomes to a set of chats.
type Telegram struct {
	sender  sender
	chatIDs []int64
	events  map[string]bool
	redact  bool

	mu   sync.Mutex
	last string // key of the last result sent, cleared by Reset
}

// NewTelegram connects a bot with token. Only results of the listed event
// kinds are sent.
func NewTelegram(token string, chatIDs []int64, events []string, redact bool) (*Telegram, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return newTelegram(b, chatIDs, events, redact), nil
}

func newTelegram(s sender, chatIDs []int64, events []string, redact bool) *Telegram {
	set := make(map[string]bool, len(events))
	for _, e := range events {
		set[e] = true
	}
	return &Telegram{
		sender:  s,
		chatIDs: append([]int64(nil), chatIDs...),
		events:  set,
		redact:  redact,
	}
}

// EventKind classifies a found result.
func EventKind(res handler.Result) string {
	switch {
	case res.PermissionType == handler.UnknownType:
		return EventUnknown
	case res.Handled:
		return EventHandled
	default:
		return EventUnhandled
	}
}

// Notify sends res to every chat if its event kind is enabled. Results with
// no dialog are ignored, and so is a result identical to the previous one
// sent since the last Reset: a dialog left on screen is reported once.
func (t *Telegram) Notify(ctx context.Context, res handler.Result) error {
	if !res.Found {
		return nil
	}
	kind := EventKind(res)
	if !t.events[kind] {
		return nil
	}
	key := kind + "\x00" + res.PermissionType + "\x00" + res.RecognizedText
	t.mu.Lock()
	repeat := key == t.last
	t.last = key
	t.mu.Unlock()
	if repeat {
		slog.Debug("telegram notification suppressed, same dialog", "event", kind, "type", res.PermissionType)
		return nil
	}

	var photo []byte
	if res.ScreenshotPath != "" {
		data, err := os.ReadFile(res.ScreenshotPath)
		if err != nil {
			slog.Warn("screenshot unreadable, sending text only", "path", res.ScreenshotPath, "error", err)
		} else {
			photo = data
		}
	}

	var errs []error
	for _, chatID := range t.chatIDs {
		var err error
		if photo != nil {
			_, err = t.sender.SendPhoto(ctx, &bot.SendPhotoParams{
				ChatID:    chatID,
				Photo:     &models.InputFileUpload{Filename: filepath.Base(res.ScreenshotPath), Data: bytes.NewReader(photo)},
				Caption:   t.format(kind, res, maxCaption),
				ParseMode: models.ParseModeHTML,
			})
		} else {
			_, err = t.sender.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    chatID,
				Text:      t.format(kind, res, maxMessage),
				ParseMode: models.ParseModeHTML,
			})
		}
		if err != nil {
			slog.Error("telegram send failed", "chat", chatID, "event", kind, "error", err)
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// Reset forgets the last result sent, so the next one is delivered even if
// it is identical. Call it once the dialog is gone.
func (t *Telegram) Reset() {
	t.mu.Lock()
	t.last = ""
	t.mu.Unlock()
}

// format renders the message body, keeping it under limit characters.
func (t *Telegram) format(kind string, res handler.Result, limit int) string {
	head := fmt.Sprintf("<b>%s</b>: %s", escapeHTML(kind), escapeHTML(res.PermissionType))
	text := sanitize.Redact(res.RecognizedText, t.redact)
	if text == "" {
		return head
	}
	// Room left for the text once head and the <pre> wrapper are counted.
	room := limit - utf8.RuneCountInString(head) - len("\n<pre></pre>")
	text = escapeHTML(truncate(text, room))
	if utf8.RuneCountInString(text) > room {
		text = truncate(text, room)
		// an escape sequence may have been cut; drop the partial entity
		if i := strings.LastIndex(text, "&"); i >= 0 && !strings.Contains(text[i:], ";") {
			text = text[:i]
		}
	}
	return head + "\n<pre>" + text + "</pre>"
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}

func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}
