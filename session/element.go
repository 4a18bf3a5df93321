package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// W3C element reference key, with the legacy JSONWP key as fallback.
const (
	w3cElementKey    = "element-6066-11e4-a52e-4f735466cecf"
	legacyElementKey = "ELEMENT"
)

type elementRef map[string]string

func (r elementRef) id() string {
	if id := r[w3cElementKey]; id != "" {
		return id
	}
	return r[legacyElementKey]
}

// AnyButton matches every XCUIElementTypeButton on screen.
const AnyButton = "//XCUIElementTypeButton"

// ButtonNameContains builds an XPath matching XCUIElementTypeButton elements
// whose name contains s.
func ButtonNameContains(s string) string {
	return fmt.Sprintf("%s[contains(@name, %s)]", AnyButton, xpathLiteral(s))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// FindElement returns the id of the first element matching xpath.
func (c *Client) FindElement(ctx context.Context, xpath string) (string, error) {
	var ref elementRef
	body := map[string]any{"using": "xpath", "value": xpath}
	if err := c.do(ctx, http.MethodPost, c.path("/element"), body, &ref); err != nil {
		return "", fmt.Errorf("find element %s: %w", xpath, err)
	}
	id := ref.id()
	if id == "" {
		return "", &Error{Status: http.StatusNotFound, Code: codeNoSuchElement, Message: xpath}
	}
	return id, nil
}

// Click clicks the element with the given id.
func (c *Client) Click(ctx context.Context, elementID string) error {
	if err := c.do(ctx, http.MethodPost, c.path("/element/"+elementID+"/click"), map[string]any{}, nil); err != nil {
		return fmt.Errorf("click %s: %w", elementID, err)
	}
	return nil
}

// TapElement finds the first element matching xpath and clicks it. A locator
// that matches nothing yields (false, nil).
func (c *Client) TapElement(ctx context.Context, xpath string) (bool, error) {
	id, err := c.FindElement(ctx, xpath)
	if err != nil {
		if IsNoSuchElement(err) {
			return false, nil
		}
		return false, err
	}
	if err := c.Click(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// SetImplicitWait sets how long element lookups wait for a match.
func (c *Client) SetImplicitWait(ctx context.Context, d time.Duration) error {
	body := map[string]any{"implicit": d.Milliseconds()}
	if err := c.do(ctx, http.MethodPost, c.path("/timeouts"), body, nil); err != nil {
		return fmt.Errorf("set implicit wait: %w", err)
	}
	return nil
}

// ElementPresent reports whether any element matches xpath within wait. The
// implicit wait is reset to zero afterwards.
func (c *Client) ElementPresent(ctx context.Context, xpath string, wait time.Duration) (bool, error) {
	if err := c.SetImplicitWait(ctx, wait); err != nil {
		return false, err
	}
	defer func() {
		if err := c.SetImplicitWait(ctx, 0); err != nil {
			slog.Warn("reset implicit wait failed", "session", c.sessionID, "error", err)
		}
	}()

	var refs []elementRef
	body := map[string]any{"using": "xpath", "value": xpath}
	if err := c.do(ctx, http.MethodPost, c.path("/elements"), body, &refs); err != nil {
		if IsNoSuchElement(err) {
			return false, nil
		}
		return false, fmt.Errorf("find elements %s: %w", xpath, err)
	}
	return len(refs) > 0, nil
}
