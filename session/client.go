package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/user/alertwatch/preset"
)

// Client is a WebDriver session on an Appium server.
type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client
}

// Error is an error reported by the WebDriver server.
type Error struct {
	Status  int    // HTTP status
	Code    string // W3C error code, e.g. "no such alert"
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("webdriver: %s (HTTP %d)", e.Code, e.Status)
	}
	return fmt.Sprintf("webdriver: %s: %s (HTTP %d)", e.Code, e.Message, e.Status)
}

const (
	codeNoSuchAlert   = "no such alert"
	codeNoSuchElement = "no such element"
)

// IsNoSuchAlert reports whether err means no alert is currently shown.
func IsNoSuchAlert(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == codeNoSuchAlert
}

// IsNoSuchElement reports whether err means a locator matched nothing.
func IsNoSuchElement(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == codeNoSuchElement
}

type response struct {
	Value json.RawMessage `json:"value"`
}

type errorValue struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Open starts a new session for p. The preset's connection timeout bounds
// every request made through the returned client.
func Open(ctx context.Context, p preset.Preset) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(p.ServerURL, "/"),
		http:    &http.Client{Timeout: p.ConnectionTimeout},
	}

	body := map[string]any{
		"capabilities": map[string]any{
			"alwaysMatch": p.Capabilities(),
			"firstMatch":  []map[string]any{{}},
		},
	}
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/session", body, &created); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	if created.SessionID == "" {
		return nil, fmt.Errorf("open session: server returned no session id")
	}
	c.sessionID = created.SessionID

	slog.Info("session opened", "server", c.baseURL, "session", c.sessionID, "device", p.DeviceName, "platform_version", p.PlatformVersion)
	return c, nil
}

// Attach returns a client for an already running session.
func Attach(serverURL, sessionID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:   strings.TrimRight(serverURL, "/"),
		sessionID: sessionID,
		http:      httpClient,
	}
}

// ID returns the WebDriver session id.
func (c *Client) ID() string {
	return c.sessionID
}

// Close deletes the session on the server.
func (c *Client) Close(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, c.path(""), nil, nil); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	slog.Info("session closed", "session", c.sessionID)
	return nil
}

// path returns a session-scoped endpoint path.
func (c *Client) path(suffix string) string {
	return "/session/" + c.sessionID + suffix
}

// execute runs a script command such as "mobile: alert".
func (c *Client) execute(ctx context.Context, script string, args map[string]any, out any) error {
	body := map[string]any{
		"script": script,
		"args":   []any{args},
	}
	return c.do(ctx, http.MethodPost, c.path("/execute/sync"), body, out)
}

// do sends a WebDriver command and decodes the "value" field into out.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var r response
	if len(data) > 0 {
		if err := json.Unmarshal(data, &r); err != nil {
			if resp.StatusCode >= 400 {
				return &Error{Status: resp.StatusCode, Code: "unknown error", Message: strings.TrimSpace(string(data))}
			}
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if e := decodeError(resp.StatusCode, r.Value); e != nil {
		return e
	}
	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode, Code: "unknown error", Message: strings.TrimSpace(string(data))}
	}

	if out == nil || len(r.Value) == 0 || string(r.Value) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Value, out); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}

func decodeError(status int, value json.RawMessage) *Error {
	if len(value) == 0 || value[0] != '{' {
		return nil
	}
	var ev errorValue
	if err := json.Unmarshal(value, &ev); err != nil || ev.Error == "" {
		return nil
	}
	return &Error{Status: status, Code: ev.Error, Message: ev.Message}
}
