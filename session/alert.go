package session

import (
	"context"
	"fmt"
)

// alertCommand is the XCUITest alert introspection command.
const alertCommand = "mobile: alert"

// AlertButtons returns the button labels of the alert currently on screen.
func (c *Client) AlertButtons(ctx context.Context) ([]string, error) {
	var labels []string
	if err := c.execute(ctx, alertCommand, map[string]any{"action": "getButtons"}, &labels); err != nil {
		return nil, fmt.Errorf("alert getButtons: %w", err)
	}
	return labels, nil
}

// AcceptAlert dismisses the current alert by pressing the button with the given label.
func (c *Client) AcceptAlert(ctx context.Context, label string) error {
	args := map[string]any{
		"action":      "accept",
		"buttonLabel": label,
	}
	if err := c.execute(ctx, alertCommand, args, nil); err != nil {
		return fmt.Errorf("alert accept %q: %w", label, err)
	}
	return nil
}

// HasSystemAlert reports whether a system alert with at least one button is
// shown. The server's "no such alert" error is the normal negative answer and
// is not returned as an error.
func (c *Client) HasSystemAlert(ctx context.Context) (bool, error) {
	labels, err := c.AlertButtons(ctx)
	if err != nil {
		if IsNoSuchAlert(err) {
			return false, nil
		}
		return false, err
	}
	return len(labels) > 0, nil
}
