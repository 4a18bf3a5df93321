package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// Screenshot captures the device screen as PNG bytes.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	var encoded string
	if err := c.do(ctx, http.MethodGet, c.path("/screenshot"), nil, &encoded); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("screenshot: empty image")
	}
	return data, nil
}
