package live

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// FromURL picks a channel implementation by URL scheme: ws and wss get a
// WebSocket channel, http and https the send-only HTTP channel. An empty URL
// returns a nil channel, which callers treat as offline.
func FromURL(rawURL, token string) (Channel, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid live url %q: %w", rawURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		opts := DefaultWebSocketOptions()
		if token != "" {
			opts.Header = http.Header{"Authorization": []string{"Bearer " + token}}
		}
		return NewWebSocket(rawURL, opts), nil
	case "http", "https":
		return NewHTTP(rawURL, token), nil
	}
	return nil, fmt.Errorf("unsupported live url scheme %q", u.Scheme)
}
