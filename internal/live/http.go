package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTP delivers messages with POST {baseURL}/messages. It has no handshake and
// never pushes messages back.
type HTTP struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTP returns a send-only channel. token may be empty.
func NewHTTP(baseURL, token string) *HTTP {
	return &HTTP{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTP) Connect(_ context.Context) error {
	u, err := url.Parse(h.baseURL)
	if err != nil {
		return &TransportError{Op: "connect", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &TransportError{Op: "connect", Err: fmt.Errorf("unsupported url %q", h.baseURL)}
	}
	return nil
}

func (h *HTTP) Send(ctx context.Context, msg Outbound) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return &TransportError{Op: "send", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	res, err := h.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &TransportError{Op: "send", Err: errors.New(res.Status)}
	}
	return nil
}

func (h *HTTP) Incoming() <-chan Inbound {
	return nil
}

func (h *HTTP) Close() error {
	h.httpClient.CloseIdleConnections()
	return nil
}
