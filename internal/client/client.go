package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
)

const JSONContentType = "application/json"

type apiErrorResponse struct {
	Error string `json:"error"`
}

// Client talks to the session store REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New returns a client for baseURL (for example http://localhost:8080/api).
// token authorizes writes and may be empty for read-only use.
func New(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// CreateSession posts a new session and returns it as the server stored it.
func (c *Client) CreateSession(ctx context.Context, input chat.NewSession) (chat.Session, error) {
	payload := map[string]any{
		"title":        input.Title,
		"content":      input.Content,
		"participants": input.Participants,
	}
	if input.ContextType != chat.ContextNone {
		payload["context_type"] = input.ContextType
	}
	if input.ContextRef != "" {
		payload["context_ref"] = input.ContextRef
	}
	if len(input.Metadata) > 0 {
		payload["metadata"] = input.Metadata
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/sessions", payload, &created); err != nil {
		return chat.Session{}, err
	}
	return c.GetSession(ctx, created.ID)
}

// GetSession fetches one session; unknown ids yield chat.ErrNotFound.
func (c *Client) GetSession(ctx context.Context, id string) (chat.Session, error) {
	var session chat.Session
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, &session); err != nil {
		return chat.Session{}, err
	}
	return session, nil
}

// ListSessions fetches the session summaries.
func (c *Client) ListSessions(ctx context.Context) ([]chat.Session, error) {
	var sessions []chat.Session
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", chat.ErrValidation, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", JSONContentType)
	if body != nil {
		req.Header.Set("Content-Type", JSONContentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", chat.ErrPersistence, method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", chat.ErrPersistence, err)
	}

	if err := handleAPIError(res, data); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", chat.ErrPersistence, err)
	}
	return nil
}

func handleAPIError(res *http.Response, body []byte) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	var apiErr apiErrorResponse
	message := res.Status
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		message = apiErr.Error
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", chat.ErrNotFound, message)
	case res.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", chat.ErrValidation, message)
	default:
		return fmt.Errorf("%w: status %d: %s", chat.ErrPersistence, res.StatusCode, message)
	}
}
