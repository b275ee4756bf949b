package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/workcity-chat/backend/internal/handler"
	"github.com/zhouzirui/workcity-chat/backend/internal/middleware"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
	"github.com/zhouzirui/workcity-chat/backend/internal/repository/memory"
	chatservice "github.com/zhouzirui/workcity-chat/backend/internal/service/chat"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	chatSvc := chatservice.NewService(memory.NewSessionRepository(), nil)
	auth := middleware.NewAuthenticator(map[string][]string{"writer": {middleware.CapEditSessions}})
	srv := httptest.NewServer(handler.NewRouter(chatSvc, nil, auth, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCreateAndGetSession(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/api", "writer")
	ctx := context.Background()

	created, err := c.CreateSession(ctx, chat.NewSession{
		Title:        "Web Chat: 2026-10-14 09:00:00",
		Content:      "hi",
		Participants: chat.Participants{"guest-1"},
		ContextType:  chat.ContextGeneric,
		Metadata:     map[string]string{"source": "widget"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, chat.StatusActive, created.Status)
	assert.Equal(t, chat.Participants{"guest-1"}, created.Participants)
	assert.Equal(t, chat.ContextGeneric, created.ContextType)
	assert.Equal(t, "widget", created.Metadata["source"])

	got, err := c.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)

	all, err := c.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestClientMapsErrors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := New(srv.URL+"/api", "writer").GetSession(ctx, "missing")
	assert.ErrorIs(t, err, chat.ErrNotFound)

	_, err = New(srv.URL+"/api", "writer").CreateSession(ctx, chat.NewSession{Title: " "})
	assert.ErrorIs(t, err, chat.ErrValidation)

	_, err = New(srv.URL+"/api", "").CreateSession(ctx, chat.NewSession{Title: "no token"})
	assert.ErrorIs(t, err, chat.ErrPersistence)
}

func TestClientUnreachableServer(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL
	srv.Close()

	_, err := New(url+"/api", "writer").CreateSession(context.Background(), chat.NewSession{Title: "t"})
	assert.ErrorIs(t, err, chat.ErrPersistence)
}
