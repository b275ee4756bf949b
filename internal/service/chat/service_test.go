package chat_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
	"github.com/zhouzirui/workcity-chat/backend/internal/repository/memory"
	chatservice "github.com/zhouzirui/workcity-chat/backend/internal/service/chat"
)

func newService() (*chatservice.Service, *memory.SessionRepository) {
	repo := memory.NewSessionRepository()
	return chatservice.NewService(repo, nil), repo
}

func TestServiceCreateSessionAssignsUniqueActiveIDs(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		session, err := svc.CreateSession(ctx, chat.NewSession{Title: fmt.Sprintf("chat %d", i)})
		if err != nil {
			t.Fatalf("CreateSession err: %v", err)
		}
		if session.Status != chat.StatusActive {
			t.Fatalf("expected active status, got %s", session.Status)
		}
		if session.ID == "" || seen[session.ID] {
			t.Fatalf("id %q is empty or duplicated", session.ID)
		}
		seen[session.ID] = true
	}
}

func TestServiceCreateSessionEmptyTitle(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	for _, title := range []string{"", "   "} {
		if _, err := svc.CreateSession(ctx, chat.NewSession{Title: title, Content: "x"}); !errors.Is(err, chat.ErrValidation) {
			t.Fatalf("expected ErrValidation for %q, got %v", title, err)
		}
	}

	sessions, _ := repo.List(ctx)
	if len(sessions) != 0 {
		t.Fatalf("expected no persisted sessions, got %d", len(sessions))
	}
}

func TestServiceGetSessionMatchesInput(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, chat.NewSession{
		Title:        "Order #42 - Status Update",
		Content:      "Order status changed",
		Participants: chat.Participants{"a@b.com"},
		ContextType:  chat.ContextOrder,
		ContextRef:   "42",
	})
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID || got.Title != "Order #42 - Status Update" || got.Content != "Order status changed" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if len(got.Participants) != 1 || got.Participants[0] != "a@b.com" {
		t.Fatalf("unexpected participants: %v", got.Participants)
	}
	if got.ContextType != chat.ContextOrder || got.ContextRef != "42" {
		t.Fatalf("unexpected context: %s/%s", got.ContextType, got.ContextRef)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected createdAt to be assigned")
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, chat.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetSession(ctx, ""); !errors.Is(err, chat.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty id, got %v", err)
	}
}

func TestServiceCreateSessionContextInvariants(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	cases := []chat.NewSession{
		{Title: "dangling", ContextRef: "42"},
		{Title: "order without ref", ContextType: chat.ContextOrder},
		{Title: "unknown", ContextType: "woocommerce_order", ContextRef: "1"},
	}
	for _, input := range cases {
		if _, err := svc.CreateSession(ctx, input); !errors.Is(err, chat.ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", input, err)
		}
	}

	if _, err := svc.CreateSession(ctx, chat.NewSession{Title: "generic", ContextType: chat.ContextGeneric}); err != nil {
		t.Fatalf("generic context without ref should be accepted: %v", err)
	}
}

func TestServiceUpdateSessionStatus(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, chat.NewSession{Title: "to close"})
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if err := svc.UpdateSessionStatus(ctx, session.ID, chat.StatusActive); err != nil {
		t.Fatalf("no-op update err: %v", err)
	}
	if err := svc.UpdateSessionStatus(ctx, session.ID, chat.StatusClosed); err != nil {
		t.Fatalf("UpdateSessionStatus err: %v", err)
	}

	got, _ := svc.GetSession(ctx, session.ID)
	if got.Status != chat.StatusClosed {
		t.Fatalf("expected closed, got %s", got.Status)
	}

	if err := svc.UpdateSessionStatus(ctx, "missing", chat.StatusClosed); !errors.Is(err, chat.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.UpdateSessionStatus(ctx, session.ID, "archived"); !errors.Is(err, chat.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

type failingRepository struct {
	*memory.SessionRepository
}

func (failingRepository) Insert(context.Context, chat.Session) error {
	return fmt.Errorf("%w: disk full", chat.ErrPersistence)
}

func TestServiceCreateSessionPersistenceError(t *testing.T) {
	svc := chatservice.NewService(failingRepository{memory.NewSessionRepository()}, nil)

	if _, err := svc.CreateSession(context.Background(), chat.NewSession{Title: "t"}); !errors.Is(err, chat.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestServiceFindSessions(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, _ = svc.CreateSession(ctx, chat.NewSession{Title: "p", ContextType: chat.ContextProduct, ContextRef: "7"})
	_, _ = svc.CreateSession(ctx, chat.NewSession{Title: "other"})

	got, err := svc.FindSessions(ctx, chat.ContextProduct, "7")
	if err != nil {
		t.Fatalf("FindSessions err: %v", err)
	}
	if len(got) != 1 || got[0].Title != "p" {
		t.Fatalf("unexpected sessions: %+v", got)
	}

	if _, err := svc.FindSessions(ctx, chat.ContextNone, "7"); !errors.Is(err, chat.ErrValidation) {
		t.Fatalf("expected ErrValidation for dangling ref filter, got %v", err)
	}
}
