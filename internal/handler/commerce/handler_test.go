package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/workcity-chat/backend/internal/event"
	"github.com/zhouzirui/workcity-chat/backend/internal/middleware"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
	commercemodel "github.com/zhouzirui/workcity-chat/backend/internal/model/commerce"
	"github.com/zhouzirui/workcity-chat/backend/internal/repository/memory"
	chatservice "github.com/zhouzirui/workcity-chat/backend/internal/service/chat"
	commerceservice "github.com/zhouzirui/workcity-chat/backend/internal/service/commerce"
)

func setupRouter() (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService(memory.NewSessionRepository(), nil)
	catalog := commercemodel.NewMemoryStore(commercemodel.Seed())
	svc := commerceservice.NewService(catalog, chatSvc, event.NewBus[commerceservice.OrderStatusChanged](), nil)
	auth := middleware.NewAuthenticator(map[string][]string{
		"shop":   {middleware.CapManageOrders},
		"editor": {middleware.CapEditSessions},
	})

	r := chi.NewRouter()
	New(svc, auth).RegisterRoutes(r)
	return r, chatSvc
}

func do(r http.Handler, method, path, token string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestGetOrderContext(t *testing.T) {
	r, _ := setupRouter()

	resp := do(r, http.MethodGet, "/orders/42", "editor", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var order map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if order["order_id"] != "42" || order["customer_email"] != "a@b.com" || order["status"] != "pending" {
		t.Fatalf("unexpected order context: %v", order)
	}
	if _, ok := order["total"]; !ok {
		t.Fatal("order context missing total")
	}

	if resp := do(r, http.MethodGet, "/orders/999", "shop", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := do(r, http.MethodGet, "/orders/42", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestStartProductChat(t *testing.T) {
	r, chatSvc := setupRouter()

	resp := do(r, http.MethodPost, "/products/8/chat", "editor", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode err: %v", err)
	}

	session, err := chatSvc.GetSession(context.Background(), out.SessionID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if session.Title != "Product Chat: Ergonomic Chair" || session.ContextRef != "8" {
		t.Fatalf("unexpected session: %+v", session)
	}

	if resp := do(r, http.MethodPost, "/products/999/chat", "editor", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestStartProductChatWithParticipants(t *testing.T) {
	r, chatSvc := setupRouter()

	resp := do(r, http.MethodPost, "/products/7/chat", "editor", []byte(`{"participants":"shopper@example.com"}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)

	session, _ := chatSvc.GetSession(context.Background(), out.SessionID)
	if len(session.Participants) != 1 || session.Participants[0] != "shopper@example.com" {
		t.Fatalf("unexpected participants: %v", session.Participants)
	}
}

func TestChangeOrderStatusCreatesSession(t *testing.T) {
	r, chatSvc := setupRouter()

	resp := do(r, http.MethodPost, "/orders/42/status", "shop", []byte(`{"status":"processing"}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	linked, err := chatSvc.FindSessions(context.Background(), chat.ContextOrder, "42")
	if err != nil {
		t.Fatalf("FindSessions err: %v", err)
	}
	if len(linked) != 1 || linked[0].Title != "Order #42 - Status Update" {
		t.Fatalf("unexpected linked sessions: %+v", linked)
	}

	if resp := do(r, http.MethodPost, "/orders/42/status", "editor", []byte(`{"status":"completed"}`)); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if resp := do(r, http.MethodPost, "/orders/42/status", "shop", []byte(`{"status":""}`)); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

type failingSessions struct{}

func (failingSessions) CreateSession(context.Context, chat.NewSession) (chat.Session, error) {
	return chat.Session{}, chat.ErrPersistence
}

func TestChangeOrderStatusSyncFailureStillOK(t *testing.T) {
	catalog := commercemodel.NewMemoryStore(commercemodel.Seed())
	svc := commerceservice.NewService(catalog, failingSessions{}, event.NewBus[commerceservice.OrderStatusChanged](), nil)
	auth := middleware.NewAuthenticator(map[string][]string{"shop": {middleware.CapManageOrders}})
	r := chi.NewRouter()
	New(svc, auth).RegisterRoutes(r)

	resp := do(r, http.MethodPost, "/orders/43/status", "shop", []byte(`{"status":"refunded"}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var change map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&change); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if change["order_id"] != "43" || change["status"] != "refunded" {
		t.Fatalf("unexpected change: %v", change)
	}
	if order, _ := catalog.FindOrder("43"); order.Status != "refunded" {
		t.Fatalf("order status not committed: %+v", order)
	}
}
