package commerce

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/workcity-chat/backend/internal/event"
	"github.com/zhouzirui/workcity-chat/backend/internal/metrics"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/commerce"
)

// SessionCreator is the part of the session store this service writes to.
type SessionCreator interface {
	CreateSession(ctx context.Context, input chat.NewSession) (chat.Session, error)
}

// OrderStatusChanged is published after an order moves to a new status.
type OrderStatusChanged struct {
	OrderID   string
	OldStatus string
	NewStatus string
	Customer  string
}

// OrderChange is the outcome of ChangeOrderStatus.
type OrderChange struct {
	OrderID        string `json:"order_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
}

// Service links shop orders and products to chat sessions.
type Service struct {
	catalog  commerce.Store
	sessions SessionCreator
	events   *event.Bus[OrderStatusChanged]
	metrics  *metrics.Metrics
}

// NewService wires the catalog to the session store and subscribes the
// order-to-chat sync to the order event bus.
func NewService(catalog commerce.Store, sessions SessionCreator, events *event.Bus[OrderStatusChanged], m *metrics.Metrics) *Service {
	s := &Service{
		catalog:  catalog,
		sessions: sessions,
		events:   events,
		metrics:  m,
	}
	if events != nil {
		events.Subscribe(s.SyncOrderToChat)
	}
	return s
}

// GetOrderContext returns the order fields exposed to chat agents.
func (s *Service) GetOrderContext(_ context.Context, orderID string) (commerce.Order, error) {
	order, ok := s.catalog.FindOrder(orderID)
	if !ok {
		return commerce.Order{}, commerce.ErrOrderNotFound
	}
	return order, nil
}

// StartProductChat opens a session linked to a product.
func (s *Service) StartProductChat(ctx context.Context, productID string, participants ...string) (chat.Session, error) {
	product, ok := s.catalog.FindProduct(productID)
	if !ok {
		return chat.Session{}, commerce.ErrProductNotFound
	}

	return s.sessions.CreateSession(ctx, chat.NewSession{
		Title:        "Product Chat: " + product.Name,
		Content:      "Chat session for product: " + product.Name,
		Participants: chat.NewParticipants(participants...),
		ContextType:  chat.ContextProduct,
		ContextRef:   product.ID,
	})
}

// ChangeOrderStatus records a new order status and publishes the change.
// Setting the current status again publishes nothing. The order change is
// committed before subscribers run, so their failures are logged and do not
// fail the call.
func (s *Service) ChangeOrderStatus(ctx context.Context, orderID, status string) (OrderChange, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return OrderChange{}, fmt.Errorf("%w: status is required", chat.ErrValidation)
	}

	order, ok := s.catalog.FindOrder(orderID)
	if !ok {
		return OrderChange{}, commerce.ErrOrderNotFound
	}
	if order.Status == status {
		return OrderChange{OrderID: orderID, PreviousStatus: status, Status: status}, nil
	}

	previous, err := s.catalog.UpdateOrderStatus(orderID, status)
	if err != nil {
		return OrderChange{}, err
	}

	change := OrderChange{OrderID: orderID, PreviousStatus: previous, Status: status}
	if s.events == nil || previous == status {
		return change, nil
	}

	s.metrics.OrderEvent()
	if err := s.events.Publish(ctx, OrderStatusChanged{
		OrderID:   orderID,
		OldStatus: previous,
		NewStatus: status,
		Customer:  order.CustomerEmail,
	}); err != nil {
		log.Printf("[commerce] order %s moved %s -> %s but subscribers failed: %v", orderID, previous, status, err)
	}
	return change, nil
}

// SyncOrderToChat creates a session describing an order status change.
func (s *Service) SyncOrderToChat(ctx context.Context, evt OrderStatusChanged) error {
	_, err := s.sessions.CreateSession(ctx, chat.NewSession{
		Title:        fmt.Sprintf("Order #%s - Status Update", evt.OrderID),
		Content:      fmt.Sprintf("Order status changed from %s to %s. Customer: %s", evt.OldStatus, evt.NewStatus, evt.Customer),
		Participants: chat.NewParticipants(evt.Customer),
		ContextType:  chat.ContextOrder,
		ContextRef:   evt.OrderID,
		Metadata: map[string]string{
			"customer_email": evt.Customer,
			"order_status":   evt.NewStatus,
		},
	})
	if err != nil {
		log.Printf("[commerce] failed to sync order %s to chat: %v", evt.OrderID, err)
		return err
	}

	return nil
}
