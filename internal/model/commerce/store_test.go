package commerce

import (
	"errors"
	"testing"
)

func TestMemoryStoreLookups(t *testing.T) {
	store := NewMemoryStore(Seed())

	order, ok := store.FindOrder("42")
	if !ok || order.CustomerEmail != "a@b.com" {
		t.Fatalf("unexpected order lookup: %+v %v", order, ok)
	}
	if _, ok := store.FindProduct("missing"); ok {
		t.Fatal("expected missing product")
	}
}

func TestMemoryStoreUpdateOrderStatus(t *testing.T) {
	store := NewMemoryStore(Seed())

	previous, err := store.UpdateOrderStatus("42", "processing")
	if err != nil {
		t.Fatalf("UpdateOrderStatus err: %v", err)
	}
	if previous != "pending" {
		t.Fatalf("expected previous status pending, got %s", previous)
	}
	if order, _ := store.FindOrder("42"); order.Status != "processing" {
		t.Fatalf("status not updated: %s", order.Status)
	}

	if _, err := store.UpdateOrderStatus("1000", "completed"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
