package chat

import (
	"encoding/json"
	"testing"
)

func TestParticipantsDecodeString(t *testing.T) {
	var p Participants
	if err := json.Unmarshal([]byte(`"a@b.com, c@d.com ,a@b.com,"`), &p); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if len(p) != 2 || p[0] != "a@b.com" || p[1] != "c@d.com" {
		t.Fatalf("unexpected participants: %v", p)
	}
}

func TestParticipantsDecodeArray(t *testing.T) {
	var p Participants
	if err := json.Unmarshal([]byte(`["u1"," u2 ","u1"]`), &p); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if len(p) != 2 || p[1] != "u2" {
		t.Fatalf("unexpected participants: %v", p)
	}
}

func TestParticipantsDecodeRejectsNumbers(t *testing.T) {
	var p Participants
	if err := json.Unmarshal([]byte(`42`), &p); err == nil {
		t.Fatal("expected error for numeric participants")
	}
}

func TestParticipantsEncodeNilAsArray(t *testing.T) {
	data, err := json.Marshal(Session{ID: "x"})
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if _, ok := decoded["participants"].([]any); !ok {
		t.Fatalf("expected participants array, got %v", decoded["participants"])
	}
}

func TestContextTypeRules(t *testing.T) {
	if !ContextOrder.RequiresRef() || !ContextProduct.RequiresRef() {
		t.Fatal("order and product contexts must require a ref")
	}
	if ContextGeneric.RequiresRef() {
		t.Fatal("generic context must not require a ref")
	}
	if ContextType("woocommerce_order").Valid() {
		t.Fatal("unexpected valid context type")
	}
}

func TestCloneDoesNotShare(t *testing.T) {
	s := Session{Participants: Participants{"a"}, Metadata: map[string]string{"k": "v"}}
	c := s.Clone()
	c.Participants[0] = "b"
	c.Metadata["k"] = "w"
	if s.Participants[0] != "a" || s.Metadata["k"] != "v" {
		t.Fatal("clone shares state with original")
	}
}
