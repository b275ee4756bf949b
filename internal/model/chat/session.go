package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusClosed
}

// ContextType tags the external object a session is linked to.
type ContextType string

const (
	ContextNone    ContextType = ""
	ContextOrder   ContextType = "order"
	ContextProduct ContextType = "product"
	ContextGeneric ContextType = "generic"
)

// Valid reports whether c is a known context type (the empty type included).
func (c ContextType) Valid() bool {
	switch c {
	case ContextNone, ContextOrder, ContextProduct, ContextGeneric:
		return true
	}
	return false
}

// RequiresRef reports whether sessions of this type must carry a contextRef.
func (c ContextType) RequiresRef() bool {
	return c == ContextOrder || c == ContextProduct
}

// Session is the durable record of one conversation.
type Session struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Participants Participants      `json:"participants"`
	Status       Status            `json:"status"`
	ContextType  ContextType       `json:"context_type,omitempty"`
	ContextRef   string            `json:"context_ref,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// NewSession carries the caller-supplied fields of a session to be created.
type NewSession struct {
	Title        string
	Content      string
	Participants Participants
	ContextType  ContextType
	ContextRef   string
	Metadata     map[string]string
}

// Participants is a set of participant identifiers kept in insertion order.
// It decodes from either a JSON array or a comma separated string.
type Participants []string

// NewParticipants trims and de-duplicates ids, dropping empty entries.
func NewParticipants(ids ...string) Participants {
	seen := make(map[string]struct{}, len(ids))
	out := make(Participants, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// UnmarshalJSON accepts `["a","b"]`, `"a, b"` and null.
func (p *Participants) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*p = Participants{}
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("participants: %w", err)
		}
		*p = NewParticipants(ids...)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("participants must be a string or an array of strings: %w", err)
	}
	*p = NewParticipants(strings.Split(raw, ",")...)
	return nil
}

// MarshalJSON always renders an array, never null.
func (p Participants) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(p))
}

// Clone returns a deep copy so stored sessions never share slices or maps
// with callers.
func (s Session) Clone() Session {
	out := s
	if s.Participants != nil {
		out.Participants = append(Participants(nil), s.Participants...)
	}
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
