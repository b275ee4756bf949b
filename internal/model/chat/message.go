package chat

import "time"

// MessageType classifies a transcript entry.
type MessageType string

const (
	MessageUser   MessageType = "user"
	MessageBot    MessageType = "bot"
	MessageSystem MessageType = "system"
	MessageError  MessageType = "error"
)

// DefaultSender names the author of messages sent without a known user.
const DefaultSender = "anonymous"

// Message is one client-local transcript entry.
type Message struct {
	Text      string      `json:"text"`
	Sender    string      `json:"sender"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}
