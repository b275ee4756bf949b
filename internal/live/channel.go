package live

import (
	"context"
	"fmt"
	"time"
)

// Outbound is the message payload sent to the live backend.
type Outbound struct {
	Message   string    `json:"message"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Inbound is a message pushed by the live backend.
type Inbound struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// Channel is a real-time connection to a messaging backend.
type Channel interface {
	// Connect performs the handshake; ctx bounds how long it may take.
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg Outbound) error
	// Incoming returns pushed messages after a successful Connect, or nil for
	// send-only channels. It is closed when the connection ends.
	Incoming() <-chan Inbound
	Close() error
}

// TransportError reports that the live backend was unreachable, timed out or
// rejected a message.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("live %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
