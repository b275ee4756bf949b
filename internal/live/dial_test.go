package live

import "testing"

func TestFromURL(t *testing.T) {
	ch, err := FromURL("", "tok")
	if err != nil || ch != nil {
		t.Fatalf("empty url should be offline, got %v, %v", ch, err)
	}

	ch, err = FromURL("wss://chat.example.com/ws", "tok")
	if err != nil {
		t.Fatalf("FromURL err: %v", err)
	}
	ws, ok := ch.(*WebSocket)
	if !ok {
		t.Fatalf("expected *WebSocket, got %T", ch)
	}
	if got := ws.opts.Header.Get("Authorization"); got != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", got)
	}

	ch, err = FromURL("http://localhost:8080/api", "")
	if err != nil {
		t.Fatalf("FromURL err: %v", err)
	}
	if _, ok := ch.(*HTTP); !ok {
		t.Fatalf("expected *HTTP, got %T", ch)
	}

	if _, err := FromURL("ftp://example.com", ""); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}
