package live

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketOptions tunes the WebSocket channel.
type WebSocketOptions struct {
	Header       http.Header
	WriteTimeout time.Duration // 写入超时时间
	ReadTimeout  time.Duration // 读取超时时间，收到 pong 或消息时续期
	PingInterval time.Duration // Ping间隔
}

// DefaultWebSocketOptions 默认连接选项
func DefaultWebSocketOptions() WebSocketOptions {
	return WebSocketOptions{
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// WebSocket is a live channel over a WebSocket connection exchanging JSON
// frames.
type WebSocket struct {
	url  string
	opts WebSocketOptions

	mu       sync.Mutex
	conn     *websocket.Conn
	incoming chan Inbound
	done     chan struct{}
}

func NewWebSocket(url string, opts WebSocketOptions) *WebSocket {
	defaults := DefaultWebSocketOptions()
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaults.WriteTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaults.ReadTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaults.PingInterval
	}
	return &WebSocket{url: url, opts: opts}
}

// Connect dials the backend. The handshake is bounded by ctx.
func (c *WebSocket) Connect(ctx context.Context) error {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.opts.WriteTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, c.opts.Header)
	if err != nil {
		return &TransportError{Op: "connect", Err: err}
	}

	readTimeout := c.opts.ReadTimeout
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	incoming := make(chan Inbound, 16)
	done := make(chan struct{})

	c.mu.Lock()
	if c.conn != nil {
		c.closeLocked()
	}
	c.conn = conn
	c.incoming = incoming
	c.done = done
	c.mu.Unlock()

	go c.readPump(conn, incoming, done)
	go c.pingLoop(conn, done)
	return nil
}

func (c *WebSocket) Send(ctx context.Context, msg Outbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return &TransportError{Op: "send", Err: errors.New("not connected")}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.opts.WriteTimeout)
	}
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(msg); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

func (c *WebSocket) Incoming() <-chan Inbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.incoming
}

func (c *WebSocket) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *WebSocket) closeLocked() error {
	if c.conn == nil {
		return nil
	}

	close(c.done)
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	err := c.conn.Close()
	c.conn = nil
	return err
}

// readPump 读取服务端推送的消息直到连接关闭
func (c *WebSocket) readPump(conn *websocket.Conn, incoming chan<- Inbound, done <-chan struct{}) {
	defer close(incoming)

	for {
		var msg Inbound
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))

		select {
		case incoming <- msg:
		case <-done:
			return
		}
	}
}

// pingLoop 定期发送ping消息
func (c *WebSocket) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteTimeout)); err != nil {
				return
			}
		}
	}
}
