package widget

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/workcity-chat/backend/internal/live"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
)

// Transcript texts shown to the user.
const (
	textConnected      = "Connected to chat"
	textConnectFailed  = "Connection failed. Using offline mode."
	textConnectionLost = "Connection lost. Using offline mode."
	textDisconnected   = "Disconnected from chat server"
	textDelivered      = "Message sent to chat system!"
	replyPrefix        = "Message received: "
)

// State is the connection state of a widget.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateConnected
	StateOfflineFallback
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateOfflineFallback:
		return "offline"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Recorder persists session records. Both the in-process session service
// and the REST client satisfy it.
type Recorder interface {
	CreateSession(ctx context.Context, input chat.NewSession) (chat.Session, error)
}

// Config is the per-instance configuration handed over by the embedding page.
type Config struct {
	CurrentUser  string
	ContextLabel string
	ContextType  chat.ContextType
	ContextRef   string

	HandshakeTimeout time.Duration
	SendTimeout      time.Duration
	ReplyDelay       time.Duration
	RecordTimeout    time.Duration

	// AutoSession records a session on Open when the current user is known.
	AutoSession bool
}

func (c Config) withDefaults() Config {
	if c.ContextLabel == "" {
		c.ContextLabel = "Web"
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 2 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 5 * time.Second
	}
	if c.ReplyDelay <= 0 {
		c.ReplyDelay = time.Second
	}
	if c.RecordTimeout <= 0 {
		c.RecordTimeout = 10 * time.Second
	}
	return c
}

// Widget is the client side of one chat window: it keeps the local
// transcript, drives the live channel and falls back to a local reply plus a
// session record whenever the channel is unavailable.
//
// All methods are safe for concurrent use and none of them block on I/O.
type Widget struct {
	cfg      Config
	channel  live.Channel
	recorder Recorder
	now      func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	transcript []chat.Message
	input      string
	listeners  []func(chat.Message)

	wg sync.WaitGroup
}

// New builds a closed widget. channel may be nil, in which case every open
// goes straight to offline mode. recorder may be nil to skip session records.
func New(cfg Config, channel live.Channel, recorder Recorder) *Widget {
	return &Widget{
		cfg:      cfg.withDefaults(),
		channel:  channel,
		recorder: recorder,
		now:      time.Now,
	}
}

// OnMessage registers fn for every message appended to the transcript.
// Handlers run synchronously under the widget lock and must not call back
// into the Widget.
func (w *Widget) OnMessage(fn func(chat.Message)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Transcript returns a copy of the messages so far, oldest first.
func (w *Widget) Transcript() []chat.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]chat.Message(nil), w.transcript...)
}

func (w *Widget) SetInput(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.input = text
}

func (w *Widget) Input() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input
}

// Wait blocks until all background work has finished: handshakes, deliveries,
// fallback replies and session writes.
func (w *Widget) Wait() {
	w.wg.Wait()
}

// Open starts connecting to the live channel. It returns immediately; the
// handshake result shows up as a state change and a transcript entry.
func (w *Widget) Open() {
	w.mu.Lock()
	if w.state != StateClosed {
		w.mu.Unlock()
		return
	}

	w.state = StateConnecting
	w.generation++
	gen := w.generation
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	if w.cfg.AutoSession && w.cfg.CurrentUser != "" {
		w.record(chat.NewSession{
			Title:        w.cfg.ContextLabel + " Chat Session",
			Content:      "Chat session started from " + w.cfg.ContextLabel,
			Participants: chat.NewParticipants(w.cfg.CurrentUser),
			ContextType:  w.cfg.ContextType,
			ContextRef:   w.cfg.ContextRef,
			Metadata:     map[string]string{"source": "widget"},
		})
	}

	if w.channel == nil {
		w.degradeLocked(chat.MessageError, textConnectFailed)
		w.mu.Unlock()
		log.Printf("[widget] no live channel configured, using offline mode")
		return
	}
	w.mu.Unlock()

	w.wg.Add(1)
	go w.handshake(ctx, gen)
}

// Close tears down the live channel at once. Pending fallback replies and
// session writes still complete in the background.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateClosed {
		return
	}

	previous := w.state
	w.state = StateClosed
	w.generation++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.channel != nil && (previous == StateConnecting || previous == StateConnected) {
		if err := w.channel.Close(); err != nil {
			log.Printf("[widget] closing live channel: %v", err)
		}
	}
}

// Submit sends the current input buffer. Calling it again before new input
// is typed is a no-op, which absorbs duplicate clicks.
func (w *Widget) Submit() {
	w.mu.Lock()
	text := w.input
	w.input = ""
	w.mu.Unlock()

	w.SendMessage(text)
}

// SendMessage appends text to the transcript as a user message and delivers
// it over the live channel when connected, or falls back to a local reply and
// a session record otherwise. Blank text is ignored. The input buffer is
// cleared in every case.
func (w *Widget) SendMessage(text string) {
	text = strings.TrimSpace(text)

	w.mu.Lock()
	w.input = ""
	if text == "" {
		w.mu.Unlock()
		return
	}

	msg := w.appendLocked(chat.MessageUser, w.sender(), text)
	connected := w.state == StateConnected
	gen := w.generation
	w.mu.Unlock()

	if connected {
		w.wg.Add(1)
		go w.deliver(gen, msg)
		return
	}
	w.fallback(msg)
}

func (w *Widget) sender() string {
	if w.cfg.CurrentUser != "" {
		return w.cfg.CurrentUser
	}
	return chat.DefaultSender
}

func (w *Widget) handshake(ctx context.Context, gen uint64) {
	defer w.wg.Done()

	hctx, cancel := context.WithTimeout(ctx, w.cfg.HandshakeTimeout)
	err := w.channel.Connect(hctx)
	cancel()

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation || w.state != StateConnecting {
		// Closed while connecting. Drop the late connection unless a newer
		// Open already owns the channel.
		if err == nil && w.state != StateConnecting && w.state != StateConnected {
			_ = w.channel.Close()
		}
		return
	}

	if err != nil {
		log.Printf("[widget] live handshake failed: %v", err)
		w.degradeLocked(chat.MessageError, textConnectFailed)
		return
	}

	w.state = StateConnected
	w.appendLocked(chat.MessageSystem, "system", textConnected)

	if incoming := w.channel.Incoming(); incoming != nil {
		w.wg.Add(1)
		go w.receive(gen, incoming)
	}
}

func (w *Widget) deliver(gen uint64, msg chat.Message) {
	defer w.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.SendTimeout)
	err := w.channel.Send(ctx, live.Outbound{
		Message:   msg.Text,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
	})
	cancel()

	if err == nil {
		w.mu.Lock()
		w.appendLocked(chat.MessageSystem, "system", textDelivered)
		w.mu.Unlock()
		return
	}

	log.Printf("[widget] live delivery failed: %v", err)
	w.mu.Lock()
	if gen == w.generation && w.state == StateConnected {
		w.degradeLocked(chat.MessageError, textConnectionLost)
	}
	w.mu.Unlock()

	w.fallback(msg)
}

func (w *Widget) receive(gen uint64, incoming <-chan live.Inbound) {
	defer w.wg.Done()

	for in := range incoming {
		if in.Sender == w.cfg.CurrentUser || strings.TrimSpace(in.Message) == "" {
			continue
		}
		w.mu.Lock()
		if gen == w.generation {
			w.appendLocked(chat.MessageBot, in.Sender, in.Message)
		}
		w.mu.Unlock()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen == w.generation && w.state == StateConnected {
		w.degradeLocked(chat.MessageSystem, textDisconnected)
	}
}

// fallback schedules the deterministic local reply and records the session.
func (w *Widget) fallback(msg chat.Message) {
	w.mu.Lock()
	cfg := w.cfg
	w.record(chat.NewSession{
		Title:        fmt.Sprintf("%s Chat: %s", cfg.ContextLabel, msg.Timestamp.Format(time.DateTime)),
		Content:      msg.Text,
		Participants: chat.NewParticipants(msg.Sender),
		ContextType:  cfg.ContextType,
		ContextRef:   cfg.ContextRef,
		Metadata:     map[string]string{"source": "widget"},
	})
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		timer := time.NewTimer(cfg.ReplyDelay)
		defer timer.Stop()
		<-timer.C

		w.mu.Lock()
		w.appendLocked(chat.MessageBot, "bot", replyPrefix+msg.Text)
		w.mu.Unlock()
	}()
}

// record writes a session in the background, detached from the widget
// lifetime. Failures are logged only.
func (w *Widget) record(input chat.NewSession) {
	if w.recorder == nil {
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.RecordTimeout)
		defer cancel()

		session, err := w.recorder.CreateSession(ctx, input)
		if err != nil {
			log.Printf("[widget] failed to record chat session %q: %v", input.Title, err)
			return
		}
		log.Printf("[widget] chat session recorded id=%s", session.ID)
	}()
}

func (w *Widget) degradeLocked(kind chat.MessageType, text string) {
	w.state = StateOfflineFallback
	if w.channel != nil {
		_ = w.channel.Close()
	}
	w.appendLocked(kind, "system", text)
}

func (w *Widget) appendLocked(kind chat.MessageType, sender, text string) chat.Message {
	ts := w.now()
	if n := len(w.transcript); n > 0 && ts.Before(w.transcript[n-1].Timestamp) {
		ts = w.transcript[n-1].Timestamp
	}

	msg := chat.Message{Text: text, Sender: sender, Type: kind, Timestamp: ts}
	w.transcript = append(w.transcript, msg)
	for _, fn := range w.listeners {
		fn(msg)
	}
	return msg
}
