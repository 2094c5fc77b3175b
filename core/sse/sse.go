// Package sse streams arbiter and turn events to HTTP clients.
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/xlog"
	"github.com/valyala/fasthttp"
)

type (
	// Listener defines the interface for the receiving end.
	Listener interface {
		ID() string
		Chan() chan Envelope
	}

	// Envelope defines the interface for content that can be broadcast to clients.
	Envelope interface {
		String() string
	}

	// Manager defines the interface for managing clients and broadcasting messages.
	Manager interface {
		Send(message Envelope)
		Subscribe(cl Listener)
		Unsubscribe(id string)
		Handle(ctx *fiber.Ctx, cl Listener)
		Clients() []string
		Close()
	}
)

type Client struct {
	id     string
	ch     chan Envelope
	mu     sync.RWMutex
	closed bool
}

func NewClient(id string) Listener {
	return &Client{
		id: id,
		ch: make(chan Envelope, 50),
	}
}

func (c *Client) ID() string          { return c.id }
func (c *Client) Chan() chan Envelope { return c.ch }

// offer queues m without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *Client) offer(m Envelope) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.ch <- m:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// deliver hands m to l without blocking.
func deliver(l Listener, m Envelope) bool {
	if c, ok := l.(*Client); ok {
		return c.offer(m)
	}
	select {
	case l.Chan() <- m:
		return true
	default:
		return false
	}
}

// Message represents a simple message implementation.
type Message struct {
	Event string
	Time  time.Time
	Data  string
}

// NewMessage returns a new message instance.
func NewMessage(data string) *Message {
	return &Message{
		Data: data,
		Time: time.Now(),
	}
}

// String returns the message as a string.
func (m *Message) String() string {
	sb := strings.Builder{}

	if m.Event != "" {
		sb.WriteString(fmt.Sprintf("event: %s\n", m.Event))
	}
	sb.WriteString(fmt.Sprintf("data: %v\n\n", m.Data))

	return sb.String()
}

// WithEvent sets the event name for the message.
func (m *Message) WithEvent(event string) Envelope {
	m.Event = event
	return m
}

// broadcastManager manages the clients and broadcasts messages to them.
type broadcastManager struct {
	clients        sync.Map
	broadcast      chan Envelope
	workerPoolSize int
	messageHistory *history
	mu             sync.RWMutex
	closed         bool
	wg             sync.WaitGroup
}

// NewManager initializes and returns a new Manager instance. Messages sent
// while the broadcast buffer is full are dropped.
func NewManager(workerPoolSize, historySize int) Manager {
	if workerPoolSize <= 0 {
		workerPoolSize = 1
	}
	manager := &broadcastManager{
		broadcast:      make(chan Envelope, 100),
		workerPoolSize: workerPoolSize,
		messageHistory: newHistory(historySize),
	}

	manager.startWorkers()

	return manager
}

// Send broadcasts a message to all connected clients without blocking.
func (manager *broadcastManager) Send(message Envelope) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	if manager.closed {
		return
	}
	select {
	case manager.broadcast <- message:
	default:
		xlog.Warn("Event bus full, dropping message")
	}
}

// Subscribe registers cl and replays the history to it.
func (manager *broadcastManager) Subscribe(cl Listener) {
	manager.messageHistory.Send(cl)
	manager.clients.Store(cl.ID(), cl)
}

// Unsubscribe removes the client and closes its channel.
func (manager *broadcastManager) Unsubscribe(id string) {
	v, ok := manager.clients.LoadAndDelete(id)
	if !ok {
		return
	}
	if c, ok := v.(*Client); ok {
		c.close()
	}
}

// Handle sets up a new client and handles the connection.
func (manager *broadcastManager) Handle(c *fiber.Ctx, cl Listener) {
	ctx := c.Context()

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Cache-Control")
	ctx.Response.Header.Set("Access-Control-Allow-Credentials", "true")
	ctx.Response.Header.Set("X-Accel-Buffering", "no") // Disable proxy buffering

	manager.Subscribe(cl)

	ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer manager.Unsubscribe(cl.ID())

		fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case msg, ok := <-cl.Chan():
				if !ok {
					return
				}
				if _, err := fmt.Fprint(w, msg.String()); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}))
}

// Clients method to list connected client IDs
func (manager *broadcastManager) Clients() []string {
	var clients []string
	manager.clients.Range(func(key, value any) bool {
		id, ok := key.(string)
		if ok {
			clients = append(clients, id)
		}
		return true
	})
	return clients
}

// Close stops the workers and disconnects every client.
func (manager *broadcastManager) Close() {
	manager.mu.Lock()
	if manager.closed {
		manager.mu.Unlock()
		return
	}
	manager.closed = true
	close(manager.broadcast)
	manager.mu.Unlock()

	manager.wg.Wait()
	for _, id := range manager.Clients() {
		manager.Unsubscribe(id)
	}
}

// startWorkers starts worker goroutines for message broadcasting.
func (manager *broadcastManager) startWorkers() {
	for i := 0; i < manager.workerPoolSize; i++ {
		manager.wg.Add(1)
		go func() {
			defer manager.wg.Done()
			for message := range manager.broadcast {
				manager.messageHistory.Add(message)
				manager.clients.Range(func(key, value any) bool {
					client, ok := value.(Listener)
					if !ok {
						return true
					}
					// slow or closed clients drop the message
					deliver(client, message)
					return true
				})
			}
		}()
	}
}

type history struct {
	sync.Mutex
	messages []Envelope
	maxSize  int
}

func newHistory(maxSize int) *history {
	return &history{
		messages: []Envelope{},
		maxSize:  maxSize,
	}
}

func (h *history) Add(message Envelope) {
	if h.maxSize <= 0 {
		return
	}
	h.Lock()
	defer h.Unlock()
	h.messages = append(h.messages, message)
	if len(h.messages) > h.maxSize {
		h.messages = h.messages[len(h.messages)-h.maxSize:]
	}
}

func (h *history) Send(c Listener) {
	h.Lock()
	defer h.Unlock()
	for _, msg := range h.messages {
		if !deliver(c, msg) {
			return
		}
	}
}

// Bus publishes events on a Manager. It implements types.EventSink.
type Bus struct {
	manager Manager
}

func NewBus(manager Manager) *Bus {
	return &Bus{manager: manager}
}

func (b *Bus) Manager() Manager {
	return b.manager
}

// Emit sends e as a JSON message named after its type.
func (b *Bus) Emit(e types.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		xlog.Error("Encoding event", "type", e.Type, "error", err)
		return
	}
	b.manager.Send(NewMessage(string(data)).WithEvent(string(e.Type)))
}

// Fanout forwards events to every sink.
type Fanout []types.EventSink

func (f Fanout) Emit(e types.Event) {
	for _, s := range f {
		if s != nil {
			s.Emit(e)
		}
	}
}
