// Package trace streams a validation run's ssocore.TraceEvent sequence to
// live WebSocket subscribers: one Hub, one Run per response, buffered
// per-client send channels that drop rather than block.
package trace

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/saml2validator/ssoval/internal/ssocore"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the envelope written to each subscriber.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Run is one validation attempt's trace, identified by an opaque ID chosen
// by the caller (typically the SAML response's InResponseTo or a generated
// request ID).
type Run struct {
	ID     string
	mu     sync.RWMutex
	events []ssocore.TraceEvent
	done   bool
	subs   map[*client]bool
}

func newRun(id string) *Run {
	return &Run{ID: id, subs: make(map[*client]bool)}
}

// Append records one trace event and fans it out to subscribers.
func (r *Run) Append(evt ssocore.TraceEvent) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	r.broadcast(Message{Type: "trace.event", Payload: evt})
}

// Finish marks the run complete, so late subscribers know no more events
// are coming, and broadcasts a completion marker.
func (r *Run) Finish() {
	r.mu.Lock()
	r.done = true
	r.mu.Unlock()
	r.broadcast(Message{Type: "trace.done", Payload: r.ID})
}

func (r *Run) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.subs {
		select {
		case c.send <- data:
		default:
		}
	}
}

func (r *Run) subscribe(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[c] = true
}

func (r *Run) unsubscribe(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[c]; ok {
		delete(r.subs, c)
		close(c.send)
	}
}

func (r *Run) snapshot() ([]ssocore.TraceEvent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make([]ssocore.TraceEvent, len(r.events))
	copy(events, r.events)
	return events, r.done
}

// Hub owns the set of in-flight and recently completed runs a caller can
// subscribe to over WebSocket.
type Hub struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewHub builds an empty trace hub.
func NewHub() *Hub {
	return &Hub{runs: make(map[string]*Run)}
}

// StartRun registers a new run and returns it for the validator's caller to
// append events to as ssocore.Validate proceeds.
func (h *Hub) StartRun(id string) *Run {
	r := newRun(id)
	h.mu.Lock()
	h.runs[id] = r
	h.mu.Unlock()
	return r
}

// Forget drops a completed run once no more subscribers are expected.
func (h *Hub) Forget(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.runs, id)
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	run  *Run
}

// ServeWebSocket upgrades the request and streams the named run's trace
// events, replaying history before switching to live updates.
func (h *Hub) ServeWebSocket(w http.ResponseWriter, r *http.Request, runID string) {
	h.mu.RLock()
	run, ok := h.runs[runID]
	h.mu.RUnlock()
	if !ok {
		http.Error(w, "trace run not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256), run: run}
	run.subscribe(c)

	go c.writePump()
	c.sendHistory()
	go c.readPump()
}

func (c *client) sendHistory() {
	events, done := c.run.snapshot()
	for _, evt := range events {
		data, err := json.Marshal(Message{Type: "trace.event", Payload: evt})
		if err != nil {
			continue
		}
		c.send <- data
	}
	if done {
		if data, err := json.Marshal(Message{Type: "trace.done", Payload: c.run.ID}); err == nil {
			c.send <- data
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.run.unsubscribe(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
