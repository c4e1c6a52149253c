package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kevinyhe/handy/internal/control"
	"github.com/kevinyhe/handy/internal/gesture"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Event is one processed frame's observation, broadcast to debug clients.
type Event struct {
	Timestamp int64            `json:"timestamp"`
	Present   bool             `json:"present"`
	Gestures  gesture.Map      `json:"gestures,omitempty"`
	PointerX  int              `json:"pointer_x"`
	PointerY  int              `json:"pointer_y"`
	PalmSize  float64          `json:"palm_size,omitempty"`
	Actions   []control.Action `json:"actions,omitempty"`
}

// EventHub fans pipeline events out to WebSocket clients. The pipeline
// pushes with Publish; slow or dead clients are dropped rather than allowed
// to stall the frame loop.
type EventHub struct {
	mu        sync.RWMutex
	clients   map[*websocket.Conn]chan []byte
	observers []func(Event)
}

// NewEventHub creates an EventHub with no clients.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Observe registers an in-process callback invoked for every published
// event, on the publisher's goroutine. Callbacks must be cheap.
func (h *EventHub) Observe(fn func(Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, fn)
}

// Publish broadcasts an event to all connected clients and observers. It
// never blocks; a client whose send buffer is full misses the event.
func (h *EventHub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, fn := range h.observers {
		fn(e)
	}

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(e)
	if err != nil {
		log.Printf("events: marshal failed: %v", err)
		return
	}

	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan []byte, 16)

	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	done := make(chan struct{})

	// Reads only to detect the close; clients never send data.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
