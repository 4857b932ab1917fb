package fanout

import (
	"encoding/json"
	"sync"

	"github.com/dinewell/tableside/utils"
	"github.com/gorilla/websocket"
)

// Hub fans committed state changes out to topic-scoped websocket
// subscribers. It is constructed once and injected wherever events are
// published; delivery is best-effort and at-most-once. A failed write only
// drops that subscriber, it never reaches back into the caller.
type Hub struct {
	mu   sync.Mutex
	subs map[*websocket.Conn]map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[*websocket.Conn]map[string]bool),
	}
}

// Register adds a connection with its initial topic set.
func (h *Hub) Register(conn *websocket.Conn, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := make(map[string]bool, len(topics))
	for _, t := range topics {
		set[t] = true
	}
	h.subs[conn] = set
}

// Subscribe adds one more topic to an already registered connection.
func (h *Hub) Subscribe(conn *websocket.Conn, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[conn]; ok {
		set[topic] = true
	}
}

// Unregister drops the connection and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, conn)
	conn.Close()
}

// Publish sends an event to every subscriber of topic. Errors are logged
// and swallowed; the offending connection is dropped.
func (h *Hub) Publish(topic, event string, data interface{}) {
	payload, err := json.Marshal(Message{Topic: topic, Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.Printf("fanout: marshal %s failed: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, topics := range h.subs {
		if !topics[topic] {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.ErrorLogger.Printf("fanout: write to subscriber failed, dropping: %v", err)
			delete(h.subs, conn)
			conn.Close()
		}
	}
}

// SubscriberCount reports how many connections hold the topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, topics := range h.subs {
		if topics[topic] {
			n++
		}
	}
	return n
}
