package broker

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type subscriber struct {
	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	mu       sync.Mutex
	channels map[string]bool
}

func (s *subscriber) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.hub.Remove(s)
			return
		}
	}
}

// queue hands a frame to the write pump without blocking. It reports false
// when the subscriber's buffer is full.
func (s *subscriber) queue(data []byte) bool {
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *subscriber) setSubscribed(channel string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.channels[channel] = true
	} else {
		delete(s.channels, channel)
	}
}

func (s *subscriber) subscribedTo(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[channel]
}

// Hub tracks connected subscribers and fans frames out to the ones
// subscribed to a channel.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]bool)}
}

// Add registers the connection, starts its write pump and queues the
// handshake acknowledgement.
func (h *Hub) Add(conn *websocket.Conn) *subscriber {
	s := &subscriber{
		conn:     conn,
		hub:      h,
		send:     make(chan []byte, 64),
		channels: make(map[string]bool),
	}
	go s.writePump()

	h.mu.Lock()
	h.subs[s] = true
	h.mu.Unlock()

	data, _ := json.Marshal(controlFrame{Type: msgConnected})
	s.queue(data)
	return s
}

func (h *Hub) Remove(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
	h.mu.Unlock()
}

// Broadcast sends frame to every subscriber of channel. Subscribers that
// cannot keep up are disconnected.
func (h *Hub) Broadcast(channel string, frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("broker: broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if !s.subscribedTo(channel) {
			continue
		}
		if !s.queue(data) {
			log.Printf("broker: subscriber too slow, disconnecting")
			h.Remove(s)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
