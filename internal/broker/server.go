package broker

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type Server struct {
	hub      *Hub
	token    string
	started  time.Time
	upgrader websocket.Upgrader
}

// NewServer builds the broker HTTP surface. An empty token disables auth,
// which is only sensible for local development.
func NewServer(hub *Hub, token string) *Server {
	return &Server{
		hub:     hub,
		token:   token,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin,
		},
	}
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/stats", s.handleStats)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("broker: upgrade error: %v", err)
		return
	}

	log.Printf("broker: client connected: %s", r.RemoteAddr)
	sub := s.hub.Add(conn)

	go func() {
		defer func() {
			s.hub.Remove(sub)
			log.Printf("broker: client disconnected: %s", r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.handleFrame(sub, data)
		}
	}()
}

// handleFrame answers one client frame: subscribe/unsubscribe mutate the
// subscriber's channel set and are acknowledged, ping gets a pong, anything
// else gets an error frame.
func (s *Server) handleFrame(sub *subscriber, data []byte) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		sub.queue(mustMarshal(controlFrame{Type: msgError, Message: "malformed frame"}))
		return
	}

	switch f.Type {
	case msgSubscribe:
		if !knownChannels[f.Channel] {
			sub.queue(mustMarshal(controlFrame{
				Type:    msgError,
				Message: fmt.Sprintf("unknown channel %q", f.Channel),
			}))
			return
		}
		sub.setSubscribed(f.Channel, true)
		sub.queue(mustMarshal(controlFrame{Type: msgSubscribed, Channel: f.Channel}))
	case msgUnsubscribe:
		sub.setSubscribed(f.Channel, false)
		sub.queue(mustMarshal(controlFrame{Type: msgUnsubscribed, Channel: f.Channel}))
	case msgPing:
		sub.queue(mustMarshal(controlFrame{Type: msgPong}))
	default:
		sub.queue(mustMarshal(controlFrame{
			Type:    msgError,
			Message: fmt.Sprintf("unsupported message type %q", f.Type),
		}))
	}
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func (s *Server) authorize(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	if r.URL.Query().Get("token") == s.token {
		return true
	}
	if r.Header.Get("X-Pulse-Token") == s.token {
		return true
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.token {
		return true
	}
	return false
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients (the pulsewatch TUI, tests) send no Origin.
		return true
	}
	return strings.Contains(origin, r.Host) ||
		strings.Contains(origin, "localhost") ||
		strings.Contains(origin, "127.0.0.1")
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("broker: listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
