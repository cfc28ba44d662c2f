package broker

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// startBroker runs the broker on an httptest server and returns its hub and
// the ws:// URL without credentials.
func startBroker(t *testing.T, token string) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := NewServer(hub, token)
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return hub, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dialBroker(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrame decodes the next frame within a deadline.
func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame any) {
	t.Helper()
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestAuthRejectsBadToken(t *testing.T) {
	_, url := startBroker(t, "sekrit")

	tests := []struct {
		name string
		url  string
	}{
		{"no token", url},
		{"wrong token", url + "?token=guess"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)
			if err == nil {
				t.Fatal("handshake succeeded without a valid token")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("handshake response = %v, want 401", resp)
			}
		})
	}
}

func TestAuthAcceptsQueryToken(t *testing.T) {
	_, url := startBroker(t, "sekrit")
	conn := dialBroker(t, url+"?token=sekrit")

	frame := readFrame(t, conn)
	if frame["type"] != "connected" {
		t.Errorf("first frame = %v, want connected", frame)
	}
}

func TestSubscribeAcknowledged(t *testing.T) {
	_, url := startBroker(t, "")
	conn := dialBroker(t, url)
	readFrame(t, conn) // connected

	writeFrame(t, conn, map[string]string{"type": "subscribe", "channel": "metrics"})
	frame := readFrame(t, conn)
	if frame["type"] != "subscribed" || frame["channel"] != "metrics" {
		t.Errorf("ack = %v, want subscribed/metrics", frame)
	}

	writeFrame(t, conn, map[string]string{"type": "unsubscribe", "channel": "metrics"})
	frame = readFrame(t, conn)
	if frame["type"] != "unsubscribed" || frame["channel"] != "metrics" {
		t.Errorf("ack = %v, want unsubscribed/metrics", frame)
	}
}

func TestSubscribeUnknownChannelRejected(t *testing.T) {
	_, url := startBroker(t, "")
	conn := dialBroker(t, url)
	readFrame(t, conn) // connected

	writeFrame(t, conn, map[string]string{"type": "subscribe", "channel": "stonks"})
	frame := readFrame(t, conn)
	if frame["type"] != "error" {
		t.Errorf("reply = %v, want error frame", frame)
	}
}

func TestPingPong(t *testing.T) {
	_, url := startBroker(t, "")
	conn := dialBroker(t, url)
	readFrame(t, conn) // connected

	writeFrame(t, conn, map[string]string{"type": "ping"})
	frame := readFrame(t, conn)
	if frame["type"] != "pong" {
		t.Errorf("reply = %v, want pong", frame)
	}
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
	hub, url := startBroker(t, "")

	subbed := dialBroker(t, url)
	readFrame(t, subbed)
	writeFrame(t, subbed, map[string]string{"type": "subscribe", "channel": "metrics"})
	readFrame(t, subbed) // subscribed ack

	bystander := dialBroker(t, url)
	readFrame(t, bystander)

	hub.Broadcast("metrics", metricsFrame{
		Type:    msgMetricsUpdate,
		Metrics: metrics{Revenue: 500, Spend: 100, ROAS: 5, Orders: 3},
	})

	frame := readFrame(t, subbed)
	if frame["type"] != "metrics_update" {
		t.Fatalf("subscriber got %v, want metrics_update", frame)
	}

	bystander.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, data, err := bystander.ReadMessage(); err == nil {
		t.Errorf("bystander received %q without subscribing", data)
	}
}

func TestStatsEndpoint(t *testing.T) {
	hub := NewHub()
	srv := NewServer(hub, "sekrit")
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated stats = %d, want 401", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/stats?token=sekrit")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats = %d, want 200", resp.StatusCode)
	}
	var stats brokerStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Clients != 0 {
		t.Errorf("clients = %d, want 0", stats.Clients)
	}
}
