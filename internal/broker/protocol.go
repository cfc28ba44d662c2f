// Package broker implements the development broker for pulse clients: a
// WebSocket endpoint that authenticates the handshake token, answers the
// channel-subscription protocol and pushes generated demo events. It stands
// in for the production event broker during development and tests.
package broker

import "time"

type messageType string

const (
	msgConnected     messageType = "connected"
	msgSubscribed    messageType = "subscribed"
	msgUnsubscribed  messageType = "unsubscribed"
	msgPong          messageType = "pong"
	msgMetricsUpdate messageType = "metrics_update"
	msgNotification  messageType = "notification"
	msgSyncStatus    messageType = "sync_status"
	msgAnomalyAlert  messageType = "anomaly_alert"
	msgError         messageType = "error"

	msgSubscribe   messageType = "subscribe"
	msgUnsubscribe messageType = "unsubscribe"
	msgPing        messageType = "ping"
)

// channels clients may subscribe to.
var knownChannels = map[string]bool{
	"metrics":       true,
	"notifications": true,
	"sync_status":   true,
	"anomalies":     true,
}

// inboundFrame is everything a client may send.
type inboundFrame struct {
	Type    messageType `json:"type"`
	Channel string      `json:"channel,omitempty"`
}

// controlFrame covers connected, acks, pong and error replies.
type controlFrame struct {
	Type    messageType `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Message string      `json:"message,omitempty"`
}

type metrics struct {
	Revenue float64 `json:"revenue"`
	Spend   float64 `json:"spend"`
	ROAS    float64 `json:"roas"`
	Orders  int     `json:"orders"`
}

type metricsFrame struct {
	Type      messageType `json:"type"`
	Metrics   metrics     `json:"metrics"`
	Timestamp time.Time   `json:"timestamp"`
}

type notificationFrame struct {
	Type    messageType `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Level   string      `json:"level"`
}

type syncDetails struct {
	Progress float64 `json:"progress,omitempty"`
	Records  int     `json:"records,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type syncFrame struct {
	Type     messageType  `json:"type"`
	Platform string       `json:"platform"`
	Status   string       `json:"status"`
	Details  *syncDetails `json:"details,omitempty"`
}

type anomaly struct {
	Metric           string  `json:"metric"`
	Type             string  `json:"type"`
	Severity         string  `json:"severity"`
	Date             string  `json:"date"`
	ActualValue      float64 `json:"actual_value"`
	ExpectedValue    float64 `json:"expected_value"`
	DeviationPercent float64 `json:"deviation_percent"`
}

type anomalyFrame struct {
	Type    messageType `json:"type"`
	Anomaly anomaly     `json:"anomaly"`
}
