// Package client implements the persistent realtime connection to a pulse
// broker: an authenticated WebSocket session with a heartbeat, channel
// subscriptions reconciled against server acknowledgements, typed message
// dispatch and bounded automatic reconnection.
//
// The client never resubscribes channels on its own after a reconnect.
// Subscriptions revert to unsubscribed whenever the session leaves the
// connected state; callers observing StateConnected re-issue Subscribe for
// the channels they need.
package client

import "time"

// MessageType identifies the kind of frame on the wire.
type MessageType string

// Inbound frame types.
const (
	MsgConnected     MessageType = "connected"
	MsgSubscribed    MessageType = "subscribed"
	MsgUnsubscribed  MessageType = "unsubscribed"
	MsgPong          MessageType = "pong"
	MsgMetricsUpdate MessageType = "metrics_update"
	MsgNotification  MessageType = "notification"
	MsgSyncStatus    MessageType = "sync_status"
	MsgAnomalyAlert  MessageType = "anomaly_alert"
	MsgError         MessageType = "error"
)

// Outbound frame types.
const (
	MsgSubscribe   MessageType = "subscribe"
	MsgUnsubscribe MessageType = "unsubscribe"
	MsgPing        MessageType = "ping"
)

// Channel is a named topic the broker pushes updates for.
type Channel string

const (
	ChannelMetrics       Channel = "metrics"
	ChannelNotifications Channel = "notifications"
	ChannelSyncStatus    Channel = "sync_status"
	ChannelAnomalies     Channel = "anomalies"
)

// envelope is the minimal decode of any inbound frame: the mandatory type
// discriminator plus the fields shared across acknowledgement and error
// frames. Typed payloads are decoded from the raw frame in a second pass.
type envelope struct {
	Type    MessageType `json:"type"`
	Channel Channel     `json:"channel,omitempty"`
	Message string      `json:"message,omitempty"`
}

// outboundFrame covers every frame the client writes: subscribe, unsubscribe
// and ping.
type outboundFrame struct {
	Type    MessageType `json:"type"`
	Channel Channel     `json:"channel,omitempty"`
}

// Metrics carries the dashboard headline numbers. Fields the broker omits
// stay at their zero value.
type Metrics struct {
	Revenue float64 `json:"revenue,omitempty"`
	Spend   float64 `json:"spend,omitempty"`
	ROAS    float64 `json:"roas,omitempty"`
	Orders  int     `json:"orders,omitempty"`
}

// MetricsUpdate is pushed on the metrics channel.
type MetricsUpdate struct {
	Metrics   Metrics   `json:"metrics"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Notification is pushed on the notifications channel.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"`
}

// SyncDetails carries optional progress information for a running sync.
type SyncDetails struct {
	Progress float64 `json:"progress,omitempty"`
	Records  int     `json:"records,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// SyncStatus is pushed on the sync_status channel, one frame per platform
// state change.
type SyncStatus struct {
	Platform string       `json:"platform"`
	Status   string       `json:"status"`
	Details  *SyncDetails `json:"details,omitempty"`
}

// Anomaly describes a metric deviating from its expected value.
type Anomaly struct {
	Metric           string  `json:"metric"`
	Type             string  `json:"type"`
	Severity         string  `json:"severity"`
	Date             string  `json:"date"`
	ActualValue      float64 `json:"actual_value"`
	ExpectedValue    float64 `json:"expected_value"`
	DeviationPercent float64 `json:"deviation_percent"`
}

// AnomalyAlert is pushed on the anomalies channel.
type AnomalyAlert struct {
	Anomaly Anomaly `json:"anomaly"`
}
