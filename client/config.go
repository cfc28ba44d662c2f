package client

import "time"

// Defaults applied by Config.normalize for zero-valued fields.
const (
	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultHeartbeatInterval    = 30 * time.Second
)

// Config controls one Client session. The callback fields are each optional
// and are invoked from the session's read loop, so they must not block.
type Config struct {
	// URL of the broker WebSocket endpoint, e.g. "wss://host/ws". The auth
	// token is appended as a query parameter at dial time.
	URL   string
	Token string

	// AutoConnect makes New call Connect immediately when a token is
	// present. Zero value is off; DefaultConfig turns it on.
	AutoConnect bool

	// Reconnect enables automatic redialing after a lost connection, up to
	// MaxReconnectAttempts at a fixed ReconnectInterval. Zero value is off;
	// DefaultConfig turns it on.
	Reconnect            bool
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int

	HeartbeatInterval time.Duration

	// Transport overrides the WebSocket transport, mainly for tests.
	Transport Transport

	OnMetricsUpdate func(MetricsUpdate)
	OnNotification  func(Notification)
	OnSyncStatus    func(SyncStatus)
	OnAnomalyAlert  func(AnomalyAlert)
	OnError         func(error)
	OnStateChange   func(State)
}

// DefaultConfig returns a Config for the given endpoint with auto-connect
// and reconnection enabled and the standard intervals filled in.
func DefaultConfig(url, token string) Config {
	return Config{
		URL:                  url,
		Token:                token,
		AutoConnect:          true,
		Reconnect:            true,
		ReconnectInterval:    DefaultReconnectInterval,
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		HeartbeatInterval:    DefaultHeartbeatInterval,
	}
}

func (c *Config) normalize() {
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = DefaultReconnectInterval
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
}
