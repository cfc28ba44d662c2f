package client

import (
	"encoding/json"
	"log"
)

// route parses one inbound frame and dispatches it. Malformed frames and
// unknown discriminators are logged and dropped without touching session
// state; frames from a stale epoch are discarded so a racing Disconnect
// stays effective immediately.
func (c *Client) route(data []byte, epoch uint64) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("client: dropping malformed frame: %v", err)
		return
	}
	if env.Type == "" {
		log.Printf("client: dropping frame without type: %.128s", data)
		return
	}

	c.mu.Lock()
	stale := c.epoch != epoch
	c.mu.Unlock()
	if stale {
		return
	}

	switch env.Type {
	case MsgConnected:
		// Handshake acknowledgement, informational only.
	case MsgPong:
		// Heartbeat satisfied; nothing to dispatch.
	case MsgSubscribed:
		c.reconcile(env.Channel, epoch, SubActive)
	case MsgUnsubscribed:
		c.reconcile(env.Channel, epoch, SubNotSubscribed)
	case MsgMetricsUpdate:
		var p MetricsUpdate
		if c.decode(data, &p) {
			if h := c.cfg.OnMetricsUpdate; h != nil {
				h(p)
			}
		}
	case MsgNotification:
		var p Notification
		if c.decode(data, &p) {
			if h := c.cfg.OnNotification; h != nil {
				h(p)
			}
		}
	case MsgSyncStatus:
		var p SyncStatus
		if c.decode(data, &p) {
			if h := c.cfg.OnSyncStatus; h != nil {
				h(p)
			}
		}
	case MsgAnomalyAlert:
		var p AnomalyAlert
		if c.decode(data, &p) {
			if h := c.cfg.OnAnomalyAlert; h != nil {
				h(p)
			}
		}
	case MsgError:
		c.notifyError(&ServerError{Message: env.Message})
	default:
		// Forward compatibility with broker-added message kinds.
		log.Printf("client: ignoring unknown message type %q", env.Type)
	}
}

func (c *Client) decode(data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("client: dropping malformed %T frame: %v", v, err)
		return false
	}
	return true
}

// reconcile applies a subscription acknowledgement. A subscribed ack only
// promotes a channel the caller still has pending; an unsubscribed ack
// releases the channel unconditionally.
func (c *Client) reconcile(ch Channel, epoch uint64, st SubscriptionStatus) {
	if ch == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.state != StateConnected {
		return
	}
	if st == SubActive && c.subs.get(ch) != SubPending {
		return
	}
	c.subs.set(ch, st)
}
