package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
)

// State is the session connection state. StateError is transient: it is
// reported between a transport failure and the cleanup into
// StateDisconnected.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

var (
	// ErrNotConnected is returned by operations that require a connected
	// session, including Subscribe and Unsubscribe, which send nothing when
	// the session is not connected.
	ErrNotConnected = errors.New("client: not connected")

	// ErrMissingCredential is returned by Connect when no auth token is set.
	ErrMissingCredential = errors.New("client: missing auth token")

	// ErrReconnectExhausted is reported through OnError when the automatic
	// reconnection budget runs out. The session stays disconnected until
	// Connect is called again.
	ErrReconnectExhausted = errors.New("client: reconnect attempts exhausted")
)

// ServerError is an application-level error frame reported by the broker.
// The session stays alive when one arrives.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "client: server error: " + e.Message
}

// Client is one logical session against a pulse broker. Construct it with
// New, one per credential; all methods are safe for concurrent use.
type Client struct {
	cfg       Config
	transport Transport

	// writeMu serialises all frame writes (heartbeat, subscribe, ping).
	writeMu sync.Mutex

	// mu guards every field below. Session, subscription and timer state
	// have a single-writer discipline enforced by this mutex.
	mu         sync.Mutex
	state      State
	conn       Conn
	epoch      uint64 // bumps when a connection dies or Disconnect runs; stale goroutines and timers check it
	attempts   int
	suppressed bool // true after Disconnect until the next explicit Connect
	subs       subscriptionSet
	timers     timerRegistry
}

// New builds a session from cfg. When cfg.AutoConnect is set and a token is
// present, dialing starts immediately; otherwise call Connect.
func New(cfg Config) *Client {
	cfg.normalize()
	c := &Client{
		cfg:        cfg,
		transport:  cfg.Transport,
		state:      StateDisconnected,
		suppressed: true,
		subs:       newSubscriptionSet(),
	}
	if c.transport == nil {
		c.transport = NewWebSocketTransport()
	}
	if cfg.AutoConnect && cfg.Token != "" {
		c.Connect()
	}
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Channels returns the channels with an acknowledged subscription, sorted.
func (c *Client) Channels() []Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs.activeChannels()
}

// Connect starts dialing the broker. It returns immediately; completion is
// observed through OnStateChange. Calling it while already connecting or
// connected is a no-op.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	if c.cfg.Token == "" {
		c.mu.Unlock()
		return ErrMissingCredential
	}
	c.suppressed = false
	c.timers.cancel(timerReconnect) // explicit connect supersedes a pending retry
	c.state = StateConnecting
	epoch := c.epoch
	c.mu.Unlock()

	c.notifyState(StateConnecting)
	go c.dial(epoch)
	return nil
}

// Disconnect tears the session down from any state: it cancels both timers,
// closes the transport, clears all subscriptions and suppresses automatic
// reconnection until Connect is called again. It is idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.suppressed = true
	c.epoch++
	c.timers.cancelAll()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.subs.clear()
	changed := c.state != StateDisconnected
	c.state = StateDisconnected
	c.mu.Unlock()

	if changed {
		c.notifyState(StateDisconnected)
	}
}

// Subscribe asks the broker for updates on ch. The subscription stays
// pending until the broker acknowledges it; only acknowledged channels show
// up in Channels. Subscribing a pending or active channel is a no-op.
func (c *Client) Subscribe(ch Channel) error {
	if ch == "" {
		return fmt.Errorf("client: empty channel")
	}
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if st := c.subs.get(ch); st == SubPending || st == SubActive {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	c.subs.set(ch, SubPending)
	c.mu.Unlock()

	if err := c.writeFrame(conn, outboundFrame{Type: MsgSubscribe, Channel: ch}); err != nil {
		c.mu.Lock()
		if c.subs.get(ch) == SubPending {
			c.subs.set(ch, SubNotSubscribed)
		}
		c.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", ch, err)
	}
	return nil
}

// Unsubscribe drops an active subscription. The channel leaves Channels
// immediately and is fully released once the broker acknowledges.
func (c *Client) Unsubscribe(ch Channel) error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.subs.get(ch) != SubActive {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	c.subs.set(ch, SubPending)
	c.mu.Unlock()

	if err := c.writeFrame(conn, outboundFrame{Type: MsgUnsubscribe, Channel: ch}); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", ch, err)
	}
	return nil
}

// SendPing writes a heartbeat frame immediately, independent of the timer.
func (c *Client) SendPing() error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.Unlock()
	return c.writeFrame(conn, outboundFrame{Type: MsgPing})
}

func (c *Client) notifyState(s State) {
	if h := c.cfg.OnStateChange; h != nil {
		h(s)
	}
}

func (c *Client) notifyError(err error) {
	if h := c.cfg.OnError; h != nil {
		h(err)
	}
}

// dialURL embeds the credential in the endpoint as a query parameter.
func (c *Client) dialURL() string {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return c.cfg.URL
	}
	q := u.Query()
	q.Set("token", c.cfg.Token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) dial(epoch uint64) {
	conn, err := c.transport.Dial(c.dialURL())

	c.mu.Lock()
	if c.epoch != epoch || c.state != StateConnecting {
		// Disconnect raced the dial; discard whatever it produced.
		c.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.transportDown(epoch, fmt.Errorf("dial %s: %w", c.cfg.URL, err))
		return
	}
	c.conn = conn
	c.attempts = 0
	c.state = StateConnected
	c.armHeartbeatLocked(epoch)
	c.mu.Unlock()

	c.notifyState(StateConnected)
	go c.readLoop(conn, epoch)
}

func (c *Client) armHeartbeatLocked(epoch uint64) {
	c.timers.start(timerHeartbeat, c.cfg.HeartbeatInterval, func() {
		c.heartbeat(epoch)
	})
}

// heartbeat writes one ping and re-arms itself while the session is still
// the same connected epoch. A write failure is left to the read loop, which
// notices the dead connection and runs the shared teardown path.
func (c *Client) heartbeat(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.armHeartbeatLocked(epoch)
	c.mu.Unlock()

	if err := c.writeFrame(conn, outboundFrame{Type: MsgPing}); err != nil {
		log.Printf("client: heartbeat write failed: %v", err)
	}
}

func (c *Client) writeFrame(conn Conn, f outboundFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(data)
}

// readLoop delivers inbound frames in transport order until the connection
// dies, then funnels into the shared teardown path.
func (c *Client) readLoop(conn Conn, epoch uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.transportDown(epoch, fmt.Errorf("read: %w", err))
			return
		}
		c.route(data, epoch)
	}
}

// transportDown is the single teardown path for dial failures, transport
// errors and remote closes: cancel the heartbeat, clear subscriptions, and
// either arm a reconnect timer or report the exhausted budget.
func (c *Client) transportDown(epoch uint64, cause error) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.epoch++
	next := c.epoch
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.timers.cancel(timerHeartbeat)
	c.subs.clear()
	c.state = StateDisconnected

	var fatal error
	if c.cfg.Reconnect && !c.suppressed {
		if c.attempts < c.cfg.MaxReconnectAttempts {
			c.attempts++
			c.timers.start(timerReconnect, c.cfg.ReconnectInterval, func() {
				c.redial(next)
			})
		} else {
			fatal = fmt.Errorf("%w after %d attempts: %v",
				ErrReconnectExhausted, c.attempts, cause)
		}
	}
	c.mu.Unlock()

	log.Printf("client: connection lost: %v", cause)
	c.notifyState(StateError)
	c.notifyState(StateDisconnected)
	if fatal != nil {
		c.notifyError(fatal)
	}
}

func (c *Client) redial(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch || c.suppressed || c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	c.notifyState(StateConnecting)
	c.dial(epoch)
}
