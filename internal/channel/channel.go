// Package channel maintains the persistent connection to the forum's
// notification broker and fans inbound events out to local subscribers.
//
// A single Channel is constructed per session and injected into the
// components that need it; the connection itself is established lazily
// by Connect and survives until Disconnect (logout) regardless of how
// many views come and go.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nhle/forum-inbox/internal/credential"
	"github.com/nhle/forum-inbox/internal/logging"
	"github.com/nhle/forum-inbox/internal/model"
)

// ConnState is the observable connection state of the channel.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateErrored
)

// String returns the state's display name.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Status pairs a connection state with the error that caused it, set
// only for StateErrored.
type Status struct {
	State ConnState
	Err   error
}

// Handler receives one pushed notification. Handlers run synchronously
// on the channel's read loop, in registration order; de-duplication
// across reconnects is the subscriber's responsibility.
type Handler func(model.Notification)

// StateHandler observes connection state transitions.
type StateHandler func(Status)

// TokenSource supplies the bearer token for the broker handshake.
type TokenSource interface {
	Token() string
}

// Config holds the channel's connection parameters.
type Config struct {
	// BrokerURL is the websocket endpoint of the notification broker.
	BrokerURL string

	// Topic is the broadcast destination to subscribe to.
	Topic string

	// ReconnectDelay is the fixed pause between reconnect attempts.
	ReconnectDelay time.Duration

	// Heartbeat is the keep-alive interval, sent and expected.
	Heartbeat time.Duration
}

type subscriber struct {
	id string
	fn Handler
}

type stateSubscriber struct {
	id string
	fn StateHandler
}

// Channel is the client's single logical connection to the broker.
// All methods are safe for concurrent use.
type Channel struct {
	cfg    Config
	tokens TokenSource

	mu        sync.Mutex
	subs      []subscriber
	stateSubs []stateSubscriber
	status    Status
	running   bool
	stopCh    chan struct{}
	conn      *websocket.Conn
}

// New creates a Channel. Zero config durations fall back to the
// broker's documented defaults (5s reconnect, 4s heartbeats).
func New(cfg Config, tokens TokenSource) *Channel {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 4 * time.Second
	}
	if cfg.Topic == "" {
		cfg.Topic = "/notifications/topic"
	}
	return &Channel{
		cfg:    cfg,
		tokens: tokens,
		status: Status{State: StateDisconnected},
	}
}

// Connect establishes the broker connection in the background. It is a
// no-op when already connected, and returns silently when no credential
// is stored: unauthenticated sessions never attempt connection.
func (c *Channel) Connect() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	if c.tokens.Token() == "" {
		c.mu.Unlock()
		logging.L().Debug("channel: no session, skipping connect")
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	stop := c.stopCh
	c.mu.Unlock()

	go c.run(stop)
}

// Disconnect tears the connection down deterministically and stops
// reconnection. Safe to call when not connected. It must be called on
// logout so no events are delivered under a stale identity.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.setStatus(Status{State: StateDisconnected})
}

// Subscribe registers a callback for pushed notifications and returns
// its deregistration function. Registration is independent of
// connection state; a callback registered before Connect starts
// receiving events once the connection is up.
func (c *Channel) Subscribe(fn Handler) func() {
	id := uuid.New().String()

	c.mu.Lock()
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeState registers an observer for connection state changes
// and returns its deregistration function. The current status is
// delivered immediately.
func (c *Channel) SubscribeState(fn StateHandler) func() {
	id := uuid.New().String()

	c.mu.Lock()
	c.stateSubs = append(c.stateSubs, stateSubscriber{id: id, fn: fn})
	current := c.status
	c.mu.Unlock()

	fn(current)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.stateSubs {
			if s.id == id {
				c.stateSubs = append(c.stateSubs[:i], c.stateSubs[i+1:]...)
				return
			}
		}
	}
}

// State returns the current connection status.
func (c *Channel) State() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// run is the connection supervisor: it dials, pumps messages until the
// transport fails, and retries after the fixed reconnect delay until
// Disconnect.
func (c *Channel) run(stop chan struct{}) {
	for {
		c.publish(Status{State: StateConnecting})

		err := c.session(stop)

		select {
		case <-stop:
			return
		default:
		}

		if err != nil {
			logging.L().Warn("channel: connection lost", "err", err)
			c.publish(Status{State: StateErrored, Err: err})
		}

		select {
		case <-stop:
			return
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

// session performs one full connection lifecycle: dial, STOMP
// handshake, topic subscription, then the read loop until the
// transport errors or the channel is stopped.
func (c *Channel) session(stop chan struct{}) error {
	token := c.tokens.Token()
	if token == "" {
		return fmt.Errorf("no credential present")
	}

	userID, err := credential.Subject(token)
	if err != nil {
		logging.L().Warn("channel: cannot derive identity from token", "err", err)
	}

	dialURL := c.cfg.BrokerURL
	if userID != "" {
		sep := "?"
		if u, err := url.Parse(dialURL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		dialURL += sep + "userId=" + url.QueryEscape(userID)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, _, err := dialer.DialContext(ctx, dialURL, http.Header{
		"Authorization": []string{"Bearer " + token},
	})
	if err != nil {
		return fmt.Errorf("dialing broker: %w", err)
	}

	if err := c.handshake(conn, token); err != nil {
		conn.Close()
		return err
	}

	// Publish the live connection so Disconnect can close it.
	c.mu.Lock()
	select {
	case <-stop:
		c.mu.Unlock()
		conn.Close()
		return nil
	default:
	}
	c.conn = conn
	c.mu.Unlock()

	c.publish(Status{State: StateConnected})
	logging.L().Info("channel: connected", "topic", c.cfg.Topic)

	var writeMu sync.Mutex
	done := make(chan struct{})
	defer close(done)
	go c.writeHeartbeats(conn, &writeMu, done)

	return c.readLoop(conn)
}

// handshake exchanges CONNECT/CONNECTED and subscribes to the topic.
func (c *Channel) handshake(conn *websocket.Conn, token string) error {
	hb := c.cfg.Heartbeat.Milliseconds()

	connect := &frame{command: cmdConnect}
	connect.set("accept-version", "1.2")
	connect.set("heart-beat", fmt.Sprintf("%d,%d", hb, hb))
	connect.set("Authorization", "Bearer "+token)
	if err := conn.WriteMessage(websocket.TextMessage, connect.marshal()); err != nil {
		return fmt.Errorf("sending CONNECT: %w", err)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("awaiting CONNECTED: %w", err)
		}
		if isHeartbeat(data) {
			continue
		}

		f, err := parseFrame(data)
		if err != nil {
			return fmt.Errorf("parsing handshake frame: %w", err)
		}
		switch f.command {
		case cmdConnected:
		case cmdError:
			return fmt.Errorf("broker rejected connection: %s", f.get("message"))
		default:
			return fmt.Errorf("unexpected handshake frame %s", f.command)
		}
		break
	}

	sub := &frame{command: cmdSubscribe}
	sub.set("id", uuid.New().String())
	sub.set("destination", c.cfg.Topic)
	if err := conn.WriteMessage(websocket.TextMessage, sub.marshal()); err != nil {
		return fmt.Errorf("sending SUBSCRIBE: %w", err)
	}

	return nil
}

// writeHeartbeats sends keep-alive frames at the configured interval
// until the session ends.
func (c *Channel) writeHeartbeats(
	conn *websocket.Conn,
	writeMu *sync.Mutex,
	done chan struct{},
) {
	ticker := time.NewTicker(c.cfg.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, heartbeat)
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// readLoop pumps inbound frames until the transport fails. A malformed
// frame is dropped in isolation; it never terminates the connection.
func (c *Channel) readLoop(conn *websocket.Conn) error {
	// Allow a missed heartbeat before declaring the peer gone.
	readTimeout := 2*c.cfg.Heartbeat + time.Second

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}

		if isHeartbeat(data) {
			continue
		}

		f, err := parseFrame(data)
		if err != nil {
			logging.L().Warn("channel: dropping malformed frame", "err", err)
			continue
		}

		switch f.command {
		case cmdMessage:
			var n model.Notification
			if err := json.Unmarshal(f.body, &n); err != nil {
				logging.L().Warn("channel: dropping undecodable message", "err", err)
				continue
			}
			c.fanOut(n)
		case cmdError:
			return fmt.Errorf("broker error: %s", f.get("message"))
		default:
			logging.L().Debug("channel: ignoring frame", "command", f.command)
		}
	}
}

// fanOut delivers one notification to every registered subscriber,
// synchronously, in registration order.
func (c *Channel) fanOut(n model.Notification) {
	c.mu.Lock()
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(n)
	}
}

// publish records a supervisor state transition unless the channel has
// been stopped, so Disconnect's terminal status is never overwritten by
// a late supervisor iteration.
func (c *Channel) publish(status Status) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.status = status
	observers := make([]stateSubscriber, len(c.stateSubs))
	copy(observers, c.stateSubs)
	c.mu.Unlock()

	for _, s := range observers {
		s.fn(status)
	}
}

// setStatus records a state transition and notifies observers.
func (c *Channel) setStatus(status Status) {
	c.mu.Lock()
	c.status = status
	observers := make([]stateSubscriber, len(c.stateSubs))
	copy(observers, c.stateSubs)
	c.mu.Unlock()

	for _, s := range observers {
		s.fn(status)
	}
}
