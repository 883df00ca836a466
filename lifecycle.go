package solarman

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ConnState is the client state cell of spec §3/§4.I.
type ConnState uint8

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// connState is the mutable connection-lifecycle state of a Client,
// protected by its own mutex per spec §5's fine-grained locking
// requirement: it is never held across a suspension point (connect
// handshake, transport write/read, response rendezvous, idle sleep).
type connState struct {
	mu sync.Mutex

	state          ConnState
	conn           net.Conn
	lastActivity   time.Time
	idleTimer      *time.Timer
	reconnectDelay *time.Duration
	readerDone     chan struct{}
}

// Connect dials the transport, per the Disconnected → Connecting →
// Connected transition of spec §4.I. Connecting from any state other than
// Disconnected fails AlreadyConnected.
func (c *Client) Connect(ctx context.Context) error {
	c.conns.mu.Lock()
	if c.conns.state != StateDisconnected {
		c.conns.mu.Unlock()
		return errAlreadyConnected()
	}
	c.conns.state = StateConnecting
	c.conns.mu.Unlock()

	conn, err := c.dial(ctx, "tcp", net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port)))

	c.conns.mu.Lock()
	defer c.conns.mu.Unlock()
	if err != nil {
		c.conns.state = StateDisconnected
		return errConnectionFailed("dial failed", errors.WithMessage(err, "tcp dial"))
	}

	c.conns.conn = conn
	c.conns.state = StateConnected
	c.conns.lastActivity = time.Now()
	c.conns.reconnectDelay = nil
	c.armIdleWatchdogLocked()
	c.cfg.Hooks.Connect()

	c.startReaderLocked()
	return nil
}

// Close is idempotent and safe from any state: it cancels the idle
// watchdog and best-effort closes the transport, always ending in
// Disconnected.
func (c *Client) Close() error {
	c.conns.mu.Lock()
	if c.conns.state == StateDisconnected {
		c.conns.mu.Unlock()
		return nil
	}
	c.conns.state = StateDisconnecting
	conn := c.conns.conn
	c.conns.conn = nil
	if c.conns.idleTimer != nil {
		c.conns.idleTimer.Stop()
		c.conns.idleTimer = nil
	}
	c.conns.mu.Unlock()

	var closeErr error
	if conn != nil {
		closeErr = conn.Close()
	}

	c.gate.fail(errChannelClosed())

	c.conns.mu.Lock()
	c.conns.state = StateDisconnected
	c.conns.mu.Unlock()

	c.cfg.Hooks.Disconnect()
	return closeErr
}

// IsConnected reports whether the client is currently in StateConnected.
func (c *Client) IsConnected() bool {
	c.conns.mu.Lock()
	defer c.conns.mu.Unlock()
	return c.conns.state == StateConnected
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.conns.mu.Lock()
	defer c.conns.mu.Unlock()
	return c.conns.state
}

// armIdleWatchdogLocked schedules the one-shot idle timer. Callers must
// hold c.conns.mu.
func (c *Client) armIdleWatchdogLocked() {
	if c.cfg.IdleTimeout == nil {
		return
	}
	if c.conns.idleTimer != nil {
		c.conns.idleTimer.Stop()
	}
	timeout := *c.cfg.IdleTimeout
	c.conns.idleTimer = time.AfterFunc(timeout, func() { c.onIdleTimerFired(timeout) })
}

// onIdleTimerFired runs on the timer's own goroutine, outside any held
// lock. Per spec §4.I, it closes the connection only if the elapsed idle
// interval still holds at the moment the timer fires; otherwise it is a
// no-op because a later activity stamp has already rearmed the watchdog.
func (c *Client) onIdleTimerFired(timeout time.Duration) {
	c.conns.mu.Lock()
	idle := !c.conns.lastActivity.IsZero() && time.Since(c.conns.lastActivity) >= timeout
	c.conns.mu.Unlock()
	if idle {
		c.Close()
	}
}

// markActivityLocked stamps the last-activity instant and rearms the
// idle watchdog. Callers must hold c.conns.mu.
func (c *Client) markActivityLocked() {
	c.conns.lastActivity = time.Now()
	c.armIdleWatchdogLocked()
}

// ensureConnected implements the reconnection policy consulted at the
// start of each request attempt (spec §4.I).
func (c *Client) ensureConnected(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	switch c.cfg.Reconnect.Mode {
	case ReconnectDisabled:
		return errNotConnected()

	case ReconnectImmediate:
		c.cfg.Hooks.ReconnectAttempt()
		if err := c.reconnectOnce(ctx); err != nil {
			return err
		}
		return nil

	case ReconnectExponential:
		delay := c.nextReconnectDelay()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return errConnectionFailed("cancelled", ctx.Err())
			}
		}
		c.cfg.Hooks.ReconnectAttempt()
		err := c.reconnectOnce(ctx)
		c.advanceReconnectDelay(err == nil)
		return err

	default:
		return errNotConnected()
	}
}

// reconnectOnce resets a lingering Disconnecting/Connecting leftover state
// before dialing, since ensureConnected only ever observes
// non-Connected states from the request path (never concurrently, as the
// request lock serializes attempts).
func (c *Client) reconnectOnce(ctx context.Context) error {
	c.conns.mu.Lock()
	if c.conns.state != StateDisconnected {
		c.conns.state = StateDisconnected
	}
	c.conns.mu.Unlock()
	return c.Connect(ctx)
}

func (c *Client) nextReconnectDelay() time.Duration {
	c.conns.mu.Lock()
	defer c.conns.mu.Unlock()
	if c.conns.reconnectDelay == nil {
		d := c.cfg.Reconnect.Initial
		c.conns.reconnectDelay = &d
		return 0
	}
	return *c.conns.reconnectDelay
}

func (c *Client) advanceReconnectDelay(success bool) {
	c.conns.mu.Lock()
	defer c.conns.mu.Unlock()
	if success {
		c.conns.reconnectDelay = nil
		return
	}
	if c.conns.reconnectDelay == nil {
		d := c.cfg.Reconnect.Initial
		c.conns.reconnectDelay = &d
		return
	}
	next := 2 * *c.conns.reconnectDelay
	if next > c.cfg.Reconnect.Max {
		next = c.cfg.Reconnect.Max
	}
	c.conns.reconnectDelay = &next
}
