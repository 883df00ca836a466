package solarman

import "net"

// startReaderLocked spawns the goroutine that owns the network read path:
// it reads bytes off conn, feeds them to a Decoder, and hands each
// emitted frame to the response gate. Callers must hold c.conns.mu and
// c.conns.conn must already be set to the connection being started.
func (c *Client) startReaderLocked() {
	conn := c.conns.conn
	done := make(chan struct{})
	c.conns.readerDone = done
	go c.readLoop(conn, done)
}

// readLoop is the network read path referenced throughout spec §4.G/§4.I.
// It runs for the lifetime of one connection and terminates on the first
// structural decode error or transport read error, at which point it
// fails any registered awaiter and drives the connection to Disconnected
// — unless conn has already been superseded by a newer connection, in
// which case endConnection discards the failure instead.
func (c *Client) readLoop(conn net.Conn, done chan struct{}) {
	defer close(done)

	dec := NewDecoder()
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
			for {
				frame, ferr := dec.Next()
				if ferr == ErrNeedMore {
					break
				}
				if ferr != nil {
					c.cfg.Logger.Debugf("solarman: stream decode failed: %v", ferr)
					c.endConnection(conn, ferr)
					return
				}
				c.conns.mu.Lock()
				c.markActivityLocked()
				c.conns.mu.Unlock()
				c.gate.deliver(frame)
			}
		}
		if err != nil {
			var terminal error
			if closeErr := dec.Close(); closeErr != nil {
				terminal = closeErr
			} else {
				terminal = errIoError("read failed", err)
			}
			c.endConnection(conn, terminal)
			return
		}
	}
}

// endConnection tears conn down and fails any registered awaiter with
// terminalErr — but only if conn is still the client's current
// connection. The retry loop in engine.go's do() can close a connection
// and establish a new one (via ensureConnected) before the old conn's
// reader goroutine notices its read has failed; without this guard, that
// stale reader would fail the newer connection's in-flight awaiter and
// tear down a connection it never owned. A conn that no longer matches
// c.conns.conn has already been retired by Close or by a newer
// endConnection call, so this is a no-op.
func (c *Client) endConnection(conn net.Conn, terminalErr error) {
	c.conns.mu.Lock()
	if c.conns.conn != conn {
		c.conns.mu.Unlock()
		return
	}
	if c.conns.idleTimer != nil {
		c.conns.idleTimer.Stop()
		c.conns.idleTimer = nil
	}
	c.conns.conn = nil
	c.conns.state = StateDisconnected
	c.conns.mu.Unlock()

	c.gate.fail(terminalErr)
	conn.Close()
	c.cfg.Hooks.Disconnect()
}
