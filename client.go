package solarman

import (
	"context"
	"net"
	"sync"
)

// Client is the request/response engine of spec §4.H, bound to one
// logger over one TCP connection. It exclusively owns its transport
// handle, sequence counter, idle timer, and state cell (spec §9); the
// zero value is not usable — construct with NewClient.
type Client struct {
	cfg Config

	seq  sequenceGenerator
	gate responseGate

	conns connState

	// reqMu serializes the public operations: because in-flight
	// concurrency is structurally 1 (spec §4.H "Concurrency"), a mutex
	// around the request path suffices in place of a request queue.
	reqMu sync.Mutex
}

// NewClient builds an immutable Config from host, loggerSerial, and opts,
// and returns a Client bound to it. The client is not yet connected;
// call Connect, or configure a reconnection policy and let the first
// operation connect implicitly.
func NewClient(host string, loggerSerial uint32, opts ...Option) (*Client, error) {
	cfg := defaultConfig(host, loggerSerial)
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg}, nil
}

func (c *Client) dial(ctx context.Context, network, address string) (net.Conn, error) {
	if c.cfg.dial != nil {
		return c.cfg.dial(ctx, network, address)
	}
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}
