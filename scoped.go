package solarman

import "context"

// WithClient builds a Client, connects it, runs fn, and always closes the
// transport on exit — success or failure. Spec §6 calls this out
// explicitly as "part of the external API but not of this core spec";
// it lives in its own file so the core packages never depend on it.
func WithClient(ctx context.Context, host string, loggerSerial uint32, fn func(ctx context.Context, c *Client) error, opts ...Option) error {
	c, err := NewClient(host, loggerSerial, opts...)
	if err != nil {
		return err
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}
