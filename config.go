package solarman

import (
	"context"
	"net"
	"time"

	"golang.org/x/exp/slices"
)

// ReconnectMode selects the reconnection strategy consulted at the start
// of each request attempt when the client is not Connected (spec §4.I).
type ReconnectMode uint8

const (
	ReconnectDisabled ReconnectMode = iota
	ReconnectImmediate
	ReconnectExponential
)

var validReconnectModes = []ReconnectMode{ReconnectDisabled, ReconnectImmediate, ReconnectExponential}

// ReconnectPolicy selects the reconnection mode. Initial and Max configure
// ReconnectExponential; the other two modes ignore them.
type ReconnectPolicy struct {
	Mode    ReconnectMode
	Initial time.Duration
	Max     time.Duration
}

// Config is the immutable record of spec §3. A Config is built with
// NewClient's functional options and copied by value into the Client at
// construction time, so later mutation of the options passed in has no
// effect on a live client.
type Config struct {
	Host         string
	Port         int
	LoggerSerial uint32
	UnitID       byte

	Timeout time.Duration
	Retries int

	// IdleTimeout is nullable; nil disables the idle watchdog entirely.
	IdleTimeout *time.Duration

	Reconnect         ReconnectPolicy
	V5ErrorCorrection bool

	Hooks  Hooks
	Logger Logger
	Codec  ModbusCodec

	// dial overrides how the TCP connection is established; exposed for
	// tests that need a fake transport. Defaults to net.Dialer.DialContext.
	dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// Option mutates a Config under construction.
type Option func(*Config)

func defaultConfig(host string, loggerSerial uint32) Config {
	idle := 60 * time.Second
	return Config{
		Host:         host,
		Port:         8899,
		LoggerSerial: loggerSerial,
		UnitID:       1,
		Timeout:      60 * time.Second,
		Retries:      3,
		IdleTimeout:  &idle,
		Reconnect:    ReconnectPolicy{Mode: ReconnectDisabled},
		Hooks:        NoopHooks{},
		Logger:       discardLogger{},
		Codec:        defaultCodec{},
	}
}

// WithPort sets the TCP port (default 8899).
func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

// WithUnitID sets the Modbus unit id (slave address) used for every
// operation.
func WithUnitID(unitID byte) Option {
	return func(c *Config) { c.UnitID = unitID }
}

// WithTimeout sets the overall per-attempt operation timeout (default
// 60s).
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithRetries sets the retry count; maximum attempts = retries + 1
// (default 3).
func WithRetries(retries int) Option {
	return func(c *Config) { c.Retries = retries }
}

// WithIdleTimeout sets the idle watchdog duration (default 60s).
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Config) { c.IdleTimeout = &d }
}

// WithNoIdleTimeout disables the idle watchdog.
func WithNoIdleTimeout() Option {
	return func(c *Config) { c.IdleTimeout = nil }
}

// WithReconnectPolicy sets the reconnection strategy (default Disabled).
func WithReconnectPolicy(p ReconnectPolicy) Option {
	return func(c *Config) { c.Reconnect = p }
}

// WithV5ErrorCorrection enables the §4.D double-CRC corrector on a
// detected invalid Modbus CRC (default off).
func WithV5ErrorCorrection(enabled bool) Option {
	return func(c *Config) { c.V5ErrorCorrection = enabled }
}

// WithHooks installs an observability sink (default NoopHooks).
func WithHooks(h Hooks) Option {
	return func(c *Config) {
		if h != nil {
			c.Hooks = h
		}
	}
}

// WithLogger installs a diagnostic logger (default discards everything).
func WithLogger(l Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithCodec installs a Modbus codec other than the bundled rtu.Codec.
func WithCodec(codec ModbusCodec) Option {
	return func(c *Config) {
		if codec != nil {
			c.Codec = codec
		}
	}
}

func withDialFunc(fn func(ctx context.Context, network, address string) (net.Conn, error)) Option {
	return func(c *Config) { c.dial = fn }
}

// validate rejects configurations the rest of the package cannot run
// against; it is called once, inside NewClient.
func (c Config) validate() error {
	if c.Host == "" {
		return errInvalidParameter("host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errInvalidParameter("port must be in 1..65535")
	}
	if !slices.Contains(validReconnectModes, c.Reconnect.Mode) {
		return errInvalidParameter("unknown reconnect mode")
	}
	if c.Reconnect.Mode == ReconnectExponential {
		if c.Reconnect.Initial <= 0 || c.Reconnect.Max < c.Reconnect.Initial {
			return errInvalidParameter("exponential reconnect policy requires 0 < initial <= max")
		}
	}
	if c.Retries < 0 {
		return errInvalidParameter("retries must not be negative")
	}
	if c.Timeout <= 0 {
		return errInvalidParameter("timeout must be positive")
	}
	return nil
}
