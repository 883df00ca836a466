package solarman

import (
	"context"
	"time"

	"github.com/goburrow/modbus"

	"github.com/oss-modbus/solarman-v5/rtu"
)

// do runs the retry loop of spec §4.H around one function-code/data pair:
// maximum attempts = retries + 1, tearing the transport down and
// consulting the reconnection policy again between retryable failures.
func (c *Client) do(ctx context.Context, functionCode byte, data []byte) (*modbus.ProtocolDataUnit, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	return runRetryLoop(c, functionCode, func() (*modbus.ProtocolDataUnit, error) {
		return c.attempt(ctx, functionCode, data)
	})
}

// runRetryLoop drives spec §4.H's retry loop around a single attempt:
// maximum attempts = retries + 1, tearing the transport down between
// retryable failures, and reporting every outcome through functionCode's
// observability hooks. do and RawRTUFrame are both single-attempt
// operations wrapped in this same bookkeeping; factoring it out keeps the
// hook calls and retry accounting from drifting between the two.
func runRetryLoop[T any](c *Client, functionCode byte, attempt func() (T, error)) (T, error) {
	maxAttempts := c.cfg.Retries + 1
	var lastErr error
	var zero T

	for i := 0; i < maxAttempts; i++ {
		start := time.Now()
		result, err := attempt()
		if err == nil {
			c.cfg.Hooks.RequestOK(functionCode, time.Since(start))
			return result, nil
		}

		lastErr = err
		label := "unknown"
		retryable := false
		if serr, ok := err.(*Error); ok {
			label = serr.Kind.String()
			retryable = serr.Retryable()
		}
		c.cfg.Hooks.RequestErr(functionCode, label)

		if !retryable || i == maxAttempts-1 {
			return zero, err
		}

		c.cfg.Hooks.Retry(functionCode)
		c.Close()
	}
	return zero, lastErr
}

// attempt is a single request/response cycle: build, wrap, write, await,
// parse, and match — spec §4.H "Single attempt".
func (c *Client) attempt(ctx context.Context, functionCode byte, data []byte) (*modbus.ProtocolDataUnit, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	seq := c.seq.next()
	adu := c.cfg.Codec.Build(c.cfg.UnitID, &modbus.ProtocolDataUnit{FunctionCode: functionCode, Data: data})
	envelope := BuildRequest(c.cfg.LoggerSerial, seq, adu)

	ch := c.gate.register()

	c.conns.mu.Lock()
	conn := c.conns.conn
	c.conns.mu.Unlock()
	if conn == nil {
		c.gate.cancel(ch)
		return nil, errNotConnected()
	}

	if _, err := conn.Write(envelope); err != nil {
		c.gate.cancel(ch)
		return nil, errIoError("write failed", err)
	}
	c.conns.mu.Lock()
	c.markActivityLocked()
	c.conns.mu.Unlock()

	var res gateResult
	select {
	case res = <-ch:
	case <-time.After(c.cfg.Timeout):
		c.gate.cancel(ch)
		return nil, errTimeout()
	case <-ctx.Done():
		c.gate.cancel(ch)
		return nil, errCancelled(ctx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	response, err := ParseResponse(res.frame)
	if err != nil {
		return nil, err
	}

	if response.Sequence&0xFF != seq&0xFF {
		return nil, errSequenceMismatch(seq, response.Sequence)
	}

	return c.parseModbus(functionCode, response.ModbusFrame())
}

// parseModbus delegates to the configured ModbusCodec, applying the
// double-CRC corrector once on a detected CRC disagreement when
// V5ErrorCorrection is enabled (spec §4.H step 9, §4.D).
func (c *Client) parseModbus(functionCode byte, frame []byte) (*modbus.ProtocolDataUnit, error) {
	pdu, err := c.cfg.Codec.Parse(c.cfg.UnitID, functionCode, frame)
	if err == nil {
		return pdu, nil
	}

	if crcErr, ok := err.(*rtu.CRCError); ok && c.cfg.V5ErrorCorrection {
		if corrected, ok := CorrectDoubleCRC(frame, c.cfg.Codec.CRC16); ok {
			pdu, rerr := c.cfg.Codec.Parse(c.cfg.UnitID, functionCode, corrected)
			if rerr == nil {
				return pdu, nil
			}
			return nil, mapCodecError(rerr)
		}
		return nil, mapCodecError(crcErr)
	}

	return nil, mapCodecError(err)
}

// mapCodecError translates the external Modbus library's error surface
// into the closed taxonomy of spec §7.
func mapCodecError(err error) error {
	if mex, ok := err.(*modbus.ModbusError); ok {
		return errModbusException(mex.ExceptionCode)
	}
	return errRtuError(err.Error())
}
