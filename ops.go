package solarman

import (
	"context"
	"fmt"
	"time"

	"github.com/oss-modbus/solarman-v5/rtu"
)

// ReadHoldingRegisters reads quantity holding registers starting at
// address (function code 0x03; quantity in 1..125).
func (c *Client) ReadHoldingRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error) {
	if quantity < 1 || quantity > 125 {
		return nil, errInvalidParameter(fmt.Sprintf("quantity %d out of range 1..125", quantity))
	}
	pdu, err := c.do(ctx, rtu.FcReadHoldingRegisters, rtu.EncodeAddressQuantity(address, quantity))
	if err != nil {
		return nil, err
	}
	regs, err := rtu.DecodeRegisters(pdu.Data)
	if err != nil {
		return nil, mapCodecError(err)
	}
	return regs, nil
}

// ReadInputRegisters reads quantity input registers starting at address
// (function code 0x04; quantity in 1..125).
func (c *Client) ReadInputRegisters(ctx context.Context, address, quantity uint16) ([]uint16, error) {
	if quantity < 1 || quantity > 125 {
		return nil, errInvalidParameter(fmt.Sprintf("quantity %d out of range 1..125", quantity))
	}
	pdu, err := c.do(ctx, rtu.FcReadInputRegisters, rtu.EncodeAddressQuantity(address, quantity))
	if err != nil {
		return nil, err
	}
	regs, err := rtu.DecodeRegisters(pdu.Data)
	if err != nil {
		return nil, mapCodecError(err)
	}
	return regs, nil
}

// ReadCoils reads quantity coils starting at address (function code 0x01;
// quantity in 1..2000).
func (c *Client) ReadCoils(ctx context.Context, address, quantity uint16) ([]bool, error) {
	if quantity < 1 || quantity > 2000 {
		return nil, errInvalidParameter(fmt.Sprintf("quantity %d out of range 1..2000", quantity))
	}
	pdu, err := c.do(ctx, rtu.FcReadCoils, rtu.EncodeAddressQuantity(address, quantity))
	if err != nil {
		return nil, err
	}
	bits, err := rtu.DecodeBits(pdu.Data, int(quantity))
	if err != nil {
		return nil, mapCodecError(err)
	}
	return bits, nil
}

// ReadDiscreteInputs reads quantity discrete inputs starting at address
// (function code 0x02; quantity in 1..2000).
func (c *Client) ReadDiscreteInputs(ctx context.Context, address, quantity uint16) ([]bool, error) {
	if quantity < 1 || quantity > 2000 {
		return nil, errInvalidParameter(fmt.Sprintf("quantity %d out of range 1..2000", quantity))
	}
	pdu, err := c.do(ctx, rtu.FcReadDiscreteInputs, rtu.EncodeAddressQuantity(address, quantity))
	if err != nil {
		return nil, err
	}
	bits, err := rtu.DecodeBits(pdu.Data, int(quantity))
	if err != nil {
		return nil, mapCodecError(err)
	}
	return bits, nil
}

// WriteSingleRegister writes value to the register at address (function
// code 0x06).
func (c *Client) WriteSingleRegister(ctx context.Context, address, value uint16) error {
	sent := rtu.EncodeWriteSingleRegister(address, value)
	pdu, err := c.do(ctx, rtu.FcWriteSingleRegister, sent)
	if err != nil {
		return err
	}
	if err := rtu.VerifyEcho(sent, pdu.Data); err != nil {
		return mapCodecError(err)
	}
	return nil
}

// WriteMultipleRegisters writes values starting at address (function code
// 0x10; 1..123 values).
func (c *Client) WriteMultipleRegisters(ctx context.Context, address uint16, values []uint16) error {
	if len(values) < 1 || len(values) > 123 {
		return errInvalidParameter(fmt.Sprintf("value count %d out of range 1..123", len(values)))
	}
	pdu, err := c.do(ctx, rtu.FcWriteMultipleRegisters, rtu.EncodeWriteMultipleRegisters(address, values))
	if err != nil {
		return err
	}
	want := rtu.EncodeAddressQuantity(address, uint16(len(values)))
	if err := rtu.VerifyEcho(want, pdu.Data); err != nil {
		return mapCodecError(err)
	}
	return nil
}

// WriteSingleCoil writes value to the coil at address (function code
// 0x05).
func (c *Client) WriteSingleCoil(ctx context.Context, address uint16, value bool) error {
	sent := rtu.EncodeWriteSingleCoil(address, value)
	pdu, err := c.do(ctx, rtu.FcWriteSingleCoil, sent)
	if err != nil {
		return err
	}
	if err := rtu.VerifyEcho(sent, pdu.Data); err != nil {
		return mapCodecError(err)
	}
	return nil
}

// WriteMultipleCoils writes values starting at address (function code
// 0x0F; 1..1968 values).
func (c *Client) WriteMultipleCoils(ctx context.Context, address uint16, values []bool) error {
	if len(values) < 1 || len(values) > 1968 {
		return errInvalidParameter(fmt.Sprintf("value count %d out of range 1..1968", len(values)))
	}
	pdu, err := c.do(ctx, rtu.FcWriteMultipleCoils, rtu.EncodeWriteMultipleCoils(address, values))
	if err != nil {
		return err
	}
	want := rtu.EncodeAddressQuantity(address, uint16(len(values)))
	if err := rtu.VerifyEcho(want, pdu.Data); err != nil {
		return mapCodecError(err)
	}
	return nil
}

// MaskWriteRegister applies a read-modify-write mask to the register at
// address (function code 0x16): result = (current AND andMask) OR
// (orMask AND NOT andMask).
func (c *Client) MaskWriteRegister(ctx context.Context, address, andMask, orMask uint16) error {
	sent := rtu.EncodeMaskWriteRegister(address, andMask, orMask)
	pdu, err := c.do(ctx, rtu.FcMaskWriteRegister, sent)
	if err != nil {
		return err
	}
	if err := rtu.VerifyEcho(sent, pdu.Data); err != nil {
		return mapCodecError(err)
	}
	return nil
}

// RawRTU sends data as the Modbus PDU data for functionCode and appends
// the CRC-16 itself, returning the response PDU's data (CRC stripped).
// data must be at least 2 bytes (spec §4.H "Raw RTU (CRC appended)").
func (c *Client) RawRTU(ctx context.Context, functionCode byte, data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, errInvalidParameter("raw rtu payload must be at least 2 bytes")
	}
	pdu, err := c.do(ctx, functionCode, data)
	if err != nil {
		return nil, err
	}
	return pdu.Data, nil
}

// RawRTUFrame sends a complete, caller-built Modbus RTU frame (unit id,
// function code, data, CRC-16 already appended) and returns the raw
// response frame bytes, bypassing the codec's Build step entirely. frame
// must be at least 4 bytes (spec §4.H "Raw RTU (CRC included)").
func (c *Client) RawRTUFrame(ctx context.Context, frame []byte) ([]byte, error) {
	if len(frame) < 4 {
		return nil, errInvalidParameter("raw rtu frame must be at least 4 bytes")
	}

	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	functionCode := frame[1]
	return runRetryLoop(c, functionCode, func() ([]byte, error) {
		return c.attemptRawFrame(ctx, frame)
	})
}

func (c *Client) attemptRawFrame(ctx context.Context, frame []byte) ([]byte, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	seq := c.seq.next()
	envelope := BuildRequest(c.cfg.LoggerSerial, seq, frame)

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
	return response.ModbusFrame(), nil
}
